package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRunLocked is returned when another owner holds an unexpired run lease.
var ErrRunLocked = errors.New("run lock held")

// runLockName is the only row of run_lock.
const runLockName = "exchange"

// AcquireRunLock takes the exchange lease for owner until now+ttl. A lease
// past its expiry is taken over, so a crashed process does not block runs
// forever. Returns ErrRunLocked while someone else holds it.
func (s *Store) AcquireRunLock(ctx context.Context, owner string, now time.Time, ttl time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("acquire run lock: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM run_lock WHERE name = ? AND expires_at <= ?`,
		runLockName, now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("acquire run lock: expire: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO run_lock (name, owner, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, runLockName, owner, now.Add(ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("acquire run lock: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if n == 0 {
		return ErrRunLocked
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("acquire run lock: commit: %w", err)
	}
	return nil
}

// ReleaseRunLock drops the lease if owner still holds it.
func (s *Store) ReleaseRunLock(ctx context.Context, owner string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM run_lock WHERE name = ? AND owner = ?`,
		runLockName, owner,
	)
	if err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}

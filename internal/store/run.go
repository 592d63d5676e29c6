package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Outcome is the result of one notification attempt.
type Outcome string

const (
	OutcomeDelivered        Outcome = "delivered"
	OutcomeUnreachable      Outcome = "unreachable"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeSkipped          Outcome = "skipped"
)

// Run is the journal record of one exchange run.
type Run struct {
	ID           string     `json:"id"`
	OperatorID   string     `json:"operator_id"`
	Participants int        `json:"participants"`
	Trials       int        `json:"trials"`
	Fallback     bool       `json:"fallback"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
	Deliveries   []Delivery `json:"deliveries,omitempty"`
}

// Delivery is one notification attempt within a run.
type Delivery struct {
	RunID         string  `json:"run_id"`
	Seq           int64   `json:"seq"`
	ParticipantID string  `json:"participant_id"`
	TargetID      string  `json:"target_id"`
	Outcome       Outcome `json:"outcome"`
	Error         string  `json:"error,omitempty"`
}

// Count returns how many deliveries ended with outcome o.
func (r Run) Count(o Outcome) int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Outcome == o {
			n++
		}
	}
	return n
}

const timeLayout = time.RFC3339Nano

// RecordRun writes a run and all its deliveries in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exchange_runs
		(id, operator_id, participants, trials, fallback, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.OperatorID,
		run.Participants,
		run.Trials,
		boolToInt(run.Fallback),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record run: insert run: %w", err)
	}

	for _, d := range run.Deliveries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO deliveries
			(run_id, seq, participant_id, target_id, outcome, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, d.Seq, d.ParticipantID, d.TargetID, string(d.Outcome), d.Error)
		if err != nil {
			return fmt.Errorf("record run: insert delivery %d: %w", d.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first, without deliveries.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operator_id, participants, trials, fallback, started_at, finished_at
		FROM exchange_runs
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run with its deliveries ordered by seq.
// Returns ErrNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, operator_id, participants, trials, fallback, started_at, finished_at
		FROM exchange_runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}

	run.Deliveries, err = s.queryDeliveries(ctx, `
		SELECT run_id, seq, participant_id, target_id, outcome, error
		FROM deliveries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// DeliveriesFor returns every delivery addressed to a participant, oldest run first.
func (s *Store) DeliveriesFor(ctx context.Context, participantID string) ([]Delivery, error) {
	return s.queryDeliveries(ctx, `
		SELECT d.run_id, d.seq, d.participant_id, d.target_id, d.outcome, d.error
		FROM deliveries d
		JOIN exchange_runs r ON r.id = d.run_id
		WHERE d.participant_id = ?
		ORDER BY r.rowid ASC, d.seq ASC
	`, participantID)
}

func (s *Store) queryDeliveries(ctx context.Context, query string, args ...any) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		var d Delivery
		var outcome string
		if err := rows.Scan(&d.RunID, &d.Seq, &d.ParticipantID, &d.TargetID, &outcome, &d.Error); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Outcome = Outcome(outcome)
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return deliveries, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var fallback int
	var started, finished string
	err := sc.Scan(&run.ID, &run.OperatorID, &run.Participants, &run.Trials, &fallback, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Fallback = fallback == 1
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

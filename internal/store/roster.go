package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/santa/internal/profile"
)

// rosterDocument is the documents.name of the participant roster.
const rosterDocument = "roster"

// rosterEntry is the on-disk shape of one profile. AssignedTarget is a
// pointer so an unassigned participant serializes as null.
type rosterEntry struct {
	RecipientLabel string                     `json:"recipient_label"`
	Pickup         map[profile.Channel]string `json:"pickup"`
	Note           string                     `json:"note"`
	AssignedTarget *string                    `json:"assigned_target"`
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Upsert inserts or fully replaces the profile keyed by its participant id.
func (s *Store) Upsert(ctx context.Context, p profile.GiftProfile) error {
	if p.ParticipantID == "" {
		return fmt.Errorf("upsert: %w", profile.ErrMissingParticipant)
	}
	err := s.mutateRoster(ctx, func(roster map[string]profile.GiftProfile) error {
		roster[p.ParticipantID] = p.Clone()
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", p.ParticipantID, err)
	}
	return nil
}

// UpsertProfile stores p and keeps whatever assignment the participant
// already has; p.AssignedTarget is ignored. The read of the old assignment
// and the write share one transaction, so an assignment committed by a
// concurrent run is never overwritten. Returns the stored profile.
func (s *Store) UpsertProfile(ctx context.Context, p profile.GiftProfile) (profile.GiftProfile, error) {
	if p.ParticipantID == "" {
		return profile.GiftProfile{}, fmt.Errorf("upsert profile: %w", profile.ErrMissingParticipant)
	}
	var stored profile.GiftProfile
	err := s.mutateRoster(ctx, func(roster map[string]profile.GiftProfile) error {
		stored = keepAssignment(roster, p)
		return nil
	})
	if err != nil {
		return profile.GiftProfile{}, fmt.Errorf("upsert profile %s: %w", p.ParticipantID, err)
	}
	return stored, nil
}

// PutAll upserts every profile in one document write.
func (s *Store) PutAll(ctx context.Context, profiles map[string]profile.GiftProfile) error {
	err := s.mutateRoster(ctx, func(roster map[string]profile.GiftProfile) error {
		for id, p := range profiles {
			p.ParticipantID = id
			roster[id] = p.Clone()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put all: %w", err)
	}
	return nil
}

// Get returns one profile or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (profile.GiftProfile, error) {
	roster, _, err := readRoster(ctx, s.db)
	if err != nil {
		return profile.GiftProfile{}, fmt.Errorf("get %s: %w", id, err)
	}
	p, ok := roster[id]
	if !ok {
		return profile.GiftProfile{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// GetAll returns the full roster. An empty store returns an empty, non-nil map.
func (s *Store) GetAll(ctx context.Context) (map[string]profile.GiftProfile, error) {
	roster, _, err := readRoster(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	return roster, nil
}

// SetAssignment sets the target of one existing participant.
func (s *Store) SetAssignment(ctx context.Context, id, target string) error {
	return s.SetAssignments(ctx, map[string]string{id: target})
}

// SetAssignments sets the targets of several participants in one transaction.
// If any participant is missing nothing is written and ErrNotFound is returned.
func (s *Store) SetAssignments(ctx context.Context, assignments map[string]string) error {
	err := s.mutateRoster(ctx, func(roster map[string]profile.GiftProfile) error {
		return applyAssignments(roster, assignments)
	})
	if err != nil {
		return fmt.Errorf("set assignments: %w", err)
	}
	return nil
}

// Revision returns how many times the roster document has been written.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	_, rev, err := readRoster(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("revision: %w", err)
	}
	return rev, nil
}

// mutateRoster runs fn against the decoded roster and rewrites the whole
// document if fn succeeds. The read and the write share one transaction.
func (s *Store) mutateRoster(ctx context.Context, fn func(map[string]profile.GiftProfile) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	roster, _, err := readRoster(ctx, tx)
	if err != nil {
		return err
	}

	if err := fn(roster); err != nil {
		return err
	}

	body, err := encodeRoster(roster)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (name, body, revision)
		VALUES (?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET
			body = excluded.body,
			revision = documents.revision + 1
	`, rosterDocument, body)
	if err != nil {
		return fmt.Errorf("write roster: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// readRoster loads and decodes the roster document. A missing document is an
// empty roster at revision 0.
func readRoster(ctx context.Context, q querier) (map[string]profile.GiftProfile, int64, error) {
	var body string
	var rev int64
	err := q.QueryRowContext(ctx,
		`SELECT body, revision FROM documents WHERE name = ?`, rosterDocument,
	).Scan(&body, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]profile.GiftProfile{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read roster: %w", err)
	}

	roster, err := decodeRoster([]byte(body))
	if err != nil {
		return nil, 0, err
	}
	return roster, rev, nil
}

// keepAssignment writes p into roster with the assignment already stored
// for it, or none for a new participant.
func keepAssignment(roster map[string]profile.GiftProfile, p profile.GiftProfile) profile.GiftProfile {
	p = p.Clone()
	p.AssignedTarget = roster[p.ParticipantID].AssignedTarget
	roster[p.ParticipantID] = p
	return p.Clone()
}

// applyAssignments validates every id before touching the roster.
func applyAssignments(roster map[string]profile.GiftProfile, assignments map[string]string) error {
	for id := range assignments {
		if _, ok := roster[id]; !ok {
			return fmt.Errorf("participant %s: %w", id, ErrNotFound)
		}
	}
	for id, target := range assignments {
		p := roster[id]
		p.AssignedTarget = target
		roster[id] = p
	}
	return nil
}

func encodeRoster(roster map[string]profile.GiftProfile) (string, error) {
	doc := make(map[string]rosterEntry, len(roster))
	for id, p := range roster {
		entry := rosterEntry{
			RecipientLabel: p.RecipientLabel,
			Pickup:         p.Pickup,
			Note:           p.Note,
		}
		if p.AssignedTarget != "" {
			target := p.AssignedTarget
			entry.AssignedTarget = &target
		}
		doc[id] = entry
	}
	// Map keys are sorted by encoding/json, so equal rosters encode equally.
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode roster: %w", err)
	}
	return string(data), nil
}

func decodeRoster(data []byte) (map[string]profile.GiftProfile, error) {
	var doc map[string]rosterEntry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	roster := make(map[string]profile.GiftProfile, len(doc))
	for id, entry := range doc {
		p := profile.GiftProfile{
			ParticipantID:  id,
			RecipientLabel: entry.RecipientLabel,
			Pickup:         entry.Pickup,
			Note:           entry.Note,
		}
		if p.Pickup == nil {
			p.Pickup = map[profile.Channel]string{}
		}
		if entry.AssignedTarget != nil {
			p.AssignedTarget = *entry.AssignedTarget
		}
		roster[id] = p
	}
	return roster, nil
}

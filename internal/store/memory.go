package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/santa/internal/profile"
)

// Memory is an in-memory roster and run journal with the same semantics as
// Store. Profiles are copied on the way in and out, so callers never share
// state with it.
//
// The exported error fields let tests inject failures.
type Memory struct {
	mu     sync.Mutex
	roster map[string]profile.GiftProfile
	runs   []Run
	writes int64

	lockOwner   string
	lockExpires time.Time

	// WriteErr, if set, fails every roster write without changing anything.
	WriteErr error

	// JournalErr, if set, fails RecordRun.
	JournalErr error

	// GetErr maps participant ids to errors returned by Get.
	GetErr map[string]error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{roster: map[string]profile.GiftProfile{}}
}

// Upsert inserts or fully replaces a profile.
func (m *Memory) Upsert(_ context.Context, p profile.GiftProfile) error {
	if p.ParticipantID == "" {
		return fmt.Errorf("upsert: %w", profile.ErrMissingParticipant)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return fmt.Errorf("upsert %s: %w", p.ParticipantID, m.WriteErr)
	}
	m.roster[p.ParticipantID] = p.Clone()
	m.writes++
	return nil
}

// UpsertProfile stores p, keeping the participant's current assignment.
func (m *Memory) UpsertProfile(_ context.Context, p profile.GiftProfile) (profile.GiftProfile, error) {
	if p.ParticipantID == "" {
		return profile.GiftProfile{}, fmt.Errorf("upsert profile: %w", profile.ErrMissingParticipant)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return profile.GiftProfile{}, fmt.Errorf("upsert profile %s: %w", p.ParticipantID, m.WriteErr)
	}
	stored := keepAssignment(m.roster, p)
	m.writes++
	return stored, nil
}

// PutAll upserts every profile in one write.
func (m *Memory) PutAll(_ context.Context, profiles map[string]profile.GiftProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return fmt.Errorf("put all: %w", m.WriteErr)
	}
	for id, p := range profiles {
		p.ParticipantID = id
		m.roster[id] = p.Clone()
	}
	m.writes++
	return nil
}

// Get returns one profile or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (profile.GiftProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.GetErr[id]; ok {
		return profile.GiftProfile{}, fmt.Errorf("get %s: %w", id, err)
	}
	p, ok := m.roster[id]
	if !ok {
		return profile.GiftProfile{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// GetAll returns a copy of the roster.
func (m *Memory) GetAll(_ context.Context) (map[string]profile.GiftProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]profile.GiftProfile, len(m.roster))
	for id, p := range m.roster {
		out[id] = p.Clone()
	}
	return out, nil
}

// SetAssignment sets the target of one existing participant.
func (m *Memory) SetAssignment(ctx context.Context, id, target string) error {
	return m.SetAssignments(ctx, map[string]string{id: target})
}

// SetAssignments sets several targets atomically.
func (m *Memory) SetAssignments(_ context.Context, assignments map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return fmt.Errorf("set assignments: %w", m.WriteErr)
	}
	if err := applyAssignments(m.roster, assignments); err != nil {
		return fmt.Errorf("set assignments: %w", err)
	}
	m.writes++
	return nil
}

// RecordRun appends a run to the journal.
func (m *Memory) RecordRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.JournalErr != nil {
		return fmt.Errorf("record run: %w", m.JournalErr)
	}
	run.Deliveries = append([]Delivery(nil), run.Deliveries...)
	m.runs = append(m.runs, run)
	return nil
}

// AcquireRunLock takes the run lease like Store.AcquireRunLock.
func (m *Memory) AcquireRunLock(_ context.Context, owner string, now time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockOwner != "" && now.Before(m.lockExpires) {
		return ErrRunLocked
	}
	m.lockOwner = owner
	m.lockExpires = now.Add(ttl)
	return nil
}

// ReleaseRunLock drops the lease if owner still holds it.
func (m *Memory) ReleaseRunLock(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockOwner == owner {
		m.lockOwner = ""
	}
	return nil
}

// Runs returns the journal, oldest first.
func (m *Memory) Runs() []Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Run(nil), m.runs...)
}

// Writes returns the number of successful roster writes.
func (m *Memory) Writes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Drop removes a participant. Only tests use it; the exchange itself never
// deletes profiles.
func (m *Memory) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roster, id)
}

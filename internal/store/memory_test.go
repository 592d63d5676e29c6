package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RosterContract(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	all, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, m.Upsert(ctx, createTestProfile(t, "a", "A")))
	require.NoError(t, m.Upsert(ctx, createTestProfile(t, "b", "B")))
	require.NoError(t, m.SetAssignments(ctx, map[string]string{"a": "b", "b": "a"}))

	a, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "b", a.AssignedTarget)

	_, err = m.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.SetAssignment(ctx, "ghost", "a"), ErrNotFound)
	assert.Equal(t, int64(3), m.Writes())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, createTestProfile(t, "a", "A")))

	a, err := m.Get(ctx, "a")
	require.NoError(t, err)
	a.Pickup["ozon"] = "mutated"

	again, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ozon for A", again.PickupAt("ozon"))
}

func TestMemory_WriteErr(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, createTestProfile(t, "a", "A")))

	boom := errors.New("disk full")
	m.WriteErr = boom

	assert.ErrorIs(t, m.Upsert(ctx, createTestProfile(t, "b", "B")), boom)
	assert.ErrorIs(t, m.SetAssignment(ctx, "a", "a"), boom)

	all, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.False(t, all["a"].Assigned())
}

func TestMemory_GetErrAndJournal(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, createTestProfile(t, "a", "A")))

	boom := errors.New("io")
	m.GetErr = map[string]error{"a": boom}
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, boom)

	require.NoError(t, m.RecordRun(ctx, Run{ID: "r1"}))
	m.JournalErr = boom
	assert.ErrorIs(t, m.RecordRun(ctx, Run{ID: "r2"}), boom)
	assert.Len(t, m.Runs(), 1)
}

func TestMemory_Drop(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, createTestProfile(t, "a", "A")))
	m.Drop("a")
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_UpsertProfileKeepsAssignment(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.UpsertProfile(ctx, createTestProfile(t, "a", "A"))
	require.NoError(t, err)
	_, err = m.UpsertProfile(ctx, createTestProfile(t, "b", "B"))
	require.NoError(t, err)
	require.NoError(t, m.SetAssignments(ctx, map[string]string{"a": "b", "b": "a"}))

	stored, err := m.UpsertProfile(ctx, createTestProfile(t, "a", "Anna"))
	require.NoError(t, err)
	assert.Equal(t, "b", stored.AssignedTarget)
	assert.Equal(t, "Anna", stored.RecipientLabel)

	boom := errors.New("disk full")
	m.WriteErr = boom
	_, err = m.UpsertProfile(ctx, createTestProfile(t, "c", "C"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(4), m.Writes())
}

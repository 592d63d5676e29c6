package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lockEpoch = time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

func TestRunLock_SharedAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	serve, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { serve.Close() })
	cli, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { cli.Close() })
	ctx := context.Background()

	require.NoError(t, serve.AcquireRunLock(ctx, "serve", lockEpoch, time.Minute))
	assert.ErrorIs(t, cli.AcquireRunLock(ctx, "cli", lockEpoch.Add(time.Second), time.Minute), ErrRunLocked)

	// Only the holder releases.
	require.NoError(t, cli.ReleaseRunLock(ctx, "cli"))
	assert.ErrorIs(t, cli.AcquireRunLock(ctx, "cli", lockEpoch.Add(time.Second), time.Minute), ErrRunLocked)

	require.NoError(t, serve.ReleaseRunLock(ctx, "serve"))
	assert.NoError(t, cli.AcquireRunLock(ctx, "cli", lockEpoch.Add(time.Second), time.Minute))
}

func TestRunLock_ExpiredLeaseIsTakenOver(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AcquireRunLock(ctx, "crashed", lockEpoch, time.Minute))
	assert.ErrorIs(t, s.AcquireRunLock(ctx, "next", lockEpoch.Add(59*time.Second), time.Minute), ErrRunLocked)
	assert.NoError(t, s.AcquireRunLock(ctx, "next", lockEpoch.Add(time.Minute), time.Minute))

	// The stale owner's release leaves the new lease alone.
	require.NoError(t, s.ReleaseRunLock(ctx, "crashed"))
	assert.ErrorIs(t, s.AcquireRunLock(ctx, "third", lockEpoch.Add(90*time.Second), time.Minute), ErrRunLocked)
}

func TestMemory_RunLock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.AcquireRunLock(ctx, "a", lockEpoch, time.Minute))
	assert.ErrorIs(t, m.AcquireRunLock(ctx, "b", lockEpoch, time.Minute), ErrRunLocked)
	require.NoError(t, m.ReleaseRunLock(ctx, "b"))
	assert.ErrorIs(t, m.AcquireRunLock(ctx, "b", lockEpoch, time.Minute), ErrRunLocked)
	require.NoError(t, m.ReleaseRunLock(ctx, "a"))
	assert.NoError(t, m.AcquireRunLock(ctx, "b", lockEpoch, time.Minute))
	assert.NoError(t, m.AcquireRunLock(ctx, "c", lockEpoch.Add(time.Minute), time.Minute))
}

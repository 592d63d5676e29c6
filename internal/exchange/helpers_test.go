package exchange

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/santa/internal/profile"
	"github.com/roach88/santa/internal/store"
)

const operator = "op"

func testProfile(id string) profile.GiftProfile {
	return profile.GiftProfile{
		ParticipantID:  id,
		RecipientLabel: "label " + id,
		Pickup:         map[profile.Channel]string{profile.ChannelOzon: "ozon for " + id},
	}
}

// seedRoster registers ids through the orchestrator's own Register.
func seedRoster(t *testing.T, o *Orchestrator, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := o.Register(context.Background(), testProfile(id))
		require.NoError(t, err)
	}
}

// requireDerangement checks that the roster assignments form a bijection
// onto ids with no fixed point.
func requireDerangement(t *testing.T, mem *store.Memory, ids []string) map[string]string {
	t.Helper()
	all, err := mem.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, len(ids))

	assigned := make(map[string]string, len(all))
	targets := make(map[string]bool, len(all))
	for id, p := range all {
		require.NotEmpty(t, p.AssignedTarget, "participant %s has no target", id)
		require.NotEqual(t, id, p.AssignedTarget, "participant %s gives to themselves", id)
		_, ok := all[p.AssignedTarget]
		require.True(t, ok, "target %s of %s is not registered", p.AssignedTarget, id)
		require.False(t, targets[p.AssignedTarget], "target %s assigned twice", p.AssignedTarget)
		targets[p.AssignedTarget] = true
		assigned[id] = p.AssignedTarget
	}
	return assigned
}

func participantIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%03d", i)
	}
	return ids
}

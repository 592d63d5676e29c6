package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/santa/internal/metrics"
	"github.com/roach88/santa/internal/notify"
)

var (
	_ notify.Gateway    = (*Gateway)(nil)
	_ metrics.Collector = (*Metrics)(nil)
)

func TestGateway_RecordsAndFails(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway()
	boom := errors.New("boom")
	gw.Fail("B", boom)

	require.NoError(t, gw.Deliver(ctx, "A", notify.GiftMessage(notify.Attachment{URL: "u"}, "")))
	assert.ErrorIs(t, gw.Deliver(ctx, "B", notify.Message{Kind: notify.KindGift}), boom)

	calls := gw.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "A", calls[0].Participant)
	assert.Equal(t, "u", calls[0].Msg.Attachment.URL)
	assert.Equal(t, 1, gw.CallsTo("B"))

	gw.Fail("B", nil)
	assert.NoError(t, gw.Deliver(ctx, "B", notify.Message{}))

	gw.Reset()
	assert.Empty(t, gw.Calls())
}

func TestGateway_OnCall(t *testing.T) {
	gw := NewGateway()
	var seen []string
	gw.OnCall(func(p string) { seen = append(seen, p) })

	_ = gw.Deliver(context.Background(), "A", notify.Message{})
	_ = gw.Deliver(context.Background(), "B", notify.Message{})
	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestGateway_Concurrent(t *testing.T) {
	gw := NewGateway()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = gw.Deliver(context.Background(), "A", notify.Message{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, gw.CallsTo("A"))
}

func TestMetrics_Records(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(metrics.RunCompleted, 0.5)
	m.RecordDerangement(3, true)
	m.RecordDelivery("delivered")
	m.RecordDelivery("delivered")
	m.RecordForward(metrics.ForwardSent)
	m.SetParticipants(4)
	m.SetSessions(2)

	assert.Equal(t, []string{metrics.RunCompleted}, m.Runs)
	assert.Equal(t, 3, m.Trials)
	assert.True(t, m.Fallback)
	assert.Equal(t, 2, m.Deliveries["delivered"])
	assert.Equal(t, []string{metrics.ForwardSent}, m.Forwards)
	assert.Equal(t, 4, m.Participants)
	assert.Equal(t, 2, m.Sessions)
}

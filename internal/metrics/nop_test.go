package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNop(t *testing.T) {
	m := NewNop()

	require.NotNil(t, m)
	require.IsType(t, &NopMetrics{}, m)
}

func TestNopMetrics_DiscardsEverything(t *testing.T) {
	m := NewNop()

	require.NotPanics(t, func() {
		m.RecordRun(RunCompleted, 1.5)
		m.RecordRun("", -1)
		m.RecordDerangement(0, true)
		m.RecordDelivery("delivered")
		m.RecordForward(ForwardSent)
		m.SetParticipants(-3)
		m.SetSessions(0)
	})
}

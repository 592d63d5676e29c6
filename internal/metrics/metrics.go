// Package metrics records exchange activity.
//
// Collector is the hook the exchange and the hub report to. NewPrometheus
// backs it with client_golang; NewNop discards everything and is the default
// when no collector is configured.
package metrics

// Run results reported by RecordRun.
const (
	RunCompleted    = "completed"
	RunDenied       = "denied"
	RunInsufficient = "insufficient"
	RunBusy         = "busy"
	RunFailed       = "failed"
)

// Forward results reported by RecordForward.
const (
	ForwardSent        = "sent"
	ForwardIneligible  = "not_eligible"
	ForwardUnreachable = "unreachable"
	ForwardFailed      = "failed"
)

// Collector receives exchange measurements.
type Collector interface {
	// RecordRun counts one exchange attempt by result and observes how long it took.
	RecordRun(result string, seconds float64)

	// RecordDerangement observes how many shuffles a run needed and whether it
	// fell back to rotation.
	RecordDerangement(trials int, fallback bool)

	// RecordDelivery counts one fan-out attempt by outcome.
	RecordDelivery(outcome string)

	// RecordForward counts one direct transfer by result.
	RecordForward(result string)

	// SetParticipants sets the number of registered participants.
	SetParticipants(n int)

	// SetSessions sets the number of live hub sessions.
	SetSessions(n int)
}

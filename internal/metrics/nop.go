package metrics

// NopMetrics discards every measurement.
type NopMetrics struct{}

var _ Collector = (*NopMetrics)(nil)

// NewNop creates a no-op collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordRun discards the run metric.
func (n *NopMetrics) RecordRun(_ string, _ float64) {}

// RecordDerangement discards the derangement metric.
func (n *NopMetrics) RecordDerangement(_ int, _ bool) {}

// RecordDelivery discards the delivery metric.
func (n *NopMetrics) RecordDelivery(_ string) {}

// RecordForward discards the forward metric.
func (n *NopMetrics) RecordForward(_ string) {}

// SetParticipants discards the participant gauge.
func (n *NopMetrics) SetParticipants(_ int) {}

// SetSessions discards the session gauge.
func (n *NopMetrics) SetSessions(_ int) {}

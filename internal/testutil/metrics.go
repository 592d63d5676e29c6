package testutil

import "sync"

// Metrics implements metrics.Collector by remembering what it was told.
// Read the fields only after the code under test has returned.
type Metrics struct {
	mu           sync.Mutex
	Runs         []string
	Deliveries   map[string]int
	Forwards     []string
	Participants int
	Sessions     int
	Trials       int
	Fallback     bool
}

// NewMetrics returns an empty recorder.
func NewMetrics() *Metrics {
	return &Metrics{Deliveries: map[string]int{}}
}

func (m *Metrics) RecordRun(result string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, result)
}

func (m *Metrics) RecordDerangement(trials int, fallback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Trials, m.Fallback = trials, fallback
}

func (m *Metrics) RecordDelivery(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deliveries[outcome]++
}

func (m *Metrics) RecordForward(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Forwards = append(m.Forwards, result)
}

func (m *Metrics) SetParticipants(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Participants = n
}

func (m *Metrics) SetSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions = n
}

package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "santa"

// PrometheusCollector implements Collector backed by Prometheus. Metrics are
// created and registered on first use.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	trials       prometheus.Histogram
	fallbacks    *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
	forwards     *prometheus.CounterVec
	participants prometheus.Gauge
	sessions     prometheus.Gauge
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed collector. A nil reg uses
// prometheus.DefaultRegisterer; an empty namespace uses DefaultNamespace.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "runs_total",
			Help:      "Exchange attempts by result (completed, denied, insufficient, busy, failed).",
		}, []string{"result"})
		p.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "run_duration_seconds",
			Help:      "Wall time of exchange attempts in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		})
		p.trials = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "derangement_trials",
			Help:      "Random shuffles needed to find a derangement.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100, 200},
		})
		p.fallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "derangements_total",
			Help:      "Derangements by whether the rotation fallback was used.",
		}, []string{"fallback"})
		p.deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "deliveries_total",
			Help:      "Assignment notifications by outcome.",
		}, []string{"outcome"})
		p.forwards = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "forwards_total",
			Help:      "Direct transfers by result.",
		}, []string{"result"})
		p.participants = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "roster",
			Name:      "participants",
			Help:      "Registered participants.",
		})
		p.sessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "hub",
			Name:      "sessions",
			Help:      "Live websocket sessions.",
		})

		p.reg.MustRegister(p.runs)
		p.reg.MustRegister(p.runDuration)
		p.reg.MustRegister(p.trials)
		p.reg.MustRegister(p.fallbacks)
		p.reg.MustRegister(p.deliveries)
		p.reg.MustRegister(p.forwards)
		p.reg.MustRegister(p.participants)
		p.reg.MustRegister(p.sessions)
	})
}

// RecordRun counts a run and observes its duration.
func (p *PrometheusCollector) RecordRun(result string, seconds float64) {
	p.ensureRegistered()
	p.runs.WithLabelValues(result).Inc()
	p.runDuration.Observe(seconds)
}

// RecordDerangement observes trials and counts the fallback flag.
func (p *PrometheusCollector) RecordDerangement(trials int, fallback bool) {
	p.ensureRegistered()
	p.trials.Observe(float64(trials))
	p.fallbacks.WithLabelValues(strconv.FormatBool(fallback)).Inc()
}

// RecordDelivery counts a delivery outcome.
func (p *PrometheusCollector) RecordDelivery(outcome string) {
	p.ensureRegistered()
	p.deliveries.WithLabelValues(outcome).Inc()
}

// RecordForward counts a forward result.
func (p *PrometheusCollector) RecordForward(result string) {
	p.ensureRegistered()
	p.forwards.WithLabelValues(result).Inc()
}

// SetParticipants sets the participant gauge.
func (p *PrometheusCollector) SetParticipants(n int) {
	p.ensureRegistered()
	p.participants.Set(float64(n))
}

// SetSessions sets the session gauge.
func (p *PrometheusCollector) SetSessions(n int) {
	p.ensureRegistered()
	p.sessions.Set(float64(n))
}

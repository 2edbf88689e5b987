package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AccessDecisions   *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
	EnrollmentFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		AccessDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "toolgate_entitlement_decisions_total",
			Help: "Total access decisions by outcome reason",
		}, []string{"reason"}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "toolgate_entitlement_resolve_duration_ms",
			Help:    "Latency of capability resolution in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500},
		}),
		EnrollmentFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "toolgate_entitlement_enrollment_failures_total",
			Help: "Total enrollment provider failures handled fail-closed",
		}),
	}
}

func (m *Metrics) ObserveDecision(reason string) {
	m.AccessDecisions.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveResolveDuration(ms float64) {
	m.ResolveDuration.Observe(ms)
}

func (m *Metrics) IncrementEnrollmentFailures() {
	m.EnrollmentFailures.Inc()
}

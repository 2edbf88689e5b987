package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks learning-platform call latency per endpoint.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toolgate_enrollment_request_duration_ms",
		Help:    "Latency of learning platform requests in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"endpoint"})

	// RequestErrors counts failed learning-platform calls per endpoint.
	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgate_enrollment_request_errors_total",
		Help: "Failed learning platform requests",
	}, []string{"endpoint"})

	// BreakerTransitions counts circuit breaker open/close transitions.
	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgate_enrollment_breaker_transitions_total",
		Help: "Enrollment circuit breaker state transitions",
	}, []string{"state"})

	// CacheResults counts accessible-set cache hits and misses.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgate_enrollment_cache_results_total",
		Help: "Enrollment cache lookups by result",
	}, []string{"result"})
)

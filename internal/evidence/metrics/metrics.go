package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recorded counts evidence events by type and resulting level.
	Recorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgate_evidence_recorded_total",
		Help: "Evidence events recorded, by type and resulting level",
	}, []string{"type", "level"})

	// Failures counts evidence writes that did not persist.
	Failures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolgate_evidence_failures_total",
		Help: "Evidence events that failed to persist",
	})
)

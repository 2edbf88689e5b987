package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KnowledgeCompletions counts first-wins knowledge completions per category.
	KnowledgeCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolgate_competency_knowledge_completions_total",
		Help: "Category knowledge completions recorded (first completion only)",
	})

	// ProjectSaves counts capability project record increments.
	ProjectSaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolgate_competency_project_saves_total",
		Help: "Capability project saves recorded against linked categories",
	})

	// SnapshotComputeDuration tracks how long the live projection takes.
	SnapshotComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "toolgate_competency_snapshot_compute_duration_ms",
		Help:    "Latency of live skill snapshot computation in milliseconds",
		Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
	})
)

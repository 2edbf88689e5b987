package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Created counts issued verification snapshots.
	Created = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolgate_snapshots_created_total",
		Help: "Verification snapshots issued",
	})

	// Views counts public verification reads by outcome.
	Views = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolgate_snapshot_views_total",
		Help: "Public verification reads by outcome",
	}, []string{"outcome"})
)

package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	visitPlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visit_planner",
		Subsystem: "plans",
		Name:      "total",
		Help:      "Visit plans processed by the materializer, broken down by source and outcome.",
	}, []string{"source", "outcome"})

	importRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visit_planner",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Bulk import rows broken down by result.",
	}, []string{"result"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "visit_planner",
		Subsystem: "plans",
		Name:      "materialize_seconds",
		Help:      "Latency distribution of a single materialize call.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source"})
)

const (
	outcomeCreated = "created"
	outcomeSkipped = "skipped"

	rowResultSuccess = "success"
	rowResultFailed  = "failed"
)

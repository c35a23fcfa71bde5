package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_engine_runs_total",
			Help: "Total number of engine runs by outcome (success, partial, failed).",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_engine_run_duration_seconds",
			Help:    "Duration of engine runs in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	itemsUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_engine_items_updated_total",
			Help: "Total number of campaign prices written across all runs.",
		},
	)

	itemsClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_engine_items_cleared_total",
			Help: "Total number of expired campaign assignments cleared across all runs.",
		},
	)

	ruleErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_engine_rule_errors_total",
			Help: "Total number of rules whose evaluation failed.",
		},
	)
)

// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed cycles by outcome.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplychain_etl_cycles_total",
		Help: "Total number of ETL cycles by outcome",
	}, []string{"outcome"})

	// BatchesSwept counts batches moved from intake to the processed store.
	BatchesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplychain_etl_batches_swept_total",
		Help: "Total number of batches swept from intake",
	})

	// BatchesFailed counts per-batch failures across all stages.
	BatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplychain_etl_batches_failed_total",
		Help: "Total number of per-batch failures",
	})

	// RowsLoaded counts rows written into warehouse tables.
	RowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplychain_etl_rows_loaded_total",
		Help: "Total number of rows loaded into the warehouse",
	})

	// CycleDuration observes wall-clock duration of full cycles.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supplychain_etl_cycle_duration_seconds",
		Help:    "Duration of full Sweep-Load-Aggregate cycles",
		Buckets: prometheus.DefBuckets,
	})

	// LastCycleTimestamp records when the last cycle finished.
	LastCycleTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "supplychain_etl_last_cycle_timestamp_seconds",
		Help: "Unix timestamp of the last completed cycle",
	})
)

// Cycle outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

package domain

import "time"

// Pipeline stage names used in reports and failure records.
const (
	StageSweep     = "sweep"
	StageLoad      = "load"
	StageAggregate = "aggregate"
)

// SweepReport summarises one intake sweep.
type SweepReport struct {
	Swept    int            `json:"swept"`
	Failed   int            `json:"failed"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// LoadReport summarises one warehouse load pass.
type LoadReport struct {
	BatchesLoaded int            `json:"batches_loaded"`
	RowsLoaded    int            `json:"rows_loaded"`
	Failed        int            `json:"failed"`
	Failures      []BatchFailure `json:"failures,omitempty"`
}

// CycleReport is the structured result of one full Sweep→Load→Aggregate
// traversal, returned to whatever external driver triggered the cycle.
type CycleReport struct {
	RunID          string         `json:"run_id"`
	BatchesSwept   int            `json:"batches_swept"`
	BatchesFailed  int            `json:"batches_failed"`
	RowsLoaded     int            `json:"rows_loaded"`
	MetricsUpdated bool           `json:"metrics_updated"`
	Errors         []BatchFailure `json:"errors,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
}

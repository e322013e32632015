// Package service contains the cycle orchestrator: the single idempotent
// "run one cycle" operation external drivers trigger on any schedule.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/metrics"
)

// Sweeper runs one intake sweep.
type Sweeper interface {
	Run(ctx context.Context) (*domain.SweepReport, error)
}

// Loader runs one warehouse load pass.
type Loader interface {
	Run(ctx context.Context) (*domain.LoadReport, error)
}

// Aggregator recomputes the KPI snapshot.
type Aggregator interface {
	Run(ctx context.Context) (updated bool, err error)
}

// StorePinger checks that the durable store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Cycle states. One cycle traverses them in order and returns to idle.
const (
	stateIdle int32 = iota
	stateSweeping
	stateLoading
	stateAggregating
)

// Orchestrator runs Sweep → Load → Aggregate in order. It owns the
// lifecycle of a run; no state survives between invocations except what
// is durably persisted by the stages themselves.
type Orchestrator struct {
	store      StorePinger
	sweeper    Sweeper
	loader     Loader
	aggregator Aggregator
	log        logger.Logger

	state atomic.Int32
}

// NewOrchestrator wires the three stages over a shared store handle.
func NewOrchestrator(
	store StorePinger,
	sweeper Sweeper,
	loader Loader,
	aggregator Aggregator,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		sweeper:    sweeper,
		loader:     loader,
		aggregator: aggregator,
		log:        log,
	}
}

// RunCycle runs one full cycle and returns its structured report.
//
// Each stage runs to completion collecting its own failures before the
// next starts; partial failures never block later stages. Only two
// conditions abort: an unreachable store (fatal, nothing runs) and
// context cancellation. A concurrent RunCycle while one is in flight is
// refused with domain.ErrCycleInProgress — the warehouse tolerates one
// writer. Re-running with no new intake produces no new warehouse rows
// and identical metrics.
func (o *Orchestrator) RunCycle(ctx context.Context) (*domain.CycleReport, error) {
	if !o.state.CompareAndSwap(stateIdle, stateSweeping) {
		return nil, domain.ErrCycleInProgress
	}
	defer o.state.Store(stateIdle)

	report := &domain.CycleReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := o.log.With(logger.String("run_id", report.RunID))

	if pingErr := o.store.Ping(ctx); pingErr != nil {
		metrics.CyclesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, pingErr)
	}

	log.Info("Cycle started")

	sweepReport, sweepErr := o.sweeper.Run(ctx)
	if sweepReport != nil {
		report.BatchesSwept = sweepReport.Swept
		report.BatchesFailed += sweepReport.Failed
		report.Errors = append(report.Errors, sweepReport.Failures...)
	}
	if sweepErr != nil {
		if abortErr := o.recordStageError(ctx, report, domain.StageSweep, sweepErr); abortErr != nil {
			return report, abortErr
		}
	}

	o.state.Store(stateLoading)
	loadReport, loadErr := o.loader.Run(ctx)
	if loadReport != nil {
		report.RowsLoaded = loadReport.RowsLoaded
		report.BatchesFailed += loadReport.Failed
		report.Errors = append(report.Errors, loadReport.Failures...)
	}
	if loadErr != nil {
		if abortErr := o.recordStageError(ctx, report, domain.StageLoad, loadErr); abortErr != nil {
			return report, abortErr
		}
	}

	o.state.Store(stateAggregating)
	updated, aggErr := o.aggregator.Run(ctx)
	report.MetricsUpdated = updated
	if aggErr != nil {
		if abortErr := o.recordStageError(ctx, report, domain.StageAggregate, aggErr); abortErr != nil {
			return report, abortErr
		}
	}

	report.Duration = time.Since(report.StartedAt)
	o.observe(report)

	log.Info("Cycle complete",
		logger.Int("batches_swept", report.BatchesSwept),
		logger.Int("batches_failed", report.BatchesFailed),
		logger.Int("rows_loaded", report.RowsLoaded),
		logger.Bool("metrics_updated", report.MetricsUpdated),
		logger.Duration("duration", report.Duration),
	)

	return report, nil
}

// recordStageError folds a stage-level error into the report so later
// stages still run over whatever data successfully arrived. Context
// cancellation is the exception: it aborts the cycle.
func (o *Orchestrator) recordStageError(ctx context.Context, report *domain.CycleReport, stage string, stageErr error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	report.Errors = append(report.Errors, domain.BatchFailure{
		Stage:  stage,
		Reason: stageErr.Error(),
	})
	o.log.Error("Stage failed, continuing cycle",
		logger.String("stage", stage),
		logger.Error(stageErr),
	)

	return nil
}

func (o *Orchestrator) observe(report *domain.CycleReport) {
	outcome := metrics.OutcomeOK
	if len(report.Errors) > 0 {
		outcome = metrics.OutcomeError
	}

	metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	metrics.BatchesSwept.Add(float64(report.BatchesSwept))
	metrics.BatchesFailed.Add(float64(report.BatchesFailed))
	metrics.RowsLoaded.Add(float64(report.RowsLoaded))
	metrics.CycleDuration.Observe(report.Duration.Seconds())
	metrics.LastCycleTimestamp.SetToCurrentTime()
}

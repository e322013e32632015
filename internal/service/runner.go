package service

import (
	"context"
	"errors"
	"time"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

const defaultCycleInterval = 30 * time.Second

// CycleRunner is anything that can run one pipeline cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*domain.CycleReport, error)
}

// Runner triggers cycles on a fixed interval. It is the in-process
// stand-in for an external scheduler; the orchestrator itself stays a
// single idempotent operation.
type Runner struct {
	orchestrator CycleRunner
	interval     time.Duration
	log          logger.Logger
}

// NewRunner creates a periodic runner. A non-positive interval falls
// back to the default.
func NewRunner(orchestrator CycleRunner, interval time.Duration, log logger.Logger) *Runner {
	if interval <= 0 {
		interval = defaultCycleInterval
	}
	return &Runner{
		orchestrator: orchestrator,
		interval:     interval,
		log:          log,
	}
}

// Run blocks, running one cycle immediately and then one per tick until
// the context is cancelled. A tick that lands while a cycle is still in
// flight is skipped, never queued. An unreachable store stops the
// runner: nothing downstream can succeed until it is restored.
func (r *Runner) Run(ctx context.Context) {
	r.log.Info("Cycle runner starting", logger.Duration("interval", r.interval))

	if stop := r.runOnce(ctx); stop {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Cycle runner stopped")
			return
		case <-ticker.C:
			if stop := r.runOnce(ctx); stop {
				return
			}
		}
	}
}

// runOnce runs a single cycle and reports whether the runner should stop.
func (r *Runner) runOnce(ctx context.Context) bool {
	_, cycleErr := r.orchestrator.RunCycle(ctx)
	switch {
	case cycleErr == nil:
		return false
	case errors.Is(cycleErr, domain.ErrCycleInProgress):
		r.log.Warn("Previous cycle still running, skipping tick")
		return false
	case errors.Is(cycleErr, domain.ErrStoreUnavailable):
		r.log.Error("Warehouse unavailable, stopping runner", logger.Error(cycleErr))
		return true
	case errors.Is(cycleErr, context.Canceled), errors.Is(cycleErr, context.DeadlineExceeded):
		return true
	default:
		r.log.Error("Cycle failed", logger.Error(cycleErr))
		return false
	}
}

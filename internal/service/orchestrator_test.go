package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/service"
)

type mockPinger struct {
	err   error
	calls int
}

func (m *mockPinger) Ping(_ context.Context) error {
	m.calls++
	return m.err
}

type mockSweeper struct {
	report  *domain.SweepReport
	err     error
	started chan struct{}
	block   chan struct{}

	order *[]string
}

func (m *mockSweeper) Run(_ context.Context) (*domain.SweepReport, error) {
	if m.order != nil {
		*m.order = append(*m.order, "sweep")
	}
	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}
	if m.block != nil {
		<-m.block
	}
	return m.report, m.err
}

type mockLoader struct {
	report *domain.LoadReport
	err    error

	order *[]string
}

func (m *mockLoader) Run(_ context.Context) (*domain.LoadReport, error) {
	if m.order != nil {
		*m.order = append(*m.order, "load")
	}
	return m.report, m.err
}

type mockAggregator struct {
	updated bool
	err     error

	order *[]string
}

func (m *mockAggregator) Run(_ context.Context) (bool, error) {
	if m.order != nil {
		*m.order = append(*m.order, "aggregate")
	}
	return m.updated, m.err
}

func TestOrchestrator_RunsStagesInOrder(t *testing.T) {
	var order []string
	sweeper := &mockSweeper{report: &domain.SweepReport{Swept: 2}, order: &order}
	loader := &mockLoader{report: &domain.LoadReport{BatchesLoaded: 2, RowsLoaded: 10}, order: &order}
	agg := &mockAggregator{updated: true, order: &order}

	orch := service.NewOrchestrator(&mockPinger{}, sweeper, loader, agg, logger.NewNop())
	report, err := orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	want := []string{"sweep", "load", "aggregate"}
	if len(order) != len(want) {
		t.Fatalf("stage order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("stage[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	if report.RunID == "" {
		t.Error("report.RunID is empty")
	}
	if report.BatchesSwept != 2 {
		t.Errorf("report.BatchesSwept = %d, want 2", report.BatchesSwept)
	}
	if report.RowsLoaded != 10 {
		t.Errorf("report.RowsLoaded = %d, want 10", report.RowsLoaded)
	}
	if !report.MetricsUpdated {
		t.Error("report.MetricsUpdated = false, want true")
	}
	if len(report.Errors) != 0 {
		t.Errorf("report.Errors = %v, want none", report.Errors)
	}
}

func TestOrchestrator_RefusesOverlappingCycles(t *testing.T) {
	started := make(chan struct{}, 1)
	block := make(chan struct{})
	sweeper := &mockSweeper{report: &domain.SweepReport{}, started: started, block: block}

	orch := service.NewOrchestrator(
		&mockPinger{},
		sweeper,
		&mockLoader{report: &domain.LoadReport{}},
		&mockAggregator{},
		logger.NewNop(),
	)

	done := make(chan error, 1)
	go func() {
		_, runErr := orch.RunCycle(context.Background())
		done <- runErr
	}()

	// Only issue the overlapping request once the background cycle is
	// inside its sweep stage; the foreground caller must never be the
	// one that wins the race and parks on the blocking sweeper.
	<-started

	if _, overlapErr := orch.RunCycle(context.Background()); !errors.Is(overlapErr, domain.ErrCycleInProgress) {
		t.Fatalf("overlapping RunCycle() error = %v, want ErrCycleInProgress", overlapErr)
	}

	close(block)
	if runErr := <-done; runErr != nil {
		t.Fatalf("first cycle error = %v", runErr)
	}

	// The orchestrator is idle again and accepts a new cycle.
	if _, err := orch.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle after release error = %v", err)
	}
}

func TestOrchestrator_UnreachableStoreIsFatal(t *testing.T) {
	var order []string
	sweeper := &mockSweeper{report: &domain.SweepReport{}, order: &order}

	orch := service.NewOrchestrator(
		&mockPinger{err: errors.New("connection refused")},
		sweeper,
		&mockLoader{report: &domain.LoadReport{}},
		&mockAggregator{},
		logger.NewNop(),
	)

	report, err := orch.RunCycle(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("RunCycle() error = %v, want ErrStoreUnavailable", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
	if len(order) != 0 {
		t.Errorf("stages ran despite unreachable store: %v", order)
	}
}

func TestOrchestrator_StageErrorDoesNotBlockLaterStages(t *testing.T) {
	var order []string
	sweeper := &mockSweeper{err: errors.New("intake directory vanished"), order: &order}
	loader := &mockLoader{report: &domain.LoadReport{RowsLoaded: 3}, order: &order}
	agg := &mockAggregator{updated: true, order: &order}

	orch := service.NewOrchestrator(&mockPinger{}, sweeper, loader, agg, logger.NewNop())
	report, err := orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if len(order) != 3 {
		t.Fatalf("stage order = %v, want all three stages", order)
	}
	if report.RowsLoaded != 3 {
		t.Errorf("report.RowsLoaded = %d, want 3", report.RowsLoaded)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("report.Errors = %v, want one entry", report.Errors)
	}
	if report.Errors[0].Stage != domain.StageSweep {
		t.Errorf("failure stage = %q, want %q", report.Errors[0].Stage, domain.StageSweep)
	}
}

func TestOrchestrator_AggregatesPerBatchFailures(t *testing.T) {
	sweeper := &mockSweeper{report: &domain.SweepReport{
		Swept:    1,
		Failed:   1,
		Failures: []domain.BatchFailure{{Batch: "mystery.csv", Stage: domain.StageSweep, Reason: "unknown batch schema"}},
	}}
	loader := &mockLoader{report: &domain.LoadReport{
		BatchesLoaded: 1,
		RowsLoaded:    5,
		Failed:        1,
		Failures:      []domain.BatchFailure{{Batch: "cleaned_old.csv", Stage: domain.StageLoad, Reason: "schema mismatch"}},
	}}

	orch := service.NewOrchestrator(&mockPinger{}, sweeper, loader, &mockAggregator{updated: true}, logger.NewNop())
	report, err := orch.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if report.BatchesFailed != 2 {
		t.Errorf("report.BatchesFailed = %d, want 2", report.BatchesFailed)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("report.Errors = %v, want two entries", report.Errors)
	}
	if report.Errors[0].Batch != "mystery.csv" || report.Errors[1].Batch != "cleaned_old.csv" {
		t.Errorf("failure batches = %q, %q", report.Errors[0].Batch, report.Errors[1].Batch)
	}
}

func TestOrchestrator_CancellationAbortsCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var order []string
	sweeper := &mockSweeper{err: context.Canceled, order: &order}
	loader := &mockLoader{report: &domain.LoadReport{}, order: &order}

	orch := service.NewOrchestrator(&mockPinger{}, sweeper, loader, &mockAggregator{}, logger.NewNop())

	cancel()
	_, err := orch.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunCycle() error = %v, want context.Canceled", err)
	}

	for _, stage := range order {
		if stage == "load" || stage == "aggregate" {
			t.Errorf("stage %q ran after cancellation", stage)
		}
	}
}

package warehouse

import (
	"context"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/classifier"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

// ProcessedStore is the processed-store contract the loader consumes.
type ProcessedStore interface {
	List() ([]string, error)
	ReadBatch(name string) (*domain.Batch, error)
	Remove(name string) error
}

// LoaderRepository is the warehouse write surface the loader needs.
type LoaderRepository interface {
	UpsertOrders(ctx context.Context, rows []domain.OrderRow) (int, error)
	AppendDensity(ctx context.Context, rows []domain.DensityRow) (int, error)
}

// Loader appends every cleaned batch in the processed store into its
// kind-specific warehouse table.
type Loader struct {
	processed ProcessedStore
	repo      LoaderRepository
	retain    bool
	log       logger.Logger
}

// NewLoader creates a loader. With retain set, cleaned batches are kept
// in the processed store after loading instead of being removed.
func NewLoader(processed ProcessedStore, repo LoaderRepository, retain bool, log logger.Logger) *Loader {
	return &Loader{
		processed: processed,
		repo:      repo,
		retain:    retain,
		log:       log,
	}
}

// Run loads every cleaned batch currently in the processed store. Order
// rows are upserted by order_id; density rows are appended. A batch
// whose columns have drifted from its kind's table schema fails with a
// schema mismatch recorded in the report; the remaining batches continue
// loading. A cleaned batch is removed from the processed store only
// after its warehouse write has committed.
func (l *Loader) Run(ctx context.Context) (*domain.LoadReport, error) {
	names, listErr := l.processed.List()
	if listErr != nil {
		return nil, listErr
	}

	report := &domain.LoadReport{}
	for _, name := range names {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}

		loaded, loadErr := l.loadOne(ctx, name)
		if loadErr != nil {
			report.Failed++
			report.Failures = append(report.Failures, domain.BatchFailure{
				Batch:  name,
				Stage:  domain.StageLoad,
				Reason: loadErr.Error(),
			})
			l.log.Warn("Cleaned batch left in processed store for retry",
				logger.String("batch", name),
				logger.Error(loadErr),
			)
			continue
		}

		report.BatchesLoaded++
		report.RowsLoaded += loaded
	}

	l.log.Info("Load complete",
		logger.Int("batches", report.BatchesLoaded),
		logger.Int("rows", report.RowsLoaded),
		logger.Int("failed", report.Failed),
	)

	return report, nil
}

// loadOne loads a single cleaned batch and returns its row count.
func (l *Loader) loadOne(ctx context.Context, name string) (int, error) {
	batch, readErr := l.processed.ReadBatch(name)
	if readErr != nil {
		return 0, readErr
	}

	// Cleaned headers still carry the kind's identifying column, so the
	// same classifier resolves the target table.
	kind, classifyErr := classifier.Classify(batch.Header)
	if classifyErr != nil {
		return 0, classifyErr
	}

	if mismatch := checkSchema(kind, batch.Header); mismatch != nil {
		return 0, mismatch
	}

	var (
		loaded  int
		loadErr error
	)

	switch kind {
	case domain.KindOrderEvent:
		var orderRows []domain.OrderRow
		if orderRows, loadErr = domain.OrderRows(batch.Header, batch.Rows); loadErr == nil {
			loaded, loadErr = l.repo.UpsertOrders(ctx, orderRows)
		}
	case domain.KindDensityEvent:
		var densityRows []domain.DensityRow
		if densityRows, loadErr = domain.DensityRows(batch.Header, batch.Rows); loadErr == nil {
			loaded, loadErr = l.repo.AppendDensity(ctx, densityRows)
		}
	}
	if loadErr != nil {
		return 0, loadErr
	}

	if !l.retain {
		if removeErr := l.processed.Remove(name); removeErr != nil {
			// The warehouse write is committed; reloading this batch next
			// run is safe under the upsert semantics.
			l.log.Warn("Loaded batch could not be removed from processed store",
				logger.String("batch", name),
				logger.Error(removeErr),
			)
		}
	}

	l.log.Debug("Batch loaded",
		logger.String("batch", name),
		logger.String("kind", string(kind)),
		logger.Int("rows", loaded),
	)

	return loaded, nil
}

// checkSchema verifies that header carries exactly the columns the
// kind's warehouse table expects. Missing columns and unexpected extras
// both count as drift: a stray column means an upstream contract change
// that should be looked at, not silently dropped.
func checkSchema(kind domain.RecordKind, header []string) error {
	expected := make(map[string]bool, len(kind.CleanedColumns()))
	for _, col := range kind.CleanedColumns() {
		expected[col] = true
	}

	present := make(map[string]bool, len(header))
	var extra []string
	for _, col := range header {
		present[col] = true
		if !expected[col] {
			extra = append(extra, col)
		}
	}

	var missing []string
	for _, col := range kind.CleanedColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return &domain.SchemaMismatchError{Kind: kind, Missing: missing, Extra: extra}
	}

	return nil
}

// Package sweeper moves pending batches from the intake location to the
// processed store, classifying and cleaning each one on the way.
package sweeper

import (
	"context"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/classifier"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/cleaner"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

// IntakeStore is the intake location contract: listable batches that are
// removed only after their cleaned form has been durably relocated.
type IntakeStore interface {
	List() ([]string, error)
	ReadBatch(name string) (*domain.Batch, error)
	Remove(name string) error
}

// ProcessedStore is the durable destination for cleaned batches.
type ProcessedStore interface {
	WriteBatch(name string, header []string, rows [][]string) error
}

// Sweeper processes every batch pending at the intake location.
type Sweeper struct {
	intake    IntakeStore
	processed ProcessedStore
	log       logger.Logger
}

// New creates a sweeper over the given intake and processed stores.
func New(intake IntakeStore, processed ProcessedStore, log logger.Logger) *Sweeper {
	return &Sweeper{
		intake:    intake,
		processed: processed,
		log:       log,
	}
}

// Run lists the batches pending at intake (a snapshot: batches arriving
// mid-run are picked up on the next run) and processes each one
// independently: classify → clean → persist to processed → remove from
// intake.
//
// A batch that fails classification or cleaning is left in place at
// intake and recorded in the report; the sweep continues with the
// remaining batches. A batch is removed from intake only after its
// cleaned form is durably written, so a failed batch is retried on the
// next invocation (at-least-once, not exactly-once).
func (s *Sweeper) Run(ctx context.Context) (*domain.SweepReport, error) {
	names, listErr := s.intake.List()
	if listErr != nil {
		return nil, listErr
	}

	report := &domain.SweepReport{}
	for _, name := range names {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}

		if sweepErr := s.sweepOne(name); sweepErr != nil {
			report.Failed++
			report.Failures = append(report.Failures, domain.BatchFailure{
				Batch:  name,
				Stage:  domain.StageSweep,
				Reason: sweepErr.Error(),
			})
			s.log.Warn("Batch left at intake for retry",
				logger.String("batch", name),
				logger.Error(sweepErr),
			)
			continue
		}

		report.Swept++
	}

	s.log.Info("Sweep complete",
		logger.Int("swept", report.Swept),
		logger.Int("failed", report.Failed),
	)

	return report, nil
}

// sweepOne processes a single batch end to end.
func (s *Sweeper) sweepOne(name string) error {
	batch, readErr := s.intake.ReadBatch(name)
	if readErr != nil {
		return readErr
	}

	kind, classifyErr := classifier.Classify(batch.Header)
	if classifyErr != nil {
		return classifyErr
	}

	cleaned, cleanErr := cleaner.Clean(batch, kind)
	if cleanErr != nil {
		return cleanErr
	}

	if writeErr := s.processed.WriteBatch(cleaned.Name, cleaned.Header, cleaned.Rows); writeErr != nil {
		return writeErr
	}

	// The cleaned form is durable; a failure past this point means the
	// batch is reprocessed next run, which the loader's upsert absorbs.
	if removeErr := s.intake.Remove(name); removeErr != nil {
		s.log.Warn("Swept batch could not be removed from intake",
			logger.String("batch", name),
			logger.Error(removeErr),
		)
	}

	s.log.Debug("Batch swept",
		logger.String("batch", name),
		logger.String("kind", string(kind)),
		logger.Int("rows", len(cleaned.Rows)),
	)

	return nil
}

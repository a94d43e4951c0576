package supervisor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/quizwarden/internal/oracle"
	"github.com/abhisek/quizwarden/internal/store"
)

// Summary reports the outcome of one full validation run.
type Summary struct {
	// RunID correlates the summary with the oracle event log.
	RunID string

	// TotalRecords is the number of questions fetched for validation.
	TotalRecords int

	// BatchesProcessed counts every batch the run persisted verdicts
	// for, including batches that failed internally.
	BatchesProcessed int

	// BatchesFailed counts batches whose verdicts were synthesized
	// batch-wide with no oracle input (retry exhaustion or an unusable
	// response shape).
	BatchesFailed int

	// RepairedLegacy is the number of old rejected questions that got
	// the placeholder reason during the repair pass.
	RepairedLegacy int
}

// Service drives the validation pipeline: repair, fetch, plan, then
// grade/reconcile/persist batch by batch. Execution is deliberately
// sequential so the oracle call order stays deterministic for auditing
// and external rate limits are respected.
type Service struct {
	repo     store.QuestionRepo
	provider oracle.Provider
	cfg      Config
}

// NewService creates a validation pipeline service.
func NewService(repo store.QuestionRepo, provider oracle.Provider, cfg Config) *Service {
	return &Service{repo: repo, provider: provider, cfg: cfg}
}

// Run executes one full validation pass over every question in the
// repository. Previously approved questions are re-graded too: if
// upstream prompts or the oracle model changed, old verdicts may no
// longer hold, and a question can flip state in either direction.
//
// A batch that fails internally is filled with synthetic rejections and
// the run continues with the next batch. Only repository errors and
// context cancellation abort the run.
func (s *Service) Run(ctx context.Context, careful bool) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	ctx = oracle.WithPurpose(ctx, "validation")
	ctx = oracle.WithRunID(ctx, summary.RunID)

	repaired, err := s.RepairLegacyReasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("legacy repair: %w", err)
	}
	summary.RepairedLegacy = repaired

	questions, err := s.repo.FetchAllForValidation(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	summary.TotalRecords = len(questions)
	if len(questions) == 0 {
		return summary, nil
	}

	size := s.cfg.BatchSize
	if careful {
		size = s.cfg.CarefulBatchSize
		s.progressf("careful mode: grading in batches of %d", size)
	}

	batches := planBatches(questions, size)

	for i, batch := range batches {
		first := i*size + 1
		last := first + len(batch) - 1
		s.progressf("batch %d-%d of %d", first, last, len(questions))

		verdicts, failed, err := s.gradeWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i+1, err)
		}

		verdicts = reconcileVerdicts(verdicts)

		if err := s.repo.ApplyVerdicts(ctx, verdicts); err != nil {
			return nil, fmt.Errorf("persist batch %d: %w", i+1, err)
		}

		summary.BatchesProcessed++
		if failed {
			summary.BatchesFailed++
			s.progressf("  -> batch failed, synthetic rejections recorded")
		}
	}

	return summary, nil
}

// progressf writes a progress line when a Progress writer is configured.
func (s *Service) progressf(format string, args ...any) {
	if s.cfg.Progress == nil {
		return
	}
	fmt.Fprintf(s.cfg.Progress, format+"\n", args...)
}

package supervisor

import (
	"context"
	"fmt"
)

// legacyRepairReason is the placeholder written onto old rejected
// questions that predate reason tracking.
const legacyRepairReason = "Legacy rejection: reason not recorded. Re-validate for details."

// RepairLegacyReasons fixes rejected questions that carry no rejection
// reason, stamping the legacy placeholder on each. It runs at the start
// of every validation run, before any oracle calls, so downstream
// writes start from a consistent baseline. A later validation pass may
// overwrite the placeholder with a real verdict.
func (s *Service) RepairLegacyReasons(ctx context.Context) (int, error) {
	questions, err := s.repo.FetchRejectedMissingReason(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch rejected without reason: %w", err)
	}
	if len(questions) == 0 {
		return 0, nil
	}

	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	count, err := s.repo.ApplyRepairReason(ctx, ids, legacyRepairReason)
	if err != nil {
		return 0, fmt.Errorf("apply repair reason: %w", err)
	}
	return count, nil
}

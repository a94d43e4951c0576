package supervisor

import "github.com/abhisek/quizwarden/internal/store"

// reasonUnspecified is the fallback for an invalid verdict the oracle
// (or a degraded path) left without a reason.
const reasonUnspecified = "Rejected by supervisor for an unspecified critical error."

// reconcileVerdicts is the single enforcement point for the reason
// invariant before persistence, regardless of whether a verdict came
// from the oracle, a salvage path, or retry exhaustion: valid verdicts
// carry no reason, invalid verdicts always carry a non-empty one.
func reconcileVerdicts(verdicts []store.Verdict) []store.Verdict {
	out := make([]store.Verdict, len(verdicts))
	for i, v := range verdicts {
		if v.IsValid {
			v.RejectionReason = ""
		} else if v.RejectionReason == "" {
			v.RejectionReason = reasonUnspecified
		}
		out[i] = v
	}
	return out
}

package supervisor

import (
	"testing"

	"github.com/abhisek/quizwarden/internal/store"
)

func TestReconcile_ValidVerdictDropsReason(t *testing.T) {
	in := []store.Verdict{
		{QuestionID: 1, IsValid: true, RejectionReason: "stale reason from a previous run"},
	}
	out := reconcileVerdicts(in)
	if out[0].RejectionReason != "" {
		t.Errorf("reason not cleared: %q", out[0].RejectionReason)
	}
}

func TestReconcile_InvalidVerdictGetsFallbackReason(t *testing.T) {
	in := []store.Verdict{
		{QuestionID: 1, IsValid: false, RejectionReason: ""},
	}
	out := reconcileVerdicts(in)
	if out[0].RejectionReason != reasonUnspecified {
		t.Errorf("reason = %q", out[0].RejectionReason)
	}
}

func TestReconcile_InvalidVerdictKeepsRealReason(t *testing.T) {
	in := []store.Verdict{
		{QuestionID: 1, IsValid: false, RejectionReason: "stored answer is 7, correct is 9"},
	}
	out := reconcileVerdicts(in)
	if out[0].RejectionReason != "stored answer is 7, correct is 9" {
		t.Errorf("reason = %q", out[0].RejectionReason)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	in := []store.Verdict{
		{QuestionID: 1, IsValid: true, RejectionReason: "old"},
	}
	reconcileVerdicts(in)
	if in[0].RejectionReason != "old" {
		t.Errorf("input mutated: %+v", in[0])
	}
}

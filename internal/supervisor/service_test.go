package supervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/quizwarden/internal/oracle"
	"github.com/abhisek/quizwarden/internal/store"
)

func openTestRepo(t *testing.T) store.QuestionRepo {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "quizwarden.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.QuestionRepo()
}

func insertQuestions(t *testing.T, repo store.QuestionRepo, qs ...store.Question) []store.Question {
	t.Helper()
	out := make([]store.Question, len(qs))
	for i, q := range qs {
		if q.Text == "" {
			q.Text = "What is 2 + 2?"
		}
		if q.Answer == "" {
			q.Answer = "4"
		}
		if err := repo.Insert(context.Background(), &q); err != nil {
			t.Fatalf("insert question: %v", err)
		}
		out[i] = q
	}
	return out
}

// verdictReply builds a well-formed oracle reply. rejections maps a
// question ID to its rejection reason; every other ID is approved.
func verdictReply(ids []int, rejections map[int]string) json.RawMessage {
	results := make([]map[string]any, len(ids))
	for i, id := range ids {
		reason, rejected := rejections[id]
		r := map[string]any{"question_id": id, "is_valid": !rejected, "rejection_reason": nil}
		if rejected {
			r["rejection_reason"] = reason
		}
		results[i] = r
	}
	raw, _ := json.Marshal(map[string]any{"results": results})
	return raw
}

func stateByID(t *testing.T, repo store.QuestionRepo) map[int]store.Question {
	t.Helper()
	all, err := repo.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	out := make(map[int]store.Question, len(all))
	for _, q := range all {
		out[q.ID] = q
	}
	return out
}

func TestRun_ApprovesAndRejects(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo,
		store.Question{Topic: "algebra"},
		store.Question{Topic: "algebra"},
		store.Question{Topic: "geometry"},
	)

	mock := oracle.NewMockProvider(oracle.MockResponse{
		Content: verdictReply(
			[]int{qs[0].ID, qs[1].ID, qs[2].ID},
			map[int]string{qs[1].ID: "stored answer is 5, correct is 4"},
		),
	})
	svc := NewService(repo, mock, retryTestConfig())

	summary, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalRecords != 3 || summary.BatchesProcessed != 1 || summary.BatchesFailed != 0 {
		t.Errorf("summary: %+v", summary)
	}
	if summary.RunID == "" {
		t.Error("summary missing run ID")
	}

	got := stateByID(t, repo)
	if got[qs[0].ID].State != store.StateApproved || got[qs[0].ID].RejectionReason != "" {
		t.Errorf("question %d: %+v", qs[0].ID, got[qs[0].ID])
	}
	if got[qs[1].ID].State != store.StateRejected ||
		got[qs[1].ID].RejectionReason != "stored answer is 5, correct is 4" {
		t.Errorf("question %d: %+v", qs[1].ID, got[qs[1].ID])
	}
	if got[qs[2].ID].State != store.StateApproved {
		t.Errorf("question %d: %+v", qs[2].ID, got[qs[2].ID])
	}
}

func TestRun_RevalidationFlipsState(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo,
		store.Question{State: store.StateRejected, RejectionReason: "old verdict"},
		store.Question{State: store.StateApproved},
	)

	mock := oracle.NewMockProvider(oracle.MockResponse{
		Content: verdictReply(
			[]int{qs[0].ID, qs[1].ID},
			map[int]string{qs[1].ID: "the previously approved answer is wrong"},
		),
	})
	svc := NewService(repo, mock, retryTestConfig())

	if _, err := svc.Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := stateByID(t, repo)
	if got[qs[0].ID].State != store.StateApproved || got[qs[0].ID].RejectionReason != "" {
		t.Errorf("rejected question not restored: %+v", got[qs[0].ID])
	}
	if got[qs[1].ID].State != store.StateRejected {
		t.Errorf("approved question not demoted: %+v", got[qs[1].ID])
	}
}

func TestRun_BatchIsolation(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo,
		store.Question{}, store.Question{}, store.Question{}, store.Question{},
	)

	cfg := retryTestConfig()
	cfg.BatchSize = 2
	cfg.MaxRetries = 1

	// First batch gets an unusable reply; second batch succeeds.
	mock := oracle.NewMockProvider(
		oracle.MockResponse{Content: json.RawMessage(`"I validated the questions, all good"`)},
		oracle.MockResponse{Content: verdictReply([]int{qs[2].ID, qs[3].ID}, nil)},
	)
	svc := NewService(repo, mock, cfg)

	summary, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.BatchesProcessed != 2 || summary.BatchesFailed != 1 {
		t.Errorf("summary: %+v", summary)
	}

	got := stateByID(t, repo)
	for _, q := range qs[:2] {
		if got[q.ID].State != store.StateRejected || got[q.ID].RejectionReason != reasonIncompleteBatch {
			t.Errorf("failed-batch question %d: %+v", q.ID, got[q.ID])
		}
	}
	for _, q := range qs[2:] {
		if got[q.ID].State != store.StateApproved {
			t.Errorf("good-batch question %d: %+v", q.ID, got[q.ID])
		}
	}
}

func TestRun_CarefulModeUsesSmallerBatches(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo,
		store.Question{}, store.Question{}, store.Question{}, store.Question{},
	)

	cfg := retryTestConfig()
	cfg.BatchSize = 10
	cfg.CarefulBatchSize = 2

	mock := oracle.NewMockProvider(
		oracle.MockResponse{Content: verdictReply([]int{qs[0].ID, qs[1].ID}, nil)},
		oracle.MockResponse{Content: verdictReply([]int{qs[2].ID, qs[3].ID}, nil)},
	)
	svc := NewService(repo, mock, cfg)

	summary, err := svc.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("call count = %d, want 2", mock.CallCount())
	}
	if summary.BatchesProcessed != 2 {
		t.Errorf("summary: %+v", summary)
	}
}

func TestRun_EmptyRepository(t *testing.T) {
	repo := openTestRepo(t)
	mock := oracle.NewMockProvider()
	svc := NewService(repo, mock, retryTestConfig())

	summary, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalRecords != 0 || summary.BatchesProcessed != 0 {
		t.Errorf("summary: %+v", summary)
	}
	if mock.CallCount() != 0 {
		t.Errorf("oracle called %d times on an empty repository", mock.CallCount())
	}
}

func TestRun_MissingReasonGetsFallback(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo, store.Question{})

	// Oracle rejects but forgets the reason.
	raw, _ := json.Marshal(map[string]any{"results": []map[string]any{
		{"question_id": qs[0].ID, "is_valid": false, "rejection_reason": nil},
	}})
	mock := oracle.NewMockProvider(oracle.MockResponse{Content: raw})
	svc := NewService(repo, mock, retryTestConfig())

	if _, err := svc.Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := stateByID(t, repo)
	if got[qs[0].ID].RejectionReason != reasonUnspecified {
		t.Errorf("reason = %q", got[qs[0].ID].RejectionReason)
	}
}

func TestRun_ProgressOutput(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo, store.Question{}, store.Question{})

	var buf bytes.Buffer
	cfg := retryTestConfig()
	cfg.Progress = &buf

	mock := oracle.NewMockProvider(oracle.MockResponse{
		Content: verdictReply([]int{qs[0].ID, qs[1].ID}, nil),
	})
	svc := NewService(repo, mock, cfg)

	if _, err := svc.Run(context.Background(), false); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), "batch 1-2 of 2") {
		t.Errorf("progress output: %q", buf.String())
	}
}

func TestRepairLegacyReasons(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo,
		store.Question{State: store.StateRejected},
		store.Question{State: store.StateRejected},
		store.Question{State: store.StateRejected, RejectionReason: "already has one"},
		store.Question{State: store.StateApproved},
	)

	svc := NewService(repo, oracle.NewMockProvider(), retryTestConfig())
	count, err := svc.RepairLegacyReasons(context.Background())
	if err != nil {
		t.Fatalf("RepairLegacyReasons: %v", err)
	}
	if count != 2 {
		t.Errorf("repaired %d, want 2", count)
	}

	got := stateByID(t, repo)
	for _, q := range qs[:2] {
		if got[q.ID].RejectionReason != legacyRepairReason {
			t.Errorf("question %d reason = %q", q.ID, got[q.ID].RejectionReason)
		}
	}
	if got[qs[2].ID].RejectionReason != "already has one" {
		t.Errorf("existing reason clobbered: %q", got[qs[2].ID].RejectionReason)
	}
	if got[qs[3].ID].RejectionReason != "" {
		t.Errorf("approved question got a reason: %q", got[qs[3].ID].RejectionReason)
	}
}

func TestRun_CountsLegacyRepairs(t *testing.T) {
	repo := openTestRepo(t)
	qs := insertQuestions(t, repo,
		store.Question{State: store.StateRejected},
		store.Question{},
	)

	mock := oracle.NewMockProvider(oracle.MockResponse{
		Content: verdictReply([]int{qs[0].ID, qs[1].ID}, nil),
	})
	svc := NewService(repo, mock, retryTestConfig())

	summary, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RepairedLegacy != 1 {
		t.Errorf("RepairedLegacy = %d, want 1", summary.RepairedLegacy)
	}

	// The run then re-validated the repaired question and approved it.
	got := stateByID(t, repo)
	if got[qs[0].ID].State != store.StateApproved || got[qs[0].ID].RejectionReason != "" {
		t.Errorf("repaired question after run: %+v", got[qs[0].ID])
	}
}

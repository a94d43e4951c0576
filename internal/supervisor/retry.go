package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/quizwarden/internal/oracle"
	"github.com/abhisek/quizwarden/internal/store"
)

// gradeWithRetry calls the oracle for one batch with bounded retries
// and interprets the reply. It returns one verdict per question no
// matter what the oracle does; the only error it can return is context
// cancellation, which aborts the run.
//
// Retry policy: transport failures and undecodable bodies are retried
// up to MaxRetries attempts with linear backoff (RetryBackoff ×
// attempt). A reply that decodes but does not match the expected shape
// is NOT retried — resending the same prompt to an oracle that answers
// in the wrong format systematically is unproductive — and goes
// straight to shape salvage. failed reports that every verdict was
// synthesized without any oracle input.
func (s *Service) gradeWithRetry(ctx context.Context, batch []store.Question) (verdicts []store.Verdict, failed bool, err error) {
	userMsg, err := buildGradingMessage(batch)
	if err != nil {
		// Question data that cannot be serialized cannot be graded.
		return failBatch(batch, reasonIncompleteBatch), true, nil
	}

	req := oracle.Request{
		System: gradingSystemPrompt,
		Messages: []oracle.Message{
			{Role: oracle.RoleUser, Content: userMsg},
		},
		Schema:      VerdictBatchSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		resp, genErr := s.provider.Generate(ctx, req)
		if genErr == nil {
			v, matched := normalizeVerdicts(resp.Content, batch)
			return v, matched == 0, nil
		}

		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}

		// A decodable but off-schema reply is an oracle content
		// failure: salvage what is identifiable, never retry.
		var invResp *oracle.ErrInvalidResponse
		if errors.As(genErr, &invResp) && json.Valid(invResp.Content) {
			v, matched := normalizeVerdicts(invResp.Content, batch)
			return v, matched == 0, nil
		}

		// Truncation won't fix itself on an identical request.
		var maxTok *oracle.ErrMaxTokensExceeded
		if errors.As(genErr, &maxTok) {
			return failBatch(batch, reasonIncompleteBatch), true, nil
		}

		s.progressf("    attempt %d/%d failed: %v", attempt, s.cfg.MaxRetries, genErr)

		if attempt == s.cfg.MaxRetries {
			break
		}

		wait := s.cfg.RetryBackoff * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(wait):
		}
	}

	reason := fmt.Sprintf("Oracle call failed after %d attempts.", s.cfg.MaxRetries)
	return failBatch(batch, reason), true, nil
}

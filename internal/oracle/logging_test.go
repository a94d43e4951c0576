package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizwarden/internal/store"
)

// recordingEventRepo captures appended events in memory.
type recordingEventRepo struct {
	events []store.OracleEventData
	err    error
}

func (r *recordingEventRepo) AppendOracleRequest(_ context.Context, data store.OracleEventData) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, data)
	return nil
}

func (r *recordingEventRepo) QueryOracleEvents(context.Context, store.QueryOpts) ([]store.OracleEvent, error) {
	return nil, nil
}

func (r *recordingEventRepo) GetOracleEvent(context.Context, int) (*store.OracleEvent, error) {
	return nil, nil
}

func (r *recordingEventRepo) UsageByPurpose(context.Context) ([]store.PurposeUsage, error) {
	return nil, nil
}

func (r *recordingEventRepo) UsageByModel(context.Context) ([]store.ModelUsage, error) {
	return nil, nil
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 30},
	})
	repo := &recordingEventRepo{}
	p := WithLogging(mock, repo)

	ctx := WithRunID(WithPurpose(context.Background(), "validation"), "run-42")
	resp, err := p.Generate(ctx, Request{
		System:   "grade carefully",
		Messages: []Message{{Role: RoleUser, Content: "question payload"}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.Equal(t, "run-42", e.RunID)
	assert.Equal(t, "validation", e.Purpose)
	assert.True(t, e.Success)
	assert.Equal(t, 120, e.InputTokens)
	assert.Equal(t, 30, e.OutputTokens)
	assert.Contains(t, e.RequestBody, "[system]")
	assert.Contains(t, e.RequestBody, "question payload")
	assert.Equal(t, `{"ok":true}`, e.ResponseBody)
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Err: &ErrProviderUnavailable{Err: errors.New("502")},
	})
	repo := &recordingEventRepo{}
	p := WithLogging(mock, repo)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 1)
	e := repo.events[0]
	assert.False(t, e.Success)
	assert.NotEmpty(t, e.ErrorMessage)
}

func TestLoggingProvider_KeepsOffSchemaBody(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Err: &ErrInvalidResponse{
			Content: json.RawMessage(`{"question_id":1}`),
			Err:     errors.New("schema validation failed"),
		},
	})
	repo := &recordingEventRepo{}
	p := WithLogging(mock, repo)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 1)
	assert.Equal(t, `{"question_id":1}`, repo.events[0].ResponseBody)
}

func TestLoggingProvider_LogFailureDoesNotMaskResult(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	repo := &recordingEventRepo{err: errors.New("disk full")}
	p := WithLogging(mock, repo)

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

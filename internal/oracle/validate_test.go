package oracle

import (
	"encoding/json"
	"errors"
	"testing"
)

func verdictSchema() *Schema {
	return &Schema{
		Name:        "test-verdict",
		Description: "A single grading verdict",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question_id": map[string]any{"type": "integer"},
				"is_valid":    map[string]any{"type": "boolean"},
				"rejection_reason": map[string]any{
					"type": []any{"string", "null"},
				},
			},
			"required": []any{"question_id", "is_valid"},
		},
	}
}

func TestValidateResponse_Valid(t *testing.T) {
	raw := json.RawMessage(`{"question_id":7,"is_valid":true,"rejection_reason":null}`)
	if err := validateResponse(verdictSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_NullableReason(t *testing.T) {
	raw := json.RawMessage(`{"question_id":7,"is_valid":false,"rejection_reason":"computed 12, stored 15"}`)
	if err := validateResponse(verdictSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"question_id":7}`)
	err := validateResponse(verdictSchema(), raw)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
	// The raw content must survive for shape salvage downstream.
	if string(invErr.Content) != string(raw) {
		t.Fatalf("expected content preserved, got: %s", invErr.Content)
	}
}

func TestValidateResponse_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"question_id":"seven","is_valid":true}`)
	err := validateResponse(verdictSchema(), raw)
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	err := validateResponse(verdictSchema(), raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	if err := validateResponse(nil, raw); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_ArrayOfVerdicts(t *testing.T) {
	schema := &Schema{
		Name:        "test-verdict-list",
		Description: "Wrapped verdict list",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"results": map[string]any{
					"type":  "array",
					"items": verdictSchema().Definition,
				},
			},
			"required": []any{"results"},
		},
	}

	valid := json.RawMessage(`{"results":[{"question_id":1,"is_valid":true},{"question_id":2,"is_valid":false,"rejection_reason":"off by one"}]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"results":[{"is_valid":true}]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for verdict missing question_id")
	}
}

package oracle

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction over the external grading oracle.
// Consumers call Generate with a Request and receive structured JSON.
// The oracle is an unreliable collaborator: callers must be prepared
// for transport errors, truncation, and responses that do not match
// the requested schema.
type Provider interface {
	// Generate sends a prompt to the oracle and returns its reply.
	// The request's Schema field, when set, instructs the provider to
	// request JSON conforming to that schema and to validate the reply
	// against it. A validation failure is returned as
	// *ErrInvalidResponse with the raw content preserved so callers
	// can attempt salvage.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the oracle.
type Request struct {
	// System is the system prompt. Sets the oracle's role and constraints.
	System string

	// Messages is the conversation history. Grading is single-turn, so
	// this holds one user message in practice.
	Messages []Message

	// Schema is the JSON Schema the response should conform to.
	// When set, the provider uses its native structured output mechanism.
	// When nil, the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0. Grading runs
	// at 0.1 to keep verdicts reproducible.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the oracle.
type Schema struct {
	// Name identifies this schema (used as tool name for Anthropic,
	// schema name for OpenAI). Kebab-case, e.g. "verdict-batch".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the oracle to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the oracle's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in
	// the request, this is the validated JSON object.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

package supervisor

import "github.com/abhisek/quizwarden/internal/oracle"

// VerdictBatchSchema defines the JSON schema for grading responses: one
// verdict object per submitted question, wrapped under "results".
var VerdictBatchSchema = &oracle.Schema{
	Name:        "verdict-batch",
	Description: "Validity verdicts for a batch of quiz questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"results": map[string]any{
				"type":        "array",
				"description": "One verdict per submitted question, in any order",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id": map[string]any{
							"type":        "integer",
							"description": "The question_id the verdict applies to",
						},
						"is_valid": map[string]any{
							"type":        "boolean",
							"description": "Whether the stored answer is mathematically correct",
						},
						"rejection_reason": map[string]any{
							"type":        []any{"string", "null"},
							"description": "Required when is_valid is false: the computed correct value and the discrepancy. Null when valid.",
						},
					},
					"required":             []any{"question_id", "is_valid", "rejection_reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"results"},
		"additionalProperties": false,
	},
}

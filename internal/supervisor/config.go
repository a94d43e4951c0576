package supervisor

import (
	"io"
	"time"
)

// Config controls the behavior of the validation pipeline.
type Config struct {
	// BatchSize is the number of questions graded per oracle call.
	BatchSize int

	// CarefulBatchSize is used instead of BatchSize when careful mode
	// is requested. Smaller batches get more per-item attention from
	// the oracle at the cost of more calls.
	CarefulBatchSize int

	// MaxRetries is the number of oracle attempts per batch before the
	// batch is given up and filled with synthetic rejections.
	MaxRetries int

	// RetryBackoff is the base wait between transport-failure retries.
	// The wait grows linearly: RetryBackoff × attempt number.
	RetryBackoff time.Duration

	// MaxTokens is the token budget for one grading response.
	MaxTokens int

	// Temperature for grading. Kept low so verdicts are reproducible.
	Temperature float64

	// Progress, when set, receives human-readable per-batch progress
	// lines during a run.
	Progress io.Writer
}

// DefaultConfig returns a Config with the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:        10,
		CarefulBatchSize: 3,
		MaxRetries:       3,
		RetryBackoff:     5 * time.Second,
		MaxTokens:        4096,
		Temperature:      0.1,
	}
}

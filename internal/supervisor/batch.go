package supervisor

import "github.com/abhisek/quizwarden/internal/store"

// planBatches partitions questions into fixed-size batches, preserving
// the incoming order. The last batch may be smaller than size. Batches
// are immutable once planned; no reordering, no priority.
func planBatches(questions []store.Question, size int) [][]store.Question {
	if size <= 0 || len(questions) == 0 {
		return nil
	}

	batches := make([][]store.Question, 0, (len(questions)+size-1)/size)
	for start := 0; start < len(questions); start += size {
		end := start + size
		if end > len(questions) {
			end = len(questions)
		}
		batches = append(batches, questions[start:end])
	}
	return batches
}

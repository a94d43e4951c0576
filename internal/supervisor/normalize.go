package supervisor

import (
	"encoding/json"
	"sort"

	"github.com/abhisek/quizwarden/internal/store"
)

// Reasons stamped on synthetic verdicts. These end up in the persisted
// rejection_reason column, so they are written for a human reading the
// admin question list, not for the pipeline.
const (
	reasonPartialBatch    = "Oracle processed only part of the batch."
	reasonUnknownQuestion = "Oracle returned a verdict for an unknown question ID."
	reasonIncompleteBatch = "Incomplete or invalid batch response from oracle."
)

// normalizeVerdicts interprets an oracle reply of any shape and yields
// exactly one verdict per question in the batch, in batch order. It
// never fails; questions the reply does not cover get synthetic
// rejections. matched reports how many verdicts came from the oracle
// rather than being synthesized.
//
// Accepted shapes, in priority order:
//  1. {"results": [...]} with exactly one entry per question
//  2. a single bare verdict object (degraded single-item response)
//  3. an object with the verdict list under some other key, same count
//  4. a bare list, same count
//
// Anything else, or a recognized shape with the wrong count, fails the
// whole batch.
func normalizeVerdicts(raw json.RawMessage, batch []store.Question) (verdicts []store.Verdict, matched int) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return failBatch(batch, reasonIncompleteBatch), 0
	}

	switch v := payload.(type) {
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			if len(results) == len(batch) {
				return matchVerdicts(results, batch)
			}
			return failBatch(batch, reasonIncompleteBatch), 0
		}

		if _, ok := v["question_id"]; ok {
			return salvageSingle(v, batch)
		}

		if list, ok := firstListField(v); ok {
			if len(list) == len(batch) {
				return matchVerdicts(list, batch)
			}
			return failBatch(batch, reasonIncompleteBatch), 0
		}

		return failBatch(batch, reasonIncompleteBatch), 0

	case []any:
		if len(v) == len(batch) {
			return matchVerdicts(v, batch)
		}
		return failBatch(batch, reasonIncompleteBatch), 0

	default:
		return failBatch(batch, reasonIncompleteBatch), 0
	}
}

// matchVerdicts pairs oracle verdicts with batch questions by
// question_id, tolerating reordering. Verdicts for IDs outside the
// batch are discarded as noise; uncovered questions get synthetic
// rejections.
func matchVerdicts(results []any, batch []store.Question) ([]store.Verdict, int) {
	byID := make(map[int]store.Verdict, len(results))
	for _, r := range results {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		v, ok := parseVerdict(obj)
		if !ok {
			continue
		}
		// First verdict per ID wins; duplicates are noise.
		if _, seen := byID[v.QuestionID]; !seen {
			byID[v.QuestionID] = v
		}
	}

	verdicts := make([]store.Verdict, 0, len(batch))
	matched := 0
	for _, q := range batch {
		if v, ok := byID[q.ID]; ok {
			verdicts = append(verdicts, v)
			matched++
			continue
		}
		verdicts = append(verdicts, store.Verdict{
			QuestionID:      q.ID,
			IsValid:         false,
			RejectionReason: reasonPartialBatch,
		})
	}
	return verdicts, matched
}

// salvageSingle handles the degraded case of one bare verdict where a
// batch was expected: the matching question keeps the oracle's verdict
// and every other question is marked as unprocessed.
func salvageSingle(obj map[string]any, batch []store.Question) ([]store.Verdict, int) {
	v, ok := parseVerdict(obj)
	if !ok {
		return failBatch(batch, reasonIncompleteBatch), 0
	}

	found := false
	for _, q := range batch {
		if q.ID == v.QuestionID {
			found = true
			break
		}
	}
	if !found {
		return failBatch(batch, reasonUnknownQuestion), 0
	}

	verdicts := make([]store.Verdict, 0, len(batch))
	for _, q := range batch {
		if q.ID == v.QuestionID {
			verdicts = append(verdicts, v)
			continue
		}
		verdicts = append(verdicts, store.Verdict{
			QuestionID:      q.ID,
			IsValid:         false,
			RejectionReason: reasonPartialBatch,
		})
	}
	return verdicts, 1
}

// parseVerdict extracts a verdict from a decoded JSON object. The
// question_id must be a whole number; a missing validity flag counts
// as invalid, matching how the oracle omits it on rejections.
func parseVerdict(obj map[string]any) (store.Verdict, bool) {
	idVal, ok := obj["question_id"].(float64)
	if !ok || idVal != float64(int(idVal)) {
		return store.Verdict{}, false
	}

	v := store.Verdict{QuestionID: int(idVal)}
	if isValid, ok := obj["is_valid"].(bool); ok {
		v.IsValid = isValid
	}
	if reason, ok := obj["rejection_reason"].(string); ok {
		v.RejectionReason = reason
	}
	return v, true
}

// firstListField returns the value of the first field (in sorted key
// order, for determinism) whose value is a list.
func firstListField(obj map[string]any) ([]any, bool) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

// failBatch synthesizes one rejection per question with the given reason.
func failBatch(batch []store.Question, reason string) []store.Verdict {
	verdicts := make([]store.Verdict, len(batch))
	for i, q := range batch {
		verdicts[i] = store.Verdict{
			QuestionID:      q.ID,
			IsValid:         false,
			RejectionReason: reason,
		}
	}
	return verdicts
}

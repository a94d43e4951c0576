package supervisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/quizwarden/internal/store"
)

const gradingSystemPrompt = `You are a highly skilled IGCSE Mathematics examiner. You must be extremely careful with mathematical calculations and only reject questions with genuine errors. Always double-check your arithmetic before making decisions. Respond only in the specified JSON format.`

const gradingInstructions = `Your primary responsibility is to accurately validate mathematical questions and their stored answers.

For EACH question, follow this exact sequence:

STEP 1: UNDERSTAND THE QUESTION
- Read the question carefully and identify what is being asked.
- Note any given values, formulas, or constraints.

STEP 2: SOLVE INDEPENDENTLY
- Work through the problem step by step from first principles.
- Be extra careful with arithmetic, algebra, and unit conversions.

STEP 3: COMPARE WITH THE PROVIDED ANSWER
- Accept equivalent forms: 0.5 = 1/2 = 50%, and "x = 4" matches "4".
- Accept answers with or without units when the numerical value is correct.
- Do not reject decimal approximations of exact answers (0.33 for 1/3).

STEP 4: STRUCTURAL CHECK
- Multiple choice questions (style "mcq") must list their options.
- The question text must be clear and complete.

STEP 5: DOUBLE-CHECK BEFORE DECIDING
- If you are about to reject, re-solve the problem using a different method.
- Only reject if you are certain there is a genuine mathematical error.

When a question is invalid, the rejection reason must name the correct value you computed and the discrepancy, e.g. "Mathematical error: stored area is 15 cm^2, correct area is 12 cm^2 (4 x 3 = 12)".`

// promptItem is the wire form of one question in the grading request.
type promptItem struct {
	QuestionID     int      `json:"question_id"`
	Topic          string   `json:"topic"`
	Question       string   `json:"question"`
	Style          string   `json:"style"`
	Difficulty     string   `json:"difficulty"`
	Options        []string `json:"options"`
	ProvidedAnswer string   `json:"provided_answer"`
}

// buildGradingMessage serializes a batch into the user message sent to
// the oracle: the grading policy followed by the questions as JSON.
func buildGradingMessage(batch []store.Question) (string, error) {
	items := make([]promptItem, len(batch))
	for i, q := range batch {
		options := q.Options
		if options == nil {
			options = []string{}
		}
		items[i] = promptItem{
			QuestionID:     q.ID,
			Topic:          q.Topic,
			Question:       q.Text,
			Style:          q.Style,
			Difficulty:     q.Difficulty,
			Options:        options,
			ProvidedAnswer: q.Answer,
		}
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal batch items: %w", err)
	}

	var b strings.Builder
	b.WriteString(gradingInstructions)
	fmt.Fprintf(&b, "\n\nHere are %d questions to validate:\n", len(items))
	b.Write(payload)
	fmt.Fprintf(&b, "\n\nValidate exactly %d questions and return one result for each of them.\n", len(items))

	return b.String(), nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ApprovalState is the validation lifecycle state of a question.
// Questions are created pending by the generation process and move to
// approved or rejected only through the supervisor. A later run may
// flip the state again; the history is not append-only.
type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
	StateRejected ApprovalState = "rejected"
)

// Valid reports whether s is a known approval state.
func (s ApprovalState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

// Question is one curriculum question awaiting or holding a verdict.
type Question struct {
	ID         int
	Topic      string
	Text       string
	Options    []string // empty for non-multiple-choice styles
	Answer     string   // the answer currently stored for this question
	Difficulty string
	Style      string
	State      ApprovalState

	// RejectionReason is non-empty if and only if State is rejected.
	// Persisted as NULL when empty.
	RejectionReason string
}

// Verdict is the supervisor's decision for one question in one run.
type Verdict struct {
	QuestionID      int
	IsValid         bool
	RejectionReason string
}

// QuestionRepo is the narrow read/update contract the supervisor needs
// over the questions table.
type QuestionRepo interface {
	// FetchAllForValidation returns every question in stable ID order.
	// All questions are re-validated on every run, including previously
	// approved ones.
	FetchAllForValidation(ctx context.Context) ([]Question, error)

	// FetchRejectedMissingReason returns rejected questions whose
	// rejection reason is NULL or blank.
	FetchRejectedMissingReason(ctx context.Context) ([]Question, error)

	// ApplyRepairReason sets reason on the given questions and returns
	// the number of rows updated.
	ApplyRepairReason(ctx context.Context, ids []int, reason string) (int, error)

	// ApplyVerdicts persists a batch of verdicts in one transaction.
	// Either every verdict in the batch commits or none do.
	ApplyVerdicts(ctx context.Context, verdicts []Verdict) error

	// Insert stores a new question. A zero ID lets SQLite assign one;
	// the assigned ID is written back to q.
	Insert(ctx context.Context, q *Question) error

	// List returns questions filtered by state. An empty state returns
	// every question.
	List(ctx context.Context, state ApprovalState) ([]Question, error)
}

// questionRepo implements QuestionRepo over database/sql.
type questionRepo struct {
	db *sql.DB
}

const questionColumns = "id, topic, question, options, answer, difficulty, style, approval_state, rejection_reason"

func (r *questionRepo) FetchAllForValidation(ctx context.Context) ([]Question, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+questionColumns+" FROM questions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *questionRepo) FetchRejectedMissingReason(ctx context.Context) ([]Question, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+questionColumns+` FROM questions
		 WHERE approval_state = ? AND (rejection_reason IS NULL OR rejection_reason = '')
		 ORDER BY id`, StateRejected)
	if err != nil {
		return nil, fmt.Errorf("query rejected without reason: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *questionRepo) ApplyRepairReason(ctx context.Context, ids []int, reason string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin repair tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE questions SET rejection_reason = ? WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("prepare repair: %w", err)
	}
	defer stmt.Close()

	var count int
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, reason, id)
		if err != nil {
			return 0, fmt.Errorf("repair question %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		count += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit repair: %w", err)
	}
	return count, nil
}

func (r *questionRepo) ApplyVerdicts(ctx context.Context, verdicts []Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verdict tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"UPDATE questions SET approval_state = ?, rejection_reason = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("prepare verdict update: %w", err)
	}
	defer stmt.Close()

	for _, v := range verdicts {
		state := StateRejected
		reason := sql.NullString{String: v.RejectionReason, Valid: v.RejectionReason != ""}
		if v.IsValid {
			state = StateApproved
			reason = sql.NullString{}
		}
		if _, err := stmt.ExecContext(ctx, state, reason, v.QuestionID); err != nil {
			return fmt.Errorf("apply verdict for question %d: %w", v.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verdicts: %w", err)
	}
	return nil
}

func (r *questionRepo) Insert(ctx context.Context, q *Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	state := q.State
	if state == "" {
		state = StatePending
	}
	if !state.Valid() {
		return fmt.Errorf("invalid approval state %q", state)
	}

	reason := sql.NullString{String: q.RejectionReason, Valid: q.RejectionReason != ""}

	if q.ID != 0 {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO questions (id, topic, question, options, answer, difficulty, style, approval_state, rejection_reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.Topic, q.Text, string(opts), q.Answer, q.Difficulty, q.Style, state, reason)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", q.ID, err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO questions (topic, question, options, answer, difficulty, style, approval_state, rejection_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Topic, q.Text, string(opts), q.Answer, q.Difficulty, q.Style, state, reason)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	q.ID = int(id)
	return nil
}

func (r *questionRepo) List(ctx context.Context, state ApprovalState) ([]Question, error) {
	query := "SELECT " + questionColumns + " FROM questions"
	args := []any{}
	if state != "" {
		if !state.Valid() {
			return nil, fmt.Errorf("invalid approval state %q", state)
		}
		query += " WHERE approval_state = ?"
		args = append(args, state)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var out []Question
	for rows.Next() {
		var (
			q       Question
			optsRaw string
			state   string
			reason  sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.Topic, &q.Text, &optsRaw, &q.Answer,
			&q.Difficulty, &q.Style, &state, &reason); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}

		// Options were written by the generation process and may be
		// malformed; treat unparseable JSON as no options.
		if optsRaw != "" {
			if err := json.Unmarshal([]byte(optsRaw), &q.Options); err != nil {
				q.Options = nil
			}
		}

		q.State = ApprovalState(state)
		q.RejectionReason = reason.String
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

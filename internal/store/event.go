package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	RunID   string // filter to one validation run
	Purpose string // filter by purpose label
}

// OracleEventData captures one oracle API call for the audit log.
type OracleEventData struct {
	RunID        string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// OracleEvent is a persisted oracle call record.
type OracleEvent struct {
	ID        int
	Timestamp time.Time
	OracleEventData
}

// PurposeUsage aggregates token usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to the oracle call log.
type EventRepo interface {
	// AppendOracleRequest records an oracle API call event.
	AppendOracleRequest(ctx context.Context, data OracleEventData) error

	// QueryOracleEvents returns events newest-first.
	QueryOracleEvents(ctx context.Context, opts QueryOpts) ([]OracleEvent, error)

	// GetOracleEvent returns one event by ID, or nil if not found.
	GetOracleEvent(ctx context.Context, id int) (*OracleEvent, error)

	// UsageByPurpose aggregates calls and tokens per purpose label.
	UsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// UsageByModel aggregates calls and tokens per model.
	UsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// eventRepo implements EventRepo over database/sql.
type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendOracleRequest(ctx context.Context, data OracleEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oracle_events
		 (run_id, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, request_body, response_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		data.RunID, data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		boolToInt(data.Success), data.ErrorMessage, data.RequestBody, data.ResponseBody)
	if err != nil {
		return fmt.Errorf("append oracle event: %w", err)
	}
	return nil
}

const eventColumns = `id, timestamp, run_id, provider, model, purpose,
	input_tokens, output_tokens, latency_ms, success, error_message,
	request_body, response_body`

func (r *eventRepo) QueryOracleEvents(ctx context.Context, opts QueryOpts) ([]OracleEvent, error) {
	query := "SELECT " + eventColumns + " FROM oracle_events"
	var (
		conds []string
		args  []any
	)
	if opts.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if opts.Purpose != "" {
		conds = append(conds, "purpose = ?")
		args = append(args, opts.Purpose)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query oracle events: %w", err)
	}
	defer rows.Close()

	var out []OracleEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oracle events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) GetOracleEvent(ctx context.Context, id int) (*OracleEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM oracle_events WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get oracle event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanEvent(rows)
}

func (r *eventRepo) UsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT purpose, COUNT(*), SUM(input_tokens), SUM(output_tokens), CAST(AVG(latency_ms) AS INTEGER)
		 FROM oracle_events GROUP BY purpose ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var u PurposeUsage
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan purpose usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *eventRepo) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT model, COUNT(*), SUM(input_tokens), SUM(output_tokens)
		 FROM oracle_events GROUP BY model ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanEvent(rows *sql.Rows) (*OracleEvent, error) {
	var (
		e       OracleEvent
		success int
	)
	if err := rows.Scan(&e.ID, &e.Timestamp, &e.RunID, &e.Provider, &e.Model,
		&e.Purpose, &e.InputTokens, &e.OutputTokens, &e.LatencyMs,
		&success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody); err != nil {
		return nil, fmt.Errorf("scan oracle event: %w", err)
	}
	e.Success = success != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

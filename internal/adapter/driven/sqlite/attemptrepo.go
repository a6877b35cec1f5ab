package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/chatgeist/credkeeper/internal/domain/model"
	"github.com/chatgeist/credkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AttemptStore = (*AttemptRepo)(nil)

// AttemptRepo is the SQLite implementation of the AttemptStore port.
type AttemptRepo struct {
	db *DB
}

// NewAttemptRepo creates a new AttemptRepo.
func NewAttemptRepo(db *DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Record appends one refresh attempt.
func (r *AttemptRepo) Record(ctx context.Context, attempt model.RefreshAttempt) error {
	const query = `INSERT INTO refresh_attempts (occurred_at, outcome, strategy, time_left_ms, detail)
	               VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		attempt.OccurredAt.UTC().Format(time.RFC3339Nano),
		string(attempt.Outcome),
		attempt.Strategy,
		attempt.TimeLeft.Milliseconds(),
		attempt.Detail,
	)
	if err != nil {
		return fmt.Errorf("record refresh attempt: %w", err)
	}
	return nil
}

// Recent returns up to n attempts, newest first.
func (r *AttemptRepo) Recent(ctx context.Context, n int) ([]model.RefreshAttempt, error) {
	const query = `SELECT id, occurred_at, outcome, strategy, time_left_ms, detail
	               FROM refresh_attempts ORDER BY id DESC LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("list refresh attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.RefreshAttempt
	for rows.Next() {
		var a model.RefreshAttempt
		var occurredAt, outcome string
		var timeLeftMS int64
		if err := rows.Scan(&a.ID, &occurredAt, &outcome, &a.Strategy, &timeLeftMS, &a.Detail); err != nil {
			return nil, fmt.Errorf("scan refresh attempt: %w", err)
		}

		a.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at for attempt %d: %w", a.ID, err)
		}
		a.Outcome = model.RefreshOutcome(outcome)
		a.TimeLeft = time.Duration(timeLeftMS) * time.Millisecond

		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh attempts: %w", err)
	}

	return attempts, nil
}

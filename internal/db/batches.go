package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-pool/internal/types"
)

// BatchRun is the audit record of a finished screening batch
type BatchRun struct {
	ID              string           `json:"id"`
	State           types.BatchState `json:"state"`
	Total           int              `json:"total"`
	Succeeded       int              `json:"succeeded"`
	Failed          int              `json:"failed"`
	Pending         int              `json:"pending"`
	AlreadyScreened int              `json:"already_screened"`
	Message         string           `json:"message,omitempty"`
	FinishedAt      time.Time        `json:"finished_at"`
}

// NewBatchRun builds an audit record from a batch summary.
func NewBatchRun(id string, state types.BatchState, s types.BatchSummary, finishedAt time.Time) BatchRun {
	return BatchRun{
		ID:              id,
		State:           state,
		Total:           s.Total,
		Succeeded:       s.Succeeded,
		Failed:          s.Failed,
		Pending:         s.Pending,
		AlreadyScreened: s.AlreadyScreened,
		FinishedAt:      finishedAt,
	}
}

// RecordBatchRun stores or replaces a batch audit record
func (db *DB) RecordBatchRun(ctx context.Context, run BatchRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO batch_runs (id, state, total, succeeded, failed, pending, already_screened, message, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     state = $2, total = $3, succeeded = $4, failed = $5, pending = $6,
		     already_screened = $7, message = $8, finished_at = $9`,
		run.ID, string(run.State), run.Total, run.Succeeded, run.Failed, run.Pending,
		run.AlreadyScreened, run.Message, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record batch run %s: %w", run.ID, err)
	}
	return nil
}

// GetBatchRun retrieves a batch audit record by ID
func (db *DB) GetBatchRun(ctx context.Context, id string) (*BatchRun, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, state, total, succeeded, failed, pending, already_screened, message, finished_at
		 FROM batch_runs WHERE id = $1`, id)
	run, err := scanBatchRun(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch run: %w", err)
	}
	return &run, nil
}

// ListBatchRuns retrieves the most recent batch audit records
func (db *DB) ListBatchRuns(ctx context.Context, limit int) ([]BatchRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, state, total, succeeded, failed, pending, already_screened, message, finished_at
		 FROM batch_runs ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch runs: %w", err)
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		run, err := scanBatchRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanBatchRun(row pgx.Row) (BatchRun, error) {
	var run BatchRun
	var state string
	err := row.Scan(&run.ID, &state, &run.Total, &run.Succeeded, &run.Failed, &run.Pending,
		&run.AlreadyScreened, &run.Message, &run.FinishedAt)
	run.State = types.BatchState(state)
	return run, err
}

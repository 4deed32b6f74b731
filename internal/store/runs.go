package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("not found")

// Run is one tracked pricing or barometer execution.
type Run struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	TotalRows    int        `json:"total_rows"`
	Outputs      []string   `json:"outputs"`
	Warnings     int        `json:"warnings"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

type runRow struct {
	ID           string         `db:"id"`
	Kind         string         `db:"kind"`
	Status       string         `db:"status"`
	StartedAt    string         `db:"started_at"`
	CompletedAt  sql.NullString `db:"completed_at"`
	TotalRows    int            `db:"total_rows"`
	Outputs      string         `db:"outputs"`
	Warnings     int            `db:"warnings"`
	ErrorMessage string         `db:"error_message"`
}

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func toRunRow(r *Run) runRow {
	row := runRow{
		ID:           r.ID,
		Kind:         r.Kind,
		Status:       r.Status,
		StartedAt:    r.StartedAt.UTC().Format(timeLayout),
		TotalRows:    r.TotalRows,
		Outputs:      strings.Join(r.Outputs, "\n"),
		Warnings:     r.Warnings,
		ErrorMessage: r.ErrorMessage,
	}
	if r.CompletedAt != nil {
		row.CompletedAt = sql.NullString{String: r.CompletedAt.UTC().Format(timeLayout), Valid: true}
	}
	return row
}

func (row runRow) run() (*Run, error) {
	started, err := time.Parse(timeLayout, row.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("run %s has bad start time: %w", row.ID, err)
	}
	r := &Run{
		ID:           row.ID,
		Kind:         row.Kind,
		Status:       row.Status,
		StartedAt:    started,
		TotalRows:    row.TotalRows,
		Warnings:     row.Warnings,
		ErrorMessage: row.ErrorMessage,
	}
	if row.Outputs != "" {
		r.Outputs = strings.Split(row.Outputs, "\n")
	}
	if row.CompletedAt.Valid {
		done, err := time.Parse(timeLayout, row.CompletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("run %s has bad completion time: %w", row.ID, err)
		}
		r.CompletedAt = &done
	}
	return r, nil
}

// CreateRun inserts a new run record.
func (s *Store) CreateRun(ctx context.Context, r *Run) error {
	query := `
		INSERT INTO pipeline_runs (
			id, kind, status, started_at, completed_at,
			total_rows, outputs, warnings, error_message
		) VALUES (
			:id, :kind, :status, :started_at, :completed_at,
			:total_rows, :outputs, :warnings, :error_message
		)`
	if _, err := s.db.NamedExecContext(ctx, query, toRunRow(r)); err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return nil
}

// UpdateRun writes the mutable fields of an existing run.
func (s *Store) UpdateRun(ctx context.Context, r *Run) error {
	query := `
		UPDATE pipeline_runs
		SET status = :status, completed_at = :completed_at, total_rows = :total_rows,
		    outputs = :outputs, warnings = :warnings, error_message = :error_message
		WHERE id = :id`
	res, err := s.db.NamedExecContext(ctx, query, toRunRow(r))
	if err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("pipeline run %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM pipeline_runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pipeline run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline run: %w", err)
	}
	return row.run()
}

// ListRuns returns the most recent runs first, optionally of one kind.
func (s *Store) ListRuns(ctx context.Context, kind string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT * FROM pipeline_runs`
	var args []interface{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}
	runs := make([]*Run, 0, len(rows))
	for _, row := range rows {
		r, err := row.run()
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

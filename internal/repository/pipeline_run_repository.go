package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// PipelineRunRepository stores run summaries in the pipeline_run table.
type PipelineRunRepository struct {
	db *sql.DB
}

// NewPipelineRunRepository creates a new PipelineRunRepository with the provided database connection.
func NewPipelineRunRepository(db *sql.DB) *PipelineRunRepository {
	return &PipelineRunRepository{db: db}
}

// Insert records a finished run.
func (r *PipelineRunRepository) Insert(ctx context.Context, s model.RunSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pipeline_run (id, pipeline, run_trigger, retention_days, started_at, finished_at, success, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.RunID,
		s.Pipeline,
		s.Trigger,
		s.RetentionDays,
		s.StartedAt.UTC().Format(time.RFC3339Nano),
		s.FinishedAt.UTC().Format(time.RFC3339Nano),
		s.Success,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline_run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *PipelineRunRepository) List(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT summary FROM pipeline_run ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline_run table: %w", err)
	}
	defer rows.Close()

	runs := []model.RunSummary{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline_run table results: %w", err)
		}
		var s model.RunSummary
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("failed to decode run summary: %w", err)
		}
		runs = append(runs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pipeline_run table: %w", err)
	}
	return runs, nil
}

// Get returns one run by ID.
func (r *PipelineRunRepository) Get(ctx context.Context, id string) (model.RunSummary, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT summary FROM pipeline_run WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunSummary{}, apperrors.ErrPipelineRunNotFound
	}
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to query pipeline_run table: %w", err)
	}

	var s model.RunSummary
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return model.RunSummary{}, fmt.Errorf("failed to decode run summary: %w", err)
	}
	return s, nil
}

// internal/repository/job_repository.go
package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
)

// jobRepository implements JobRepository on Postgres
type jobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJobRepository creates a new Postgres job repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a finished job
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, kind, printer_id, transport_kind, bytes,
			status, error_message, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Kind, job.PrinterID, job.TransportKind, job.Bytes,
		job.Status, job.ErrorMessage, job.DurationMs, job.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create print job", zap.Error(err))
		return fmt.Errorf("failed to create print job: %w", err)
	}

	return nil
}

// ListRecent returns the newest jobs first
func (r *jobRepository) ListRecent(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	query := `
		SELECT id, kind, printer_id, transport_kind, bytes,
			   status, error_message, duration_ms, created_at
		FROM print_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PrintJob
	for rows.Next() {
		job := &model.PrintJob{}
		if err := rows.Scan(
			&job.ID, &job.Kind, &job.PrinterID, &job.TransportKind, &job.Bytes,
			&job.Status, &job.ErrorMessage, &job.DurationMs, &job.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print jobs: %w", err)
	}

	return jobs, nil
}

// internal/repository/interfaces.go
package repository

import (
	"context"

	"printer-service/internal/model"
)

// DefaultListLimit is used when a caller asks for no limit
const DefaultListLimit = 20

// MaxListLimit caps a single history page
const MaxListLimit = 200

// JobRepository defines print job history operations
type JobRepository interface {
	Create(ctx context.Context, job *model.PrintJob) error
	ListRecent(ctx context.Context, limit int) ([]*model.PrintJob, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

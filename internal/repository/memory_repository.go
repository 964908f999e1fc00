// internal/repository/memory_repository.go
package repository

import (
	"context"
	"sync"

	"printer-service/internal/model"
)

// memoryJobRepository keeps the last jobs in process when no database is
// configured. History is lost on restart.
type memoryJobRepository struct {
	mu       sync.Mutex
	jobs     []*model.PrintJob
	capacity int
}

// NewMemoryJobRepository keeps at most capacity jobs
func NewMemoryJobRepository(capacity int) JobRepository {
	if capacity <= 0 {
		capacity = MaxListLimit
	}
	return &memoryJobRepository{capacity: capacity}
}

func (r *memoryJobRepository) Create(_ context.Context, job *model.PrintJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *job
	r.jobs = append(r.jobs, &cp)
	if over := len(r.jobs) - r.capacity; over > 0 {
		r.jobs = append([]*model.PrintJob(nil), r.jobs[over:]...)
	}
	return nil
}

func (r *memoryJobRepository) ListRecent(_ context.Context, limit int) ([]*model.PrintJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit = clampLimit(limit)
	out := make([]*model.PrintJob, 0, limit)
	for i := len(r.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.jobs[i]
		out = append(out, &cp)
	}
	return out, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-service/internal/model"
)

func newJob(kind model.JobKind) *model.PrintJob {
	return &model.PrintJob{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    model.JobStatusSuccess,
		CreatedAt: time.Now(),
	}
}

func TestMemoryRepositoryNewestFirst(t *testing.T) {
	repo := NewMemoryJobRepository(10)
	ctx := context.Background()

	first, second := newJob(model.JobKindSale), newJob(model.JobKindReport)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	jobs, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestMemoryRepositoryCapacityAndLimit(t *testing.T) {
	repo := NewMemoryJobRepository(3)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		j := newJob(model.JobKindRaw)
		ids = append(ids, j.ID)
		require.NoError(t, repo.Create(ctx, j))
	}

	jobs, err := repo.ListRecent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, ids[4], jobs[0].ID)
	assert.Equal(t, ids[2], jobs[2].ID)

	jobs, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestMemoryRepositoryStoresCopies(t *testing.T) {
	repo := NewMemoryJobRepository(0)
	ctx := context.Background()

	j := newJob(model.JobKindSale)
	require.NoError(t, repo.Create(ctx, j))
	j.Status = model.JobStatusFailed

	jobs, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSuccess, jobs[0].Status)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, MaxListLimit, clampLimit(10_000))
	assert.Equal(t, 7, clampLimit(7))
}

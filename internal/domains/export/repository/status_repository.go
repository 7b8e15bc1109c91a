package repository

import (
	"context"
	"fmt"
	"time"

	"storybook-backend/internal/domains/export/model"
	"storybook-backend/pkg/cache"
)

const keyPrefix = "export:"

// StatusRepository - trạng thái export job nằm trong cache, hết hạn sau ttl.
// API và worker dùng chung redis nên đọc được trạng thái của nhau.
type StatusRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStatusRepository(c cache.Cache, ttl time.Duration) *StatusRepository {
	return &StatusRepository{cache: c, ttl: ttl}
}

func (r *StatusRepository) Save(ctx context.Context, job *model.ExportJob) error {
	job.UpdatedAt = time.Now().UTC()
	if err := r.cache.Set(ctx, keyPrefix+job.ID, job, r.ttl); err != nil {
		return fmt.Errorf("save export job %s: %w", job.ID, err)
	}
	return nil
}

func (r *StatusRepository) Get(ctx context.Context, id string) (*model.ExportJob, error) {
	var job model.ExportJob
	found, err := r.cache.Get(ctx, keyPrefix+id, &job)
	if err != nil {
		return nil, fmt.Errorf("load export job %s: %w", id, err)
	}
	if !found {
		return nil, model.ErrExportNotFound
	}
	return &job, nil
}

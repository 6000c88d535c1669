package job

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PostgresJobRepository struct {
	db *gorm.DB
}

func NewPostgresJobRepository(db *gorm.DB) (*PostgresJobRepository, error) {
	if err := db.AutoMigrate(&Job{}); err != nil {
		return nil, err
	}
	return &PostgresJobRepository{db: db}, nil
}

func (r *PostgresJobRepository) Create(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *PostgresJobRepository) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	result := r.db.WithContext(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &job, nil
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, id string, status JobStatus, err *string) error {
	updates := map[string]interface{}{
		"status": status,
		"error":  err,
	}
	if status.Terminal() {
		updates["completed_at"] = time.Now()
	}
	return r.update(ctx, id, updates)
}

func (r *PostgresJobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.update(ctx, id, map[string]interface{}{"progress": progress})
}

func (r *PostgresJobRepository) Complete(ctx context.Context, id string, result json.RawMessage) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":       JobStatusCompleted,
		"progress":     100,
		"result":       result,
		"completed_at": time.Now(),
	})
}

func (r *PostgresJobRepository) ListCompleted(ctx context.Context, taskType string, limit int) ([]Job, error) {
	var jobs []Job
	result := r.db.WithContext(ctx).
		Where("task_type = ? AND status = ? AND result IS NOT NULL", taskType, JobStatusCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (r *PostgresJobRepository) update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

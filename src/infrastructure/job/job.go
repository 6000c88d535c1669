package job

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

const (
	TaskTypeStoreCreation = "store_creation"
	TaskTypeProductEdit   = "product_edit"
)

var ErrJobNotFound = errors.New("job not found")

// Job represents a background store creation or product edit
type Job struct {
	ID          string          `json:"id" gorm:"primaryKey;type:text"`
	TaskType    string          `json:"task_type" gorm:"index"`
	Prompt      string          `json:"prompt"`
	ProductID   string          `json:"product_id,omitempty"`
	Status      JobStatus       `json:"status" gorm:"index"`
	Progress    int             `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty" gorm:"type:jsonb"`
	Error       *string         `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// JobRepository defines the interface for job persistence
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	UpdateStatus(ctx context.Context, id string, status JobStatus, err *string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, result json.RawMessage) error
	ListCompleted(ctx context.Context, taskType string, limit int) ([]Job, error)
}

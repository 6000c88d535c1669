package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// JobsTopic is the queue topic job messages are published on.
const JobsTopic = "jobs"

type JobService struct {
	publisher message.Publisher
	repo      JobRepository
	logger    watermill.LoggerAdapter
	executors map[string]Executor
}

type JobMessage struct {
	JobID    string `json:"job_id"`
	TaskType string `json:"task_type"`
}

func NewJobService(
	publisher message.Publisher,
	repo JobRepository,
	logger watermill.LoggerAdapter,
	executors ...Executor,
) *JobService {
	s := &JobService{
		publisher: publisher,
		repo:      repo,
		logger:    logger,
		executors: make(map[string]Executor, len(executors)),
	}
	for _, e := range executors {
		s.executors[e.TaskType()] = e
	}
	return s
}

// EnqueueJob creates a new job and publishes it to the message queue
func (s *JobService) EnqueueJob(ctx context.Context, taskType, prompt, productID string) (*Job, error) {
	if _, ok := s.executors[taskType]; !ok {
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}

	job := &Job{
		ID:        uuid.NewString(),
		TaskType:  taskType,
		Prompt:    prompt,
		ProductID: productID,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	msgPayload, err := json.Marshal(JobMessage{JobID: job.ID, TaskType: job.TaskType})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), msgPayload)
	if err := s.publisher.Publish(JobsTopic, msg); err != nil {
		return nil, fmt.Errorf("failed to publish job message: %w", err)
	}

	return job, nil
}

// GetJob returns the job with id, or ErrJobNotFound.
func (s *JobService) GetJob(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// RecentJobs returns the newest completed jobs of taskType.
func (s *JobService) RecentJobs(ctx context.Context, taskType string, limit int) ([]Job, error) {
	jobs, err := s.repo.ListCompleted(ctx, taskType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ProcessJobMessage processes a job message from the queue. A job that fails
// is recorded as failed and acked; only infrastructure errors are returned.
func (s *JobService) ProcessJobMessage(msg *message.Message) error {
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Payload, &jobMsg); err != nil {
		return fmt.Errorf("failed to unmarshal job message: %w", err)
	}

	ctx := msg.Context()

	job, err := s.repo.Get(ctx, jobMsg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", jobMsg.JobID)
	}
	if job.Status.Terminal() {
		s.logger.Info("Skipping finished job", watermill.LogFields{"job_id": job.ID, "status": job.Status})
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, JobStatusRunning, nil); err != nil {
		return fmt.Errorf("failed to update job status to running: %w", err)
	}

	result, err := s.processJob(ctx, job)
	if err != nil {
		errStr := err.Error()
		if updateErr := s.repo.UpdateStatus(ctx, job.ID, JobStatusFailed, &errStr); updateErr != nil {
			s.logger.Error("Failed to update job status to failed", updateErr, watermill.LogFields{
				"job_id": job.ID,
			})
			return updateErr
		}
		s.logger.Info("Job failed", watermill.LogFields{"job_id": job.ID, "error": errStr})
		return nil
	}

	if err := s.repo.Complete(ctx, job.ID, result); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}
	s.logger.Info("Job completed", watermill.LogFields{"job_id": job.ID, "task_type": job.TaskType})
	return nil
}

// processJob dispatches to the executor registered for the job's task type
func (s *JobService) processJob(ctx context.Context, job *Job) (json.RawMessage, error) {
	executor, ok := s.executors[job.TaskType]
	if !ok {
		return nil, fmt.Errorf("unknown task type: %s", job.TaskType)
	}

	report := func(progress int) error {
		s.logger.Debug("Job progress", watermill.LogFields{"job_id": job.ID, "progress": progress})
		return s.repo.UpdateProgress(ctx, job.ID, progress)
	}
	return executor.Execute(ctx, job, report)
}

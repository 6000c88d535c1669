package jobtrack

import (
	"context"

	"github.com/go-logr/logr"

	"storepilot/src/log"
)

// JobStarter issues the start-job request.
type JobStarter interface {
	StartJob(ctx context.Context, op Operation) (string, error)
}

// Backend is the job queue as seen from the front end.
type Backend interface {
	JobStarter
	StatusQuerier
}

// Submitter validates operations and starts backend jobs. It never retries.
type Submitter struct {
	starter JobStarter
	logger  logr.Logger
}

func NewSubmitter(starter JobStarter) *Submitter {
	return &Submitter{
		starter: starter,
		logger:  log.WithName("submitter"),
	}
}

// Submit starts a job for op and returns the backend's job id. Invalid input
// yields a *ValidationError without touching the backend; a failed request
// yields a *SubmissionError.
func (s *Submitter) Submit(ctx context.Context, op Operation) (string, error) {
	op = op.normalized()
	if err := validate(op); err != nil {
		s.logger.V(1).Info("Rejected operation", "operation", op.String(), "reason", err.Error())
		return "", err
	}

	id, err := s.starter.StartJob(ctx, op)
	if err != nil {
		subErr := newSubmissionError(err)
		s.logger.Error(err, "Failed to start job", "operation", op.String())
		return "", subErr
	}

	s.logger.Info("Job submitted", "operation", op.String(), "job_id", id)
	return id, nil
}

func validate(op Operation) error {
	switch op.Kind {
	case KindStoreCreation:
		if op.Prompt == "" {
			return &ValidationError{Field: "prompt", Message: "Please describe the store you want to create."}
		}
	case KindProductEdit:
		if op.ProductID == "" {
			return &ValidationError{Field: "product_id", Message: "Please choose a product to edit."}
		}
		if op.Prompt == "" {
			return &ValidationError{Field: "prompt", Message: "Please describe the changes you want to make."}
		}
	default:
		return &ValidationError{Field: "kind", Message: "Unknown operation: " + string(op.Kind)}
	}
	return nil
}

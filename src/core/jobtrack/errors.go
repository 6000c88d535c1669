package jobtrack

import (
	"errors"
	"fmt"
)

var (
	ErrJobInFlight = errors.New("a job of this kind is already in progress")
	ErrPollTimeout = errors.New("job did not reach a terminal state in time")
)

const (
	genericSubmissionMessage = "Failed to start the job. Please try again."
	genericFailureMessage    = "The job failed without an error message."
	monitoringFailureMessage = "Lost track of the job's progress. Please check again later."
)

// ValidationError is returned for input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// APIError is a non-success response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// SubmissionError is returned when a start-job request fails.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// newSubmissionError prefers the backend-provided message over the generic one.
func newSubmissionError(err error) *SubmissionError {
	msg := genericSubmissionMessage
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &SubmissionError{Message: msg, Err: err}
}

// PollingError ends a poll that could not read the job status.
type PollingError struct {
	JobID string
	Err   error
}

func (e *PollingError) Error() string {
	return fmt.Sprintf("polling job %s: %v", e.JobID, e.Err)
}

func (e *PollingError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user for a polling error.
func (e *PollingError) UserMessage() string {
	return monitoringFailureMessage
}

// JobFailure describes a job the backend reported as failed.
type JobFailure struct {
	JobID   string
	Message string
}

func (e *JobFailure) Error() string {
	return e.Message
}

func newJobFailure(job *Job) *JobFailure {
	msg := job.Error
	if msg == "" {
		msg = genericFailureMessage
	}
	return &JobFailure{JobID: job.ID, Message: msg}
}

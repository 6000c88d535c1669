package console

import (
	"context"
	"errors"
	"sync"

	"storepilot/src/core/jobtrack"
)

// Tracker wraps a Handler and records the outcome of the job it handles,
// so a command can wait for it.
type Tracker struct {
	jobtrack.Handler

	once sync.Once
	done chan struct{}
	err  error
}

func Track(h jobtrack.Handler) *Tracker {
	return &Tracker{Handler: h, done: make(chan struct{})}
}

func (t *Tracker) Rejected(n jobtrack.Notification) {
	t.Handler.Rejected(n)
	t.finish(errors.New(n.Message))
}

func (t *Tracker) Completed(ctx context.Context, job *jobtrack.Job) {
	t.Handler.Completed(ctx, job)
	t.finish(nil)
}

func (t *Tracker) Failed(ctx context.Context, job *jobtrack.Job, failure *jobtrack.JobFailure) {
	t.Handler.Failed(ctx, job, failure)
	t.finish(failure)
}

func (t *Tracker) Errored(ctx context.Context, err *jobtrack.PollingError) {
	t.Handler.Errored(ctx, err)
	t.finish(err)
}

// Done is closed once the job has an outcome.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Err is the outcome, nil for a completed job. Only valid after Done.
func (t *Tracker) Err() error {
	<-t.done
	return t.err
}

func (t *Tracker) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

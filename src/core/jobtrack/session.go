package jobtrack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"storepilot/src/log"
)

// Session is the front end's context object. It owns at most one active poll
// per job kind and routes each job's events to that kind's Handler.
type Session struct {
	submitter *Submitter
	poller    *Poller
	handlers  map[JobKind]Handler
	logger    logr.Logger

	mu     sync.Mutex
	busy   map[JobKind]bool
	active map[JobKind]*PollHandle
}

func NewSession(submitter *Submitter, poller *Poller, handlers map[JobKind]Handler) *Session {
	return &Session{
		submitter: submitter,
		poller:    poller,
		handlers:  handlers,
		logger:    log.WithName("session"),
		busy:      make(map[JobKind]bool),
		active:    make(map[JobKind]*PollHandle),
	}
}

// CreateStore submits a store-creation prompt and starts tracking it.
func (s *Session) CreateStore(ctx context.Context, prompt string) (*PollHandle, error) {
	return s.Start(ctx, Operation{Kind: KindStoreCreation, Prompt: prompt})
}

// EditProduct submits a product change description and starts tracking it.
func (s *Session) EditProduct(ctx context.Context, productID, prompt string) (*PollHandle, error) {
	return s.Start(ctx, Operation{Kind: KindProductEdit, ProductID: productID, Prompt: prompt})
}

// Start validates and submits op, then polls the resulting job. Validation
// and submission errors are reported to the kind's handler and returned.
func (s *Session) Start(ctx context.Context, op Operation) (*PollHandle, error) {
	handler, ok := s.handlers[op.Kind]
	if !ok {
		return nil, fmt.Errorf("no handler registered for %s", op.Kind)
	}

	if err := validate(op.normalized()); err != nil {
		handler.Rejected(Notification{Level: LevelWarning, Message: err.Error()})
		return nil, err
	}

	if !s.reserve(op.Kind) {
		return nil, ErrJobInFlight
	}

	handler.Submitting()
	id, err := s.submitter.Submit(ctx, op)
	if err != nil {
		s.release(op.Kind, "")
		msg := err.Error()
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			msg = subErr.Message
		}
		handler.Rejected(Notification{Level: LevelError, Message: msg})
		return nil, err
	}

	h := s.poller.Start(ctx, id, op.Kind, s.observer(ctx, op.Kind, id, handler))

	s.mu.Lock()
	if h.Active() {
		s.active[op.Kind] = h
	}
	s.mu.Unlock()
	return h, nil
}

// Active returns the in-flight handle for kind, if any.
func (s *Session) Active(kind JobKind) (*PollHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.active[kind]
	return h, ok
}

// Cancel stops tracking the in-flight job of kind. The backend job itself
// keeps running.
func (s *Session) Cancel(kind JobKind) {
	s.mu.Lock()
	h := s.active[kind]
	delete(s.active, kind)
	delete(s.busy, kind)
	s.mu.Unlock()

	if h != nil {
		h.Cancel()
		s.logger.Info("Stopped tracking job", "kind", kind, "job_id", h.JobID())
	}
}

func (s *Session) observer(ctx context.Context, kind JobKind, id string, handler Handler) Observer {
	return Observer{
		OnProgress: handler.Progress,
		OnCompleted: func(job *Job) {
			s.release(kind, id)
			handler.Completed(ctx, job)
		},
		OnFailed: func(job *Job, failure *JobFailure) {
			s.release(kind, id)
			handler.Failed(ctx, job, failure)
		},
		OnError: func(err *PollingError) {
			s.release(kind, id)
			handler.Errored(ctx, err)
		},
	}
}

func (s *Session) reserve(kind JobKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[kind] {
		return false
	}
	s.busy[kind] = true
	return true
}

// release frees kind unless a newer job has taken its slot.
func (s *Session) release(kind JobKind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.active[kind]; ok && id != "" && h.JobID() != id {
		return
	}
	delete(s.active, kind)
	delete(s.busy, kind)
}

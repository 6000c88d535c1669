package jobtrack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"storepilot/src/log"
)

const DefaultPollInterval = 2 * time.Second

// StatusQuerier reads the current state of a backend job.
type StatusQuerier interface {
	JobStatus(ctx context.Context, id string) (*Job, error)
}

// Observer receives poll events. Exactly one of OnCompleted, OnFailed or
// OnError is called per handle, and none of them after Cancel.
type Observer struct {
	OnProgress  func(Progress)
	OnCompleted func(job *Job)
	OnFailed    func(job *Job, failure *JobFailure)
	OnError     func(err *PollingError)
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxDuration ends a poll with ErrPollTimeout once a job has been
// tracked for longer than d. Zero disables the limit.
func WithMaxDuration(d time.Duration) PollerOption {
	return func(p *Poller) { p.maxDuration = d }
}

func WithScheduler(s Scheduler) PollerOption {
	return func(p *Poller) { p.scheduler = s }
}

func WithLogger(l logr.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// Poller starts status polling loops. It knows nothing about job kinds beyond
// passing them to PhaseText.
type Poller struct {
	querier     StatusQuerier
	scheduler   Scheduler
	interval    time.Duration
	maxDuration time.Duration
	logger      logr.Logger
}

func NewPoller(querier StatusQuerier, opts ...PollerOption) *Poller {
	p := &Poller{
		querier:   querier,
		scheduler: SystemScheduler,
		interval:  DefaultPollInterval,
		logger:    log.WithName("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling jobID and returns its handle. The first query is
// issued one interval after Start.
func (p *Poller) Start(ctx context.Context, jobID string, kind JobKind, obs Observer) *PollHandle {
	h := &PollHandle{
		poller:    p,
		ctx:       ctx,
		jobID:     jobID,
		kind:      kind,
		obs:       obs,
		state:     StatePending,
		active:    true,
		startedAt: p.scheduler.Now(),
		logger:    p.logger.WithValues("job_id", jobID, "kind", kind),
	}

	h.mu.Lock()
	h.scheduleLocked()
	h.mu.Unlock()

	h.logger.V(1).Info("Polling started", "interval", p.interval.String())
	return h
}

// State is the local view of a polled job.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
	StateErrored
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PollHandle is the cancellable polling loop for one job.
type PollHandle struct {
	poller    *Poller
	ctx       context.Context
	jobID     string
	kind      JobKind
	obs       Observer
	startedAt time.Time
	logger    logr.Logger

	mu       sync.Mutex
	state    State
	active   bool
	timer    Timer
	progress int
}

func (h *PollHandle) JobID() string { return h.jobID }

func (h *PollHandle) Kind() JobKind { return h.kind }

func (h *PollHandle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *PollHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Cancel stops polling. It is a no-op once the handle is inactive. A query
// already in flight completes but its result is dropped.
func (h *PollHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return
	}
	h.releaseLocked(StateCancelled)
	h.logger.V(1).Info("Polling cancelled")
}

func (h *PollHandle) scheduleLocked() {
	h.timer = h.poller.scheduler.AfterFunc(h.poller.interval, h.poll)
}

func (h *PollHandle) releaseLocked(final State) {
	h.active = false
	h.state = final
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *PollHandle) poll() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.timer = nil
	h.mu.Unlock()

	job, err := h.poller.querier.JobStatus(h.ctx, h.jobID)
	if err == nil && job == nil {
		err = errors.New("empty status response")
	}

	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		h.logger.V(1).Info("Discarding status of cancelled poll")
		return
	}

	if err != nil {
		h.releaseLocked(StateErrored)
		h.mu.Unlock()
		h.fail(err)
		return
	}

	percent := h.observeLocked(job.Progress)
	progress := Progress{
		JobID:   h.jobID,
		Kind:    h.kind,
		Status:  job.Status,
		Percent: percent,
		Phase:   PhaseText(h.kind, percent),
	}

	switch job.Status {
	case StatusCompleted:
		h.releaseLocked(StateCompleted)
		h.mu.Unlock()
		h.emitProgress(progress)
		h.logger.Info("Job completed")
		if h.obs.OnCompleted != nil {
			h.obs.OnCompleted(job)
		}
	case StatusFailed:
		h.releaseLocked(StateFailed)
		h.mu.Unlock()
		h.emitProgress(progress)
		failure := newJobFailure(job)
		h.logger.Info("Job failed", "error", failure.Message)
		if h.obs.OnFailed != nil {
			h.obs.OnFailed(job, failure)
		}
	case StatusPending, StatusRunning:
		if h.expiredLocked() {
			h.releaseLocked(StateErrored)
			h.mu.Unlock()
			h.emitProgress(progress)
			h.fail(ErrPollTimeout)
			return
		}
		if job.Status == StatusRunning {
			h.state = StateRunning
		}
		h.scheduleLocked()
		h.mu.Unlock()
		h.emitProgress(progress)
	default:
		h.releaseLocked(StateErrored)
		h.mu.Unlock()
		h.fail(fmt.Errorf("unexpected job status %q", job.Status))
	}
}

// observeLocked clamps progress into [0,100] and never lets the displayed
// value go backwards.
func (h *PollHandle) observeLocked(reported int) int {
	p := reported
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p < h.progress {
		h.logger.V(1).Info("Ignoring progress regression", "reported", reported, "displayed", h.progress)
		return h.progress
	}
	h.progress = p
	return p
}

func (h *PollHandle) expiredLocked() bool {
	limit := h.poller.maxDuration
	return limit > 0 && h.poller.scheduler.Now().Sub(h.startedAt) >= limit
}

func (h *PollHandle) emitProgress(p Progress) {
	if h.obs.OnProgress != nil {
		h.obs.OnProgress(p)
	}
}

func (h *PollHandle) fail(err error) {
	h.logger.Error(err, "Polling stopped")
	if h.obs.OnError != nil {
		h.obs.OnError(&PollingError{JobID: h.jobID, Err: err})
	}
}

package jobtrack

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// manualScheduler fires timers only when the test advances its clock.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Advance moves the clock forward and runs every timer that becomes due,
// earliest first.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due []*manualTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			s.now = target
			s.mu.Unlock()
			return
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		next := due[0]
		next.fired = true
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type statusReply struct {
	job *Job
	err error
}

// scriptedBackend answers status queries from a fixed script. The last reply
// repeats once the script runs out.
type scriptedBackend struct {
	mu       sync.Mutex
	replies  []statusReply
	queries  int
	starts   []Operation
	startID  string
	startErr error

	// onQuery runs inside JobStatus before the reply is returned.
	onQuery func(n int)
}

func (b *scriptedBackend) StartJob(_ context.Context, op Operation) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts = append(b.starts, op)
	if b.startErr != nil {
		return "", b.startErr
	}
	if b.startID == "" {
		return "job-1", nil
	}
	return b.startID, nil
}

func (b *scriptedBackend) JobStatus(_ context.Context, id string) (*Job, error) {
	b.mu.Lock()
	b.queries++
	n := b.queries
	idx := n - 1
	if idx >= len(b.replies) {
		idx = len(b.replies) - 1
	}
	reply := b.replies[idx]
	hook := b.onQuery
	b.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if reply.err != nil {
		return nil, reply.err
	}
	job := *reply.job
	job.ID = id
	return &job, nil
}

func (b *scriptedBackend) Queries() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries
}

func (b *scriptedBackend) Starts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.starts)
}

func replyJob(status Status, progress int) statusReply {
	return statusReply{job: &Job{Status: status, Progress: progress}}
}

// recorder collects observer callbacks.
type recorder struct {
	mu        sync.Mutex
	progress  []Progress
	completed []*Job
	failed    []*JobFailure
	errors    []*PollingError
}

func (r *recorder) observer() Observer {
	return Observer{
		OnProgress: func(p Progress) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.progress = append(r.progress, p)
		},
		OnCompleted: func(job *Job) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, job)
		},
		OnFailed: func(_ *Job, f *JobFailure) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.failed = append(r.failed, f)
		},
		OnError: func(err *PollingError) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, err)
		},
	}
}

func (r *recorder) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed) + len(r.failed) + len(r.errors)
}

func (r *recorder) phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.progress))
	for _, p := range r.progress {
		out = append(out, p.Phase)
	}
	return out
}

// fakeStoreView records what the store-creation handler does to the UI.
type fakeStoreView struct {
	mu            sync.Mutex
	busy          bool
	notifications []Notification
	progress      []int
	phases        []string
	results       []json.RawMessage
	refreshes     int
}

func (v *fakeStoreView) Notify(n Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append(v.notifications, n)
}

func (v *fakeStoreView) SetBusy(busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = busy
}

func (v *fakeStoreView) ShowProgress(percent int, phase string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.progress = append(v.progress, percent)
	v.phases = append(v.phases, phase)
}

func (v *fakeStoreView) RenderResult(result json.RawMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = append(v.results, result)
}

func (v *fakeStoreView) RefreshRecent(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshes++
}

// fakeEditView records what the product-edit handler does to the UI.
type fakeEditView struct {
	mu            sync.Mutex
	submitEnabled bool
	open          bool
	notifications []Notification
	progress      []int
	phases        []string
	reloaded      []string
}

func newFakeEditView() *fakeEditView {
	return &fakeEditView{submitEnabled: true, open: true}
}

func (v *fakeEditView) Notify(n Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append(v.notifications, n)
}

func (v *fakeEditView) SetSubmitEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.submitEnabled = enabled
}

func (v *fakeEditView) ShowProgress(percent int, phase string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.progress = append(v.progress, percent)
	v.phases = append(v.phases, phase)
}

func (v *fakeEditView) CloseEditor() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.open = false
}

func (v *fakeEditView) ReloadProducts(_ context.Context, productID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reloaded = append(v.reloaded, productID)
}

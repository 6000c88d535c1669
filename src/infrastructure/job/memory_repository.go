package job

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryJobRepository keeps jobs in process memory. Used by `serve` when
// jobs.store=memory and by tests.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

func (r *MemoryJobRepository) Create(_ context.Context, job *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if job.StartedAt.IsZero() {
		job.StartedAt = now
	}
	job.UpdatedAt = now
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *MemoryJobRepository) Get(_ context.Context, id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (r *MemoryJobRepository) UpdateStatus(_ context.Context, id string, status JobStatus, err *string) error {
	return r.mutate(id, func(j *Job) {
		j.Status = status
		j.Error = err
		if status.Terminal() {
			t := r.now()
			j.CompletedAt = &t
		}
	})
}

func (r *MemoryJobRepository) UpdateProgress(_ context.Context, id string, progress int) error {
	return r.mutate(id, func(j *Job) { j.Progress = progress })
}

func (r *MemoryJobRepository) Complete(_ context.Context, id string, result json.RawMessage) error {
	return r.mutate(id, func(j *Job) {
		t := r.now()
		j.Status = JobStatusCompleted
		j.Progress = 100
		j.Result = result
		j.CompletedAt = &t
	})
}

func (r *MemoryJobRepository) ListCompleted(_ context.Context, taskType string, limit int) ([]Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Job
	for _, j := range r.jobs {
		if j.TaskType == taskType && j.Status == JobStatusCompleted && len(j.Result) > 0 {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return completedAt(out[a]).After(completedAt(out[b]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryJobRepository) mutate(id string, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(j)
	j.UpdatedAt = r.now()
	return nil
}

func completedAt(j Job) time.Time {
	if j.CompletedAt == nil {
		return time.Time{}
	}
	return *j.CompletedAt
}

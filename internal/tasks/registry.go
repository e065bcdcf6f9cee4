// Package tasks keeps the progress records of chunk jobs for polling clients.
package tasks

import (
	"errors"
	"sort"
	"sync"
	"time"

	"sublearn/internal/domain"
)

var (
	// ErrNotFound is returned for task ids the registry does not hold.
	ErrNotFound = errors.New("task not found")
	// ErrExists is returned when a task id is registered twice.
	ErrExists = errors.New("task already exists")
	// ErrTerminal is returned when a finished task is updated.
	ErrTerminal = errors.New("task already finished")
)

// Registry maps task ids to progress records. Writers only touch their own
// task; readers always receive copies.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*domain.ProcessingTask
	ttl   time.Duration
	now   func() time.Time
}

// NewRegistry creates an empty registry. Finished tasks older than ttl are
// removed by Prune; a zero ttl keeps them for the process lifetime.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		tasks: make(map[string]*domain.ProcessingTask),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the retention of finished tasks.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create registers a new task at progress 0 in the pending stage.
func (r *Registry) Create(taskID string) (domain.ProcessingTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[taskID]; ok {
		return domain.ProcessingTask{}, ErrExists
	}

	now := r.now()
	task := &domain.ProcessingTask{
		TaskID:      taskID,
		Status:      domain.TaskProcessing,
		Progress:    0,
		CurrentStep: domain.StagePending,
		Message:     "Queued",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.tasks[taskID] = task
	return *task, nil
}

// Update applies fn to a copy of the task and stores the result. Progress
// never decreases and is clamped to [0, 100]; a completed task always reports
// 100. Finished tasks are immutable.
func (r *Registry) Update(taskID string, fn func(*domain.ProcessingTask)) (domain.ProcessingTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tasks[taskID]
	if !ok {
		return domain.ProcessingTask{}, ErrNotFound
	}
	if current.Terminal() {
		return *current, ErrTerminal
	}

	next := *current
	fn(&next)

	next.TaskID = current.TaskID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = r.now()
	if next.Progress > 100 {
		next.Progress = 100
	}
	if next.Progress < current.Progress {
		next.Progress = current.Progress
	}
	if next.Status == domain.TaskCompleted {
		next.Progress = 100
		next.CurrentStep = domain.StageCompleted
	}
	if next.Status == domain.TaskError {
		next.CurrentStep = domain.StageError
	}

	*current = next
	return next, nil
}

// Get returns a snapshot of the task.
func (r *Registry) Get(taskID string) (domain.ProcessingTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[taskID]
	if !ok {
		return domain.ProcessingTask{}, ErrNotFound
	}
	return *task, nil
}

// List returns snapshots of all tasks, oldest first.
func (r *Registry) List() []domain.ProcessingTask {
	r.mu.RLock()
	out := make([]domain.ProcessingTask, 0, len(r.tasks))
	for _, task := range r.tasks {
		out = append(out, *task)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Prune removes finished tasks whose last update is older than the TTL and
// returns how many were removed. Running tasks are never evicted.
func (r *Registry) Prune(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, task := range r.tasks {
		if task.Terminal() && now.Sub(task.UpdatedAt) >= r.ttl {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

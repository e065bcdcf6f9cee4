package tasks

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"sublearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedRegistry(ttl time.Duration, start time.Time) (*Registry, *time.Time) {
	now := start
	r := NewRegistry(ttl)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(0)

	created, err := r.Create("task-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskProcessing, created.Status)
	assert.Equal(t, domain.StagePending, created.CurrentStep)
	assert.Equal(t, 0.0, created.Progress)

	got, err := r.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = r.Create("task-1")
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(0)

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Update("missing", func(*domain.ProcessingTask) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	r := NewRegistry(0)
	_, err := r.Create("task-1")
	require.NoError(t, err)

	got, err := r.Get("task-1")
	require.NoError(t, err)
	got.Progress = 99

	again, err := r.Get("task-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.Progress)
}

func TestRegistry_UpdateProgressIsMonotonic(t *testing.T) {
	tests := []struct {
		name     string
		progress []float64
		expected float64
	}{
		{"increasing", []float64{10, 40, 50}, 50},
		{"decrease ignored", []float64{40, 10}, 40},
		{"clamped", []float64{150}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(0)
			_, err := r.Create("task")
			require.NoError(t, err)

			for _, p := range tt.progress {
				_, err := r.Update("task", func(task *domain.ProcessingTask) { task.Progress = p })
				require.NoError(t, err)
			}

			got, err := r.Get("task")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Progress)
		})
	}
}

func TestRegistry_TerminalTasksAreImmutable(t *testing.T) {
	r := NewRegistry(0)
	_, err := r.Create("task")
	require.NoError(t, err)

	_, err = r.Update("task", func(task *domain.ProcessingTask) {
		task.Progress = 40
		task.Status = domain.TaskError
		task.Message = "transcription service unavailable"
	})
	require.NoError(t, err)

	got, err := r.Update("task", func(task *domain.ProcessingTask) {
		task.Status = domain.TaskCompleted
	})
	assert.ErrorIs(t, err, ErrTerminal)
	assert.Equal(t, domain.TaskError, got.Status)
	assert.Equal(t, domain.StageError, got.CurrentStep)
	assert.Equal(t, 40.0, got.Progress)
	assert.Equal(t, "transcription service unavailable", got.Message)
}

func TestRegistry_CompletedForcesFullProgress(t *testing.T) {
	r := NewRegistry(0)
	_, err := r.Create("task")
	require.NoError(t, err)

	got, err := r.Update("task", func(task *domain.ProcessingTask) {
		task.Progress = 80
		task.Status = domain.TaskCompleted
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, domain.StageCompleted, got.CurrentStep)
}

func TestRegistry_Prune(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r, clock := newClockedRegistry(time.Hour, start)

	for _, id := range []string{"done", "failed", "running"} {
		_, err := r.Create(id)
		require.NoError(t, err)
	}
	_, err := r.Update("done", func(task *domain.ProcessingTask) { task.Status = domain.TaskCompleted })
	require.NoError(t, err)
	_, err = r.Update("failed", func(task *domain.ProcessingTask) { task.Status = domain.TaskError })
	require.NoError(t, err)

	assert.Equal(t, 0, r.Prune(start.Add(30*time.Minute)))
	assert.Equal(t, 3, r.Len())

	*clock = start.Add(2 * time.Hour)
	assert.Equal(t, 2, r.Prune(*clock))
	assert.Equal(t, 1, r.Len())

	_, err = r.Get("running")
	assert.NoError(t, err)
	_, err = r.Get("done")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_PruneDisabled(t *testing.T) {
	r := NewRegistry(0)
	_, err := r.Create("task")
	require.NoError(t, err)
	_, err = r.Update("task", func(task *domain.ProcessingTask) { task.Status = domain.TaskCompleted })
	require.NoError(t, err)

	assert.Equal(t, 0, r.Prune(time.Now().Add(24*365*time.Hour)))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_List(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r, clock := newClockedRegistry(0, start)

	_, err := r.Create("b")
	require.NoError(t, err)
	*clock = start.Add(time.Second)
	_, err = r.Create("a")
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].TaskID)
	assert.Equal(t, "a", list[1].TaskID)
}

func TestRegistry_ConcurrentWriters(t *testing.T) {
	r := NewRegistry(0)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("task-%d", i)
		_, err := r.Create(id)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := 1; p <= 10; p++ {
				_, _ = r.Update(id, func(task *domain.ProcessingTask) { task.Progress = float64(p * 10) })
				_, _ = r.Get(id)
			}
		}()
	}
	wg.Wait()

	for _, task := range r.List() {
		assert.Equal(t, 100.0, task.Progress)
	}
}

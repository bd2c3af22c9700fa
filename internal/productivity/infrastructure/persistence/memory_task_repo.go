package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// MemoryTaskRepository implements task.Repository in memory.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]task.Task
	order []uuid.UUID
}

// NewMemoryTaskRepository creates a repository seeded with tasks.
func NewMemoryTaskRepository(seed ...task.Task) *MemoryTaskRepository {
	r := &MemoryTaskRepository{tasks: make(map[uuid.UUID]task.Task)}
	for i := range seed {
		r.put(seed[i])
	}
	return r
}

// LoadTasksJSON decodes a JSON array of tasks. Tasks without an id get a fresh one.
func LoadTasksJSON(reader io.Reader) ([]task.Task, error) {
	var tasks []task.Task
	if err := json.NewDecoder(reader).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].ID == uuid.Nil {
			tasks[i].ID = uuid.New()
		}
		if err := tasks[i].Validate(); err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i, tasks[i].Title, err)
		}
	}
	return tasks, nil
}

// Save stores a copy of the task.
func (r *MemoryTaskRepository) Save(_ context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(*t)
	return nil
}

// FindByID returns a copy of the task.
func (r *MemoryTaskRepository) FindByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return &t, nil
}

// ListTasks returns the user's tasks in insertion order. A nil user id matches
// every task, which is how offline JSON input without owners is served.
func (r *MemoryTaskRepository) ListTasks(_ context.Context, userID uuid.UUID) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]task.Task, 0, len(r.order))
	for _, id := range r.order {
		t := r.tasks[id]
		if t.UserID == userID || t.UserID == uuid.Nil || userID == uuid.Nil {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (r *MemoryTaskRepository) put(t task.Task) {
	if _, exists := r.tasks[t.ID]; !exists {
		r.order = append(r.order, t.ID)
	}
	t.Dependencies = append([]uuid.UUID(nil), t.Dependencies...)
	r.tasks[t.ID] = t
}

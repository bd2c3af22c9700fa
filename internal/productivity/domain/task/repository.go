package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned by repositories when no task has the requested id.
var ErrTaskNotFound = errors.New("task not found")

// Source provides task snapshots to the prioritization layer.
type Source interface {
	ListTasks(ctx context.Context, userID uuid.UUID) ([]Task, error)
}

// Repository persists tasks and serves as a Source.
type Repository interface {
	Source
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
}

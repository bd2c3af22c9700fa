package commands

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
)

// ErrNotOwner is returned when a command targets another user's task.
var ErrNotOwner = errors.New("task belongs to another user")

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	UserID          uuid.UUID
	Title           string
	Priority        string
	DurationMinutes int
	DueDate         *time.Time
	DependsOn       []uuid.UUID
}

// CreateTaskResult contains the result of creating a task.
type CreateTaskResult struct {
	TaskID uuid.UUID
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo task.Repository
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository) *CreateTaskHandler {
	return &CreateTaskHandler{taskRepo: taskRepo}
}

// Handle executes the CreateTaskCommand.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	priority := value_objects.PriorityMedium
	if cmd.Priority != "" {
		parsed, err := value_objects.ParsePriority(cmd.Priority)
		if err != nil {
			return nil, err
		}
		priority = parsed
	}

	t, err := task.NewTask(cmd.UserID, cmd.Title, priority)
	if err != nil {
		return nil, err
	}

	if cmd.DurationMinutes > 0 {
		t.EstimatedDuration = time.Duration(cmd.DurationMinutes) * time.Minute
	}
	if cmd.DueDate != nil {
		due := cmd.DueDate.UTC()
		t.DueDate = &due
	}
	for _, dep := range cmd.DependsOn {
		if err := t.DependOn(dep); err != nil {
			return nil, err
		}
	}

	if err := h.taskRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	return &CreateTaskResult{TaskID: t.ID}, nil
}

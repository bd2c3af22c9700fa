package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// StatusAction is a lifecycle transition requested by a user.
type StatusAction string

const (
	ActionStart    StatusAction = "start"
	ActionComplete StatusAction = "complete"
	ActionCancel   StatusAction = "cancel"
)

// ChangeStatusCommand moves a task through its lifecycle.
type ChangeStatusCommand struct {
	TaskID uuid.UUID
	UserID uuid.UUID
	Action StatusAction
}

// ChangeStatusHandler handles the ChangeStatusCommand.
type ChangeStatusHandler struct {
	taskRepo task.Repository
	now      func() time.Time
}

// NewChangeStatusHandler creates a new ChangeStatusHandler.
func NewChangeStatusHandler(taskRepo task.Repository) *ChangeStatusHandler {
	return &ChangeStatusHandler{taskRepo: taskRepo, now: time.Now}
}

// Handle executes the ChangeStatusCommand.
func (h *ChangeStatusHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) error {
	t, err := h.taskRepo.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return err
	}

	if t.UserID != cmd.UserID {
		return ErrNotOwner
	}

	switch cmd.Action {
	case ActionStart:
		err = t.Start()
	case ActionComplete:
		err = t.Complete(h.now())
	case ActionCancel:
		err = t.Cancel()
	default:
		return fmt.Errorf("unknown status action %q", cmd.Action)
	}
	if err != nil {
		return err
	}

	return h.taskRepo.Save(ctx, t)
}

package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
)

var (
	ErrEmptyTitle                = errors.New("task title cannot be empty")
	ErrTaskAlreadyComplete       = errors.New("task is already completed")
	ErrTaskClosed                = errors.New("task is closed")
	ErrInvalidStatus             = errors.New("invalid task status")
	ErrCompletedWithoutTimestamp = errors.New("completed task must have a completion time")
	ErrSelfDependency            = errors.New("task cannot depend on itself")
)

// Status represents the task lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus accepts both in_progress and in-progress spellings.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return StatusPending, nil
	case "in_progress", "in-progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// IsClosed reports whether the status no longer carries urgency.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Task is a caller-owned snapshot of a unit of work.
type Task struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Title             string
	Status            Status
	Priority          value_objects.Priority
	DueDate           *time.Time
	EstimatedDuration time.Duration
	Dependencies      []uuid.UUID
	CompletedAt       *time.Time
	CreatedAt         time.Time
}

// NewTask creates a pending task with the given title.
func NewTask(userID uuid.UUID, title string, priority value_objects.Priority) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !priority.IsValid() {
		return nil, value_objects.ErrInvalidPriority
	}

	return &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Status:    StatusPending,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsClosed returns true for completed or cancelled tasks.
func (t *Task) IsClosed() bool { return t.Status.IsClosed() }

// IsOverdue reports whether the due date is before now for an open task.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsClosed() && t.DueDate != nil && t.DueDate.Before(now)
}

// Start marks the task as in progress.
func (t *Task) Start() error {
	if t.IsClosed() {
		return ErrTaskClosed
	}
	t.Status = StatusInProgress
	return nil
}

// Complete marks the task as completed at the given time.
func (t *Task) Complete(at time.Time) error {
	if t.Status == StatusCompleted {
		return ErrTaskAlreadyComplete
	}
	if t.Status == StatusCancelled {
		return ErrTaskClosed
	}
	at = at.UTC()
	t.Status = StatusCompleted
	t.CompletedAt = &at
	return nil
}

// Cancel marks the task as cancelled.
func (t *Task) Cancel() error {
	if t.Status == StatusCompleted {
		return ErrTaskAlreadyComplete
	}
	t.Status = StatusCancelled
	return nil
}

// DependOn records a dependency on another task.
func (t *Task) DependOn(id uuid.UUID) error {
	if id == t.ID {
		return ErrSelfDependency
	}
	for _, existing := range t.Dependencies {
		if existing == id {
			return nil
		}
	}
	t.Dependencies = append(t.Dependencies, id)
	return nil
}

// Validate checks the snapshot invariants.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Priority.IsValid() {
		return value_objects.ErrInvalidPriority
	}
	if t.Status == StatusCompleted && t.CompletedAt == nil {
		return ErrCompletedWithoutTimestamp
	}
	for _, dep := range t.Dependencies {
		if dep == t.ID {
			return ErrSelfDependency
		}
	}
	return nil
}

type taskJSON struct {
	ID               uuid.UUID              `json:"id"`
	UserID           uuid.UUID              `json:"user_id,omitempty"`
	Title            string                 `json:"title"`
	Status           Status                 `json:"status"`
	Priority         value_objects.Priority `json:"priority"`
	DueDate          *time.Time             `json:"due_date,omitempty"`
	EstimatedMinutes int                    `json:"estimated_duration,omitempty"`
	Dependencies     []uuid.UUID            `json:"dependencies,omitempty"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at,omitempty"`
}

// MarshalJSON encodes the estimated duration in whole minutes, rounded to the
// nearest minute. A positive estimate never encodes as zero.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:               t.ID,
		UserID:           t.UserID,
		Title:            t.Title,
		Status:           t.Status,
		Priority:         t.Priority,
		DueDate:          t.DueDate,
		EstimatedMinutes: wholeMinutes(t.EstimatedDuration),
		Dependencies:     t.Dependencies,
		CompletedAt:      t.CompletedAt,
		CreatedAt:        t.CreatedAt,
	})
}

func wholeMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return max(int(d.Round(time.Minute)/time.Minute), 1)
}

// UnmarshalJSON decodes a task, reading estimated_duration as minutes.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task{
		ID:                raw.ID,
		UserID:            raw.UserID,
		Title:             raw.Title,
		Status:            raw.Status,
		Priority:          raw.Priority,
		DueDate:           raw.DueDate,
		EstimatedDuration: time.Duration(raw.EstimatedMinutes) * time.Minute,
		Dependencies:      raw.Dependencies,
		CompletedAt:       raw.CompletedAt,
		CreatedAt:         raw.CreatedAt,
	}
	return nil
}

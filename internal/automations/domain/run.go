// Package domain contains the record of automated runs.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRun = errors.New("invalid run")
)

// RunStatus summarises how a run went.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// StatusFromCounts derives a status from settled counts. A run with no
// failures succeeded; one with no successes failed.
func StatusFromCounts(succeeded, failed int) RunStatus {
	switch {
	case failed == 0:
		return RunStatusSucceeded
	case succeeded == 0:
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}

// Run is one execution of a scheduled job or an on-demand check.
type Run struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Status     RunStatus `json:"status"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewRun builds a run from its counts. The status is derived.
func NewRun(name string, startedAt, finishedAt time.Time, succeeded, failed int, errs []string) Run {
	return Run{
		ID:         uuid.New(),
		Name:       name,
		Status:     StatusFromCounts(succeeded, failed),
		Succeeded:  succeeded,
		Failed:     failed,
		Errors:     append([]string(nil), errs...),
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
	}
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks the run can be stored.
func (r Run) Validate() error {
	switch {
	case r.ID == uuid.Nil:
		return errors.Join(ErrInvalidRun, errors.New("missing id"))
	case strings.TrimSpace(r.Name) == "":
		return errors.Join(ErrInvalidRun, errors.New("missing name"))
	case r.FinishedAt.Before(r.StartedAt):
		return errors.Join(ErrInvalidRun, errors.New("finished before it started"))
	}
	switch r.Status {
	case RunStatusSucceeded, RunStatusPartial, RunStatusFailed:
	default:
		return errors.Join(ErrInvalidRun, errors.New("unknown status "+string(r.Status)))
	}
	return nil
}

// RunStore persists runs. Recent returns at most limit runs, newest first.
type RunStore interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

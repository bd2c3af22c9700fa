// Package application runs scheduled and on-demand automations.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	sharedApp "github.com/felixgeelhaar/cadence/internal/shared/application"
)

// JobFunc is an automated job. The summary counts its independent steps;
// a returned error is counted as one more failed step.
type JobFunc func(ctx context.Context) (sharedApp.Summary, error)

// Runner executes jobs, recovers panics and records every run.
type Runner struct {
	store  domain.RunStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a runner that records into store.
func NewRunner(store domain.RunStore, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for run timestamps.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Execute runs fn and records the outcome. It never panics and never
// returns an error: failures, including a failing store, are logged.
func (r *Runner) Execute(ctx context.Context, name string, fn JobFunc) domain.Run {
	started := r.now()
	summary, err := r.invoke(ctx, name, fn)
	if err != nil {
		summary.Total++
		summary.Failed++
		summary.Errors = append(summary.Errors, err.Error())
	}

	run := domain.NewRun(name, started, r.now(), summary.Succeeded, summary.Failed, summary.Errors)

	logger := r.logger.With("job", name, "run_id", run.ID, "status", run.Status)
	if run.Status == domain.RunStatusSucceeded {
		logger.InfoContext(ctx, "job finished", "steps", summary.Total, "duration", run.Duration())
	} else {
		logger.WarnContext(ctx, "job finished with failures",
			"succeeded", run.Succeeded,
			"failed", run.Failed,
			"errors", run.Errors,
		)
	}

	if r.store != nil {
		if err := r.store.Record(ctx, run); err != nil {
			logger.ErrorContext(ctx, "failed to record run", "error", err)
		}
	}
	return run
}

func (r *Runner) invoke(ctx context.Context, name string, fn JobFunc) (summary sharedApp.Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panicked: %v", name, rec)
		}
	}()
	return fn(ctx)
}

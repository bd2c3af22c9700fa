// Package application holds helpers shared by the application layers of every context.
package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds Settle when no limit is given.
const DefaultConcurrency = 4

// Job is one independent unit of work run by Settle.
type Job[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome is the settled result of a single job.
type Outcome[T any] struct {
	Name  string
	Value T
	Err   error
}

// OK reports whether the job succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Settle runs every job and waits for all of them, regardless of individual
// failures. Outcomes are returned in job order. A panicking job is reported
// as a failed outcome. At most limit jobs run at once.
func Settle[T any](ctx context.Context, limit int, jobs []Job[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func runJob[T any](ctx context.Context, job Job[T]) (out Outcome[T]) {
	out.Name = job.Name
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%s panicked: %v", job.Name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	if job.Run == nil {
		out.Err = fmt.Errorf("%s: no run function", job.Name)
		return out
	}

	out.Value, out.Err = job.Run(ctx)
	return out
}

// Summary counts settled outcomes.
type Summary struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// AllSucceeded reports whether no outcome failed.
func (s Summary) AllSucceeded() bool { return s.Failed == 0 }

// Tally summarises outcomes. Each error is prefixed with its job name.
func Tally[T any](outcomes []Outcome[T]) Summary {
	summary := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.OK() {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", o.Name, o.Err))
	}
	return summary
}

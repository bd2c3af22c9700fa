package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	taskQueries "github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	schedQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	sharedApp "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/google/uuid"
)

// Job names used by the worker and the CLI.
const (
	JobDailyBriefing   = "daily-briefing"
	JobProactiveChecks = "proactive-checks"
)

// ConflictFinder finds the conflicts of a day.
type ConflictFinder interface {
	Handle(ctx context.Context, query schedQueries.DetectConflictsQuery) (*schedQueries.DayConflicts, error)
}

// SlotFinder finds the free slots of a day.
type SlotFinder interface {
	Handle(ctx context.Context, query schedQueries.FindAvailableSlotsQuery) (*schedQueries.AvailableSlots, error)
}

// Briefer builds a daily briefing.
type Briefer interface {
	Handle(ctx context.Context, query schedQueries.DailyBriefingQuery) (*schedQueries.DailyBriefing, error)
}

// CheckConfig tunes the proactive checks.
type CheckConfig struct {
	// OverloadThreshold is the number of critical tasks above which the user is warned.
	OverloadThreshold int
	// MeetingDuration is the slot length looked for tomorrow.
	MeetingDuration time.Duration
}

// DefaultCheckConfig returns the default check configuration.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{OverloadThreshold: 3, MeetingDuration: 30 * time.Minute}
}

// CheckReport is the result of one round of proactive checks.
type CheckReport struct {
	Summary  sharedApp.Summary `json:"summary"`
	Findings []string          `json:"findings"`
}

// ProactiveChecker runs independent checks over a user's tasks and calendar.
type ProactiveChecker struct {
	tasks     schedQueries.TaskPrioritizer
	conflicts ConflictFinder
	slots     SlotFinder
	notifier  Notifier
	config    CheckConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewProactiveChecker creates a new ProactiveChecker.
func NewProactiveChecker(
	tasks schedQueries.TaskPrioritizer,
	conflicts ConflictFinder,
	slots SlotFinder,
	notifier Notifier,
	config CheckConfig,
	logger *slog.Logger,
) *ProactiveChecker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MeetingDuration <= 0 {
		config.MeetingDuration = DefaultCheckConfig().MeetingDuration
	}
	return &ProactiveChecker{
		tasks:     tasks,
		conflicts: conflicts,
		slots:     slots,
		notifier:  notifier,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the reference time source.
func (c *ProactiveChecker) WithClock(now func() time.Time) *ProactiveChecker {
	c.now = now
	return c
}

// Check runs every check concurrently and notifies when anything was found
// or failed. A failing check never stops the others.
func (c *ProactiveChecker) Check(ctx context.Context, userID uuid.UUID) (*CheckReport, error) {
	today := c.now()
	tomorrow := today.AddDate(0, 0, 1)

	jobs := []sharedApp.Job[[]string]{
		{Name: "overdue-tasks", Run: func(ctx context.Context) ([]string, error) {
			ranked, err := c.tasks.Handle(ctx, taskQueries.PrioritizeTasksQuery{UserID: userID, ExcludeClosed: true})
			if err != nil {
				return nil, err
			}
			if n := ranked.Summary.Overdue; n > 0 {
				return []string{fmt.Sprintf("%d overdue task(s)", n)}, nil
			}
			return nil, nil
		}},
		{Name: "conflicts-today", Run: func(ctx context.Context) ([]string, error) {
			day, err := c.conflicts.Handle(ctx, schedQueries.DetectConflictsQuery{UserID: userID, Date: today})
			if err != nil {
				return nil, err
			}
			findings := make([]string, 0, len(day.Conflicts))
			for _, pair := range day.Conflicts {
				findings = append(findings, fmt.Sprintf("Conflict: %s overlaps %s at %s",
					label(pair.First.Title, pair.First.ID),
					label(pair.Second.Title, pair.Second.ID),
					pair.Overlap.Start.Format("15:04")))
			}
			return findings, nil
		}},
		{Name: "task-overload", Run: func(ctx context.Context) ([]string, error) {
			ranked, err := c.tasks.Handle(ctx, taskQueries.PrioritizeTasksQuery{UserID: userID, ExcludeClosed: true})
			if err != nil {
				return nil, err
			}
			if n := ranked.Summary.Critical; n > c.config.OverloadThreshold {
				return []string{fmt.Sprintf("%d critical tasks; consider deferring or delegating", n)}, nil
			}
			return nil, nil
		}},
		{Name: "availability-tomorrow", Run: func(ctx context.Context) ([]string, error) {
			free, err := c.slots.Handle(ctx, schedQueries.FindAvailableSlotsQuery{
				UserID:   userID,
				Date:     tomorrow,
				Duration: c.config.MeetingDuration,
			})
			if err != nil {
				return nil, err
			}
			if len(free.Slots) == 0 {
				return []string{fmt.Sprintf("No free %d-minute slot tomorrow", int(c.config.MeetingDuration.Minutes()))}, nil
			}
			return nil, nil
		}},
	}

	outcomes := sharedApp.Settle(ctx, len(jobs), jobs)
	report := &CheckReport{Summary: sharedApp.Tally(outcomes), Findings: []string{}}
	for _, o := range outcomes {
		report.Findings = append(report.Findings, o.Value...)
	}

	if len(report.Findings) > 0 || report.Summary.Failed > 0 {
		lines := append(append([]string(nil), report.Findings...), report.Summary.Errors...)
		err := c.notifier.Notify(ctx, Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      KindProactive,
			Title:     fmt.Sprintf("%d finding(s) from proactive checks", len(report.Findings)),
			Lines:     lines,
			CreatedAt: c.now().UTC(),
		})
		if err != nil {
			return report, err
		}
	}

	c.logger.InfoContext(ctx, "proactive checks complete",
		"user_id", userID,
		"findings", len(report.Findings),
		"failed", report.Summary.Failed,
	)
	return report, nil
}

// Job adapts Check to the scheduler.
func (c *ProactiveChecker) Job(userID uuid.UUID) JobFunc {
	return func(ctx context.Context) (sharedApp.Summary, error) {
		report, err := c.Check(ctx, userID)
		if report == nil {
			return sharedApp.Summary{}, err
		}
		return report.Summary, err
	}
}

// BriefingJob builds the day's briefing and sends it as a notification.
func BriefingJob(briefer Briefer, notifier Notifier, userID uuid.UUID, now func() time.Time) JobFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) (sharedApp.Summary, error) {
		at := now()
		briefing, err := briefer.Handle(ctx, schedQueries.DailyBriefingQuery{UserID: userID, Date: at})
		if err != nil {
			return sharedApp.Summary{}, err
		}

		const sections = 3
		summary := sharedApp.Summary{
			Total:     sections,
			Failed:    len(briefing.Failures),
			Succeeded: sections - len(briefing.Failures),
			Errors:    briefing.Failures,
		}

		err = notifier.Notify(ctx, Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      KindBriefing,
			Title:     "Briefing for " + briefing.Date.Format("Monday, January 2"),
			Lines:     briefing.Highlights,
			CreatedAt: at.UTC(),
		})
		return summary, err
	}
}

func label(title, id string) string {
	if title != "" {
		return title
	}
	return id
}

package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	taskQueries "github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	taskServices "github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApp "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/google/uuid"
)

const (
	// DefaultBriefingMeeting is the meeting length free slots are counted for.
	DefaultBriefingMeeting = 30 * time.Minute
	// DefaultBriefingTasks is the number of top tasks included.
	DefaultBriefingTasks = 5
)

// TaskPrioritizer ranks a user's tasks.
type TaskPrioritizer interface {
	Handle(ctx context.Context, query taskQueries.PrioritizeTasksQuery) (*taskServices.RankedTasks, error)
}

// DailyBriefingQuery asks for the briefing of one day.
type DailyBriefingQuery struct {
	UserID          uuid.UUID
	Date            time.Time
	MeetingDuration time.Duration
	TopTasks        int
}

// DailyBriefing summarises a day: conflicts, free time and what to work on.
type DailyBriefing struct {
	Date         time.Time                 `json:"date"`
	Conflicts    []domain.ConflictPair     `json:"conflicts"`
	FreeSlots    []domain.TimeSlot         `json:"free_slots"`
	TopTasks     []taskServices.RankedTask `json:"top_tasks"`
	TaskSummary  taskServices.Summary      `json:"task_summary"`
	Highlights   []string                  `json:"highlights"`
	Failures     []string                  `json:"failures,omitempty"`
	GeneratedFor uuid.UUID                 `json:"user_id"`
}

// DailyBriefingHandler composes the conflict, availability and task queries.
type DailyBriefingHandler struct {
	conflicts *DetectConflictsHandler
	slots     *FindAvailableSlotsHandler
	tasks     TaskPrioritizer
	logger    *slog.Logger
}

// NewDailyBriefingHandler creates a new DailyBriefingHandler.
func NewDailyBriefingHandler(
	conflicts *DetectConflictsHandler,
	slots *FindAvailableSlotsHandler,
	tasks TaskPrioritizer,
	logger *slog.Logger,
) *DailyBriefingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyBriefingHandler{conflicts: conflicts, slots: slots, tasks: tasks, logger: logger}
}

// Handle runs the three sections concurrently. A failing section is reported
// in Failures and left empty; the briefing fails only if every section fails.
func (h *DailyBriefingHandler) Handle(ctx context.Context, query DailyBriefingQuery) (*DailyBriefing, error) {
	meeting := query.MeetingDuration
	if meeting <= 0 {
		meeting = DefaultBriefingMeeting
	}
	limit := query.TopTasks
	if limit <= 0 {
		limit = DefaultBriefingTasks
	}

	date := domain.StartOfDay(query.Date)
	briefing := &DailyBriefing{
		Date:         date,
		Conflicts:    []domain.ConflictPair{},
		FreeSlots:    []domain.TimeSlot{},
		TopTasks:     []taskServices.RankedTask{},
		GeneratedFor: query.UserID,
	}

	var (
		conflicts *DayConflicts
		slots     *AvailableSlots
		ranked    *taskServices.RankedTasks
	)
	jobs := []sharedApp.Job[struct{}]{
		{Name: "conflicts", Run: func(ctx context.Context) (struct{}, error) {
			var err error
			conflicts, err = h.conflicts.Handle(ctx, DetectConflictsQuery{UserID: query.UserID, Date: date})
			return struct{}{}, err
		}},
		{Name: "availability", Run: func(ctx context.Context) (struct{}, error) {
			var err error
			slots, err = h.slots.Handle(ctx, FindAvailableSlotsQuery{UserID: query.UserID, Date: date, Duration: meeting})
			return struct{}{}, err
		}},
		{Name: "tasks", Run: func(ctx context.Context) (struct{}, error) {
			var err error
			ranked, err = h.tasks.Handle(ctx, taskQueries.PrioritizeTasksQuery{
				UserID:        query.UserID,
				ExcludeClosed: true,
				Limit:         limit,
			})
			return struct{}{}, err
		}},
	}

	summary := sharedApp.Tally(sharedApp.Settle(ctx, len(jobs), jobs))
	briefing.Failures = summary.Errors
	if summary.Succeeded == 0 {
		return nil, fmt.Errorf("daily briefing: %s", summary.Errors[0])
	}

	if conflicts != nil {
		briefing.Conflicts = conflicts.Conflicts
	}
	if slots != nil {
		briefing.FreeSlots = slots.Slots
	}
	if ranked != nil {
		briefing.TopTasks = ranked.Tasks
		briefing.TaskSummary = ranked.Summary
	}
	briefing.Highlights = highlights(briefing, conflicts != nil, slots != nil, ranked != nil, meeting)

	h.logger.InfoContext(ctx, "daily briefing generated",
		"user_id", query.UserID,
		"date", domain.DateKey(date),
		"conflicts", len(briefing.Conflicts),
		"free_slots", len(briefing.FreeSlots),
		"failures", len(briefing.Failures),
	)

	return briefing, nil
}

func highlights(b *DailyBriefing, haveConflicts, haveSlots, haveTasks bool, meeting time.Duration) []string {
	lines := make([]string, 0, 4)

	if haveConflicts {
		switch n := len(b.Conflicts); n {
		case 0:
			lines = append(lines, "No scheduling conflicts today")
		case 1:
			lines = append(lines, "1 scheduling conflict today")
		default:
			lines = append(lines, fmt.Sprintf("%d scheduling conflicts today", n))
		}
	}

	if haveSlots {
		if len(b.FreeSlots) == 0 {
			lines = append(lines, fmt.Sprintf("No free %d-minute slots today", int(meeting.Minutes())))
		} else {
			lines = append(lines, fmt.Sprintf("%d free %d-minute slots, first at %s",
				len(b.FreeSlots), int(meeting.Minutes()), b.FreeSlots[0].Start.Format("15:04")))
		}
	}

	if haveTasks && len(b.TopTasks) > 0 {
		top := b.TopTasks[0]
		lines = append(lines, fmt.Sprintf("Top task: %s (%s)", top.Task.Title, top.Band))
	}
	if haveTasks {
		lines = append(lines, b.TaskSummary.Recommendations...)
	}

	return lines
}

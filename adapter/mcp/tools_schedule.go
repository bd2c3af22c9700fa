package mcp

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/mcp-go"
)

type slotsAvailableInput struct {
	Date     string `json:"date,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type slotsSuggestInput struct {
	Duration       int    `json:"duration,omitempty"`
	PreferredHours []int  `json:"preferred_hours,omitempty"`
	Priority       string `json:"priority,omitempty"`
	HorizonDays    int    `json:"horizon_days,omitempty"`
}

type conflictsInput struct {
	Date string `json:"date,omitempty"`
}

type briefingInput struct {
	Date     string `json:"date,omitempty"`
	Duration int    `json:"duration,omitempty"`
	TopTasks int    `json:"top_tasks,omitempty"`
}

// now is the clock used for default dates.
var now = time.Now

func registerScheduleTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("slots.available").
		Description("Find free slots of a given length (minutes, default 60) within working hours").
		Handler(func(ctx context.Context, input slotsAvailableInput) (*queries.AvailableSlots, error) {
			return availableSlots(ctx, app, input)
		})

	srv.Tool("slots.suggest").
		Description("Rank the coming days for a meeting, favoring preferred hours").
		Handler(func(ctx context.Context, input slotsSuggestInput) (*queries.MeetingSuggestions, error) {
			return suggestSlots(ctx, app, input)
		})

	srv.Tool("calendar.conflicts").
		Description("List overlapping calendar events on a day").
		Handler(func(ctx context.Context, input conflictsInput) (*queries.DayConflicts, error) {
			return detectConflicts(ctx, app, input)
		})

	srv.Tool("briefing.today").
		Description("Summarize conflicts, free time and top tasks for a day").
		Handler(func(ctx context.Context, input briefingInput) (*queries.DailyBriefing, error) {
			return dailyBriefing(ctx, app, input)
		})

	return nil
}

func availableSlots(ctx context.Context, app *cli.App, input slotsAvailableInput) (*queries.AvailableSlots, error) {
	if app == nil || app.FindAvailableSlotsHandler == nil {
		return nil, errNotInitialized
	}
	date, err := parseDate(input.Date, now())
	if err != nil {
		return nil, err
	}
	return app.FindAvailableSlotsHandler.Handle(ctx, queries.FindAvailableSlotsQuery{
		UserID:   app.CurrentUserID,
		Date:     date,
		Duration: minutes(input.Duration, 60),
	})
}

func suggestSlots(ctx context.Context, app *cli.App, input slotsSuggestInput) (*queries.MeetingSuggestions, error) {
	if app == nil || app.SuggestMeetingTimesHandler == nil {
		return nil, errNotInitialized
	}
	priority, err := services.ParseMeetingPriority(input.Priority)
	if err != nil {
		return nil, err
	}
	horizon := input.HorizonDays
	if horizon <= 0 {
		horizon = app.HorizonDays
	}
	return app.SuggestMeetingTimesHandler.Handle(ctx, queries.SuggestMeetingTimesQuery{
		UserID:      app.CurrentUserID,
		Today:       now(),
		Duration:    minutes(input.Duration, 60),
		Preferences: services.SchedulePreferences{PreferredHours: input.PreferredHours, Priority: priority},
		HorizonDays: horizon,
	})
}

func detectConflicts(ctx context.Context, app *cli.App, input conflictsInput) (*queries.DayConflicts, error) {
	if app == nil || app.DetectConflictsHandler == nil {
		return nil, errNotInitialized
	}
	date, err := parseDate(input.Date, now())
	if err != nil {
		return nil, err
	}
	return app.DetectConflictsHandler.Handle(ctx, queries.DetectConflictsQuery{UserID: app.CurrentUserID, Date: date})
}

func dailyBriefing(ctx context.Context, app *cli.App, input briefingInput) (*queries.DailyBriefing, error) {
	if app == nil || app.DailyBriefingHandler == nil {
		return nil, errNotInitialized
	}
	date, err := parseDate(input.Date, now())
	if err != nil {
		return nil, err
	}
	return app.DailyBriefingHandler.Handle(ctx, queries.DailyBriefingQuery{
		UserID:          app.CurrentUserID,
		Date:            date,
		MeetingDuration: minutes(input.Duration, int(queries.DefaultBriefingMeeting/time.Minute)),
		TopTasks:        input.TopTasks,
	})
}

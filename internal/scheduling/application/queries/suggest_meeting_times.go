package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApp "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/google/uuid"
)

// SuggestMeetingTimesQuery asks for the best days to hold a meeting.
type SuggestMeetingTimesQuery struct {
	UserID      uuid.UUID
	Today       time.Time
	Duration    time.Duration
	Preferences services.SchedulePreferences
	HorizonDays int
}

// MeetingSuggestions is the ranked result plus the days that could not be read.
type MeetingSuggestions struct {
	Suggestions    []services.DaySuggestion `json:"suggestions"`
	Recommendation *services.DaySuggestion  `json:"recommendation"`
	HorizonDays    int                      `json:"horizon_days"`
	FailedDays     []string                 `json:"failed_days,omitempty"`
}

// SuggestMeetingTimesHandler handles the SuggestMeetingTimesQuery.
type SuggestMeetingTimesHandler struct {
	source       calendarApp.EventSource
	availability *services.AvailabilityEngine
	ranker       *services.SlotRanker
	concurrency  int
	logger       *slog.Logger
}

// NewSuggestMeetingTimesHandler creates a new SuggestMeetingTimesHandler.
func NewSuggestMeetingTimesHandler(
	source calendarApp.EventSource,
	availability *services.AvailabilityEngine,
	ranker *services.SlotRanker,
	logger *slog.Logger,
) *SuggestMeetingTimesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestMeetingTimesHandler{
		source:       source,
		availability: availability,
		ranker:       ranker,
		concurrency:  sharedApp.DefaultConcurrency,
		logger:       logger,
	}
}

// WithConcurrency bounds the number of days fetched at once.
func (h *SuggestMeetingTimesHandler) WithConcurrency(n int) *SuggestMeetingTimesHandler {
	h.concurrency = n
	return h
}

// Handle fetches every day of the horizon concurrently. A day whose fetch or
// availability computation fails is logged and ranked as having no slots.
func (h *SuggestMeetingTimesHandler) Handle(ctx context.Context, query SuggestMeetingTimesQuery) (*MeetingSuggestions, error) {
	if query.Duration <= 0 {
		return nil, fmt.Errorf("suggest meeting times: %w", domain.ErrInvalidDuration)
	}
	horizon := query.HorizonDays
	if horizon <= 0 {
		horizon = services.DefaultHorizonDays
	}

	today := domain.StartOfDay(query.Today)
	jobs := make([]sharedApp.Job[[]domain.TimeSlot], horizon)
	dates := make([]time.Time, horizon)
	for i := range horizon {
		date := today.AddDate(0, 0, i+1)
		dates[i] = date
		jobs[i] = sharedApp.Job[[]domain.TimeSlot]{
			Name: domain.DateKey(date),
			Run: func(ctx context.Context) ([]domain.TimeSlot, error) {
				window := dayWindow(date, h.availability.Config(), query.Duration)
				events, err := h.source.FetchEvents(ctx, query.UserID, window.Start, window.End)
				if err != nil {
					return nil, err
				}
				return h.availability.ComputeAvailability(events, date, query.Duration)
			},
		}
	}

	outcomes := sharedApp.Settle(ctx, h.concurrency, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	days := make([]services.DayAvailability, horizon)
	var failed []string
	for i, outcome := range outcomes {
		days[i] = services.DayAvailability{Date: dates[i], Slots: outcome.Value}
		if !outcome.OK() {
			days[i].Slots = nil
			failed = append(failed, outcome.Name)
			h.logger.WarnContext(ctx, "day availability unavailable",
				"date", outcome.Name,
				"error", outcome.Err,
			)
		}
	}

	ranked := h.ranker.RankDays(days, query.Preferences)

	h.logger.InfoContext(ctx, "meeting times suggested",
		"user_id", query.UserID,
		"horizon_days", horizon,
		"candidates", len(ranked.Suggestions),
		"failed_days", len(failed),
	)

	return &MeetingSuggestions{
		Suggestions:    ranked.Suggestions,
		Recommendation: ranked.Recommendation,
		HorizonDays:    horizon,
		FailedDays:     failed,
	}, nil
}

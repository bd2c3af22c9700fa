package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// FindAvailableSlotsQuery contains the parameters for finding available slots.
type FindAvailableSlotsQuery struct {
	UserID   uuid.UUID
	Date     time.Time
	Duration time.Duration
}

// AvailableSlots is the free time of one day.
type AvailableSlots struct {
	Date     time.Time         `json:"date"`
	Duration time.Duration     `json:"duration"`
	Slots    []domain.TimeSlot `json:"slots"`
}

// FindAvailableSlotsHandler handles the FindAvailableSlotsQuery.
type FindAvailableSlotsHandler struct {
	source calendarApp.EventSource
	engine *services.AvailabilityEngine
	logger *slog.Logger
}

// NewFindAvailableSlotsHandler creates a new FindAvailableSlotsHandler.
func NewFindAvailableSlotsHandler(
	source calendarApp.EventSource,
	engine *services.AvailabilityEngine,
	logger *slog.Logger,
) *FindAvailableSlotsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FindAvailableSlotsHandler{source: source, engine: engine, logger: logger}
}

// Handle executes the FindAvailableSlotsQuery.
func (h *FindAvailableSlotsHandler) Handle(ctx context.Context, query FindAvailableSlotsQuery) (*AvailableSlots, error) {
	if query.Duration <= 0 {
		return nil, fmt.Errorf("find available slots: %w", domain.ErrInvalidDuration)
	}

	date := domain.StartOfDay(query.Date)
	window := dayWindow(date, h.engine.Config(), query.Duration)

	events, err := h.source.FetchEvents(ctx, query.UserID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("fetch events for %s: %w", domain.DateKey(date), err)
	}

	slots, err := h.engine.ComputeAvailability(events, date, query.Duration)
	if err != nil {
		return nil, err
	}

	h.logger.DebugContext(ctx, "computed availability",
		"date", domain.DateKey(date),
		"events", len(events),
		"slots", len(slots),
	)

	return &AvailableSlots{Date: date, Duration: query.Duration, Slots: slots}, nil
}

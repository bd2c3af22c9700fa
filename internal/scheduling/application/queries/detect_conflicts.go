package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// DetectConflictsQuery asks for the overlapping events of one day.
type DetectConflictsQuery struct {
	UserID uuid.UUID
	Date   time.Time
}

// DayConflicts lists the conflicting neighbours of a day's events.
type DayConflicts struct {
	Date      time.Time             `json:"date"`
	Events    int                   `json:"events"`
	Conflicts []domain.ConflictPair `json:"conflicts"`
}

// DetectConflictsHandler handles the DetectConflictsQuery.
type DetectConflictsHandler struct {
	source calendarApp.EventSource
	logger *slog.Logger
}

// NewDetectConflictsHandler creates a new DetectConflictsHandler.
func NewDetectConflictsHandler(source calendarApp.EventSource, logger *slog.Logger) *DetectConflictsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectConflictsHandler{source: source, logger: logger}
}

// Handle executes the DetectConflictsQuery.
func (h *DetectConflictsHandler) Handle(ctx context.Context, query DetectConflictsQuery) (*DayConflicts, error) {
	date := domain.StartOfDay(query.Date)

	events, err := h.source.FetchEvents(ctx, query.UserID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("fetch events for %s: %w", domain.DateKey(date), err)
	}

	conflicts, err := domain.DetectConflicts(events)
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}

	if len(conflicts) > 0 {
		h.logger.InfoContext(ctx, "scheduling conflicts found",
			"date", domain.DateKey(date),
			"conflicts", len(conflicts),
		)
	}

	return &DayConflicts{Date: date, Events: len(events), Conflicts: conflicts}, nil
}

package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// PrioritizeTasksQuery contains the parameters for ranking a user's tasks.
type PrioritizeTasksQuery struct {
	UserID        uuid.UUID
	Criteria      *services.ScoringCriteria
	SubsetIDs     []uuid.UUID
	ExcludeClosed bool
	// Limit caps the number of returned tasks. Zero means all.
	Limit int
}

// PrioritizeTasksHandler handles the PrioritizeTasksQuery.
type PrioritizeTasksHandler struct {
	source task.Source
	engine *services.PriorityEngine
	logger *slog.Logger
	now    func() time.Time
}

// NewPrioritizeTasksHandler creates a new PrioritizeTasksHandler.
func NewPrioritizeTasksHandler(source task.Source, engine *services.PriorityEngine, logger *slog.Logger) *PrioritizeTasksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrioritizeTasksHandler{
		source: source,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the reference time source.
func (h *PrioritizeTasksHandler) WithClock(now func() time.Time) *PrioritizeTasksHandler {
	h.now = now
	return h
}

// Handle executes the PrioritizeTasksQuery.
func (h *PrioritizeTasksHandler) Handle(ctx context.Context, query PrioritizeTasksQuery) (*services.RankedTasks, error) {
	tasks, err := h.source.ListTasks(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	ranked, err := h.engine.Prioritize(tasks, query.Criteria, services.PrioritizeOptions{
		SubsetIDs:     query.SubsetIDs,
		Now:           h.now(),
		ExcludeClosed: query.ExcludeClosed,
	})
	if err != nil {
		return nil, err
	}

	if query.Limit > 0 && len(ranked.Tasks) > query.Limit {
		ranked.Tasks = ranked.Tasks[:query.Limit]
	}

	h.logger.InfoContext(ctx, "tasks prioritized",
		"user_id", query.UserID,
		"total", ranked.Summary.Total,
		"returned", len(ranked.Tasks),
	)

	return ranked, nil
}

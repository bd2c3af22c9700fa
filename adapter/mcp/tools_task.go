package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"
)

type taskPrioritizeInput struct {
	Limit         int                       `json:"limit,omitempty"`
	IncludeClosed bool                      `json:"include_closed,omitempty"`
	TaskIDs       []string                  `json:"task_ids,omitempty"`
	Criteria      *services.ScoringCriteria `json:"criteria,omitempty"`
}

type taskAddInput struct {
	Title     string   `json:"title" jsonschema:"required"`
	Priority  string   `json:"priority,omitempty"`
	Duration  int      `json:"duration,omitempty"`
	DueDate   string   `json:"due_date,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

type taskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
	Action string `json:"action" jsonschema:"required"`
}

type taskStatusResult struct {
	TaskID uuid.UUID `json:"task_id"`
	Action string    `json:"action"`
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("tasks.prioritize").
		Description("Rank open tasks by due date, priority, status, dependencies and duration").
		Handler(func(ctx context.Context, input taskPrioritizeInput) (*services.RankedTasks, error) {
			return prioritizeTasks(ctx, app, input)
		})

	srv.Tool("tasks.add").
		Description("Create a task").
		Handler(func(ctx context.Context, input taskAddInput) (*commands.CreateTaskResult, error) {
			return addTask(ctx, app, input)
		})

	srv.Tool("tasks.status").
		Description("Start, complete or cancel a task").
		Handler(func(ctx context.Context, input taskStatusInput) (*taskStatusResult, error) {
			return changeTaskStatus(ctx, app, input)
		})

	return nil
}

func prioritizeTasks(ctx context.Context, app *cli.App, input taskPrioritizeInput) (*services.RankedTasks, error) {
	if app == nil || app.PrioritizeTasksHandler == nil {
		return nil, errNotInitialized
	}
	ids, err := parseUUIDs(input.TaskIDs)
	if err != nil {
		return nil, err
	}
	return app.PrioritizeTasksHandler.Handle(ctx, queries.PrioritizeTasksQuery{
		UserID:        app.CurrentUserID,
		Criteria:      input.Criteria,
		SubsetIDs:     ids,
		ExcludeClosed: !input.IncludeClosed,
		Limit:         input.Limit,
	})
}

func addTask(ctx context.Context, app *cli.App, input taskAddInput) (*commands.CreateTaskResult, error) {
	if app == nil || app.CreateTaskHandler == nil {
		return nil, errNotInitialized
	}

	cmd := commands.CreateTaskCommand{
		UserID:          app.CurrentUserID,
		Title:           input.Title,
		Priority:        input.Priority,
		DurationMinutes: input.Duration,
	}
	if input.DueDate != "" {
		due, err := time.Parse(time.RFC3339, input.DueDate)
		if err != nil {
			day, dayErr := parseDate(input.DueDate, time.Time{})
			if dayErr != nil {
				return nil, fmt.Errorf("invalid due date, use YYYY-MM-DD or RFC 3339: %w", dayErr)
			}
			due = day.Add(24*time.Hour - time.Second)
		}
		cmd.DueDate = &due
	}
	deps, err := parseUUIDs(input.DependsOn)
	if err != nil {
		return nil, err
	}
	cmd.DependsOn = deps

	return app.CreateTaskHandler.Handle(ctx, cmd)
}

func changeTaskStatus(ctx context.Context, app *cli.App, input taskStatusInput) (*taskStatusResult, error) {
	if app == nil || app.ChangeStatusHandler == nil {
		return nil, errNotInitialized
	}
	id, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}

	action := commands.StatusAction(input.Action)
	if err := app.ChangeStatusHandler.Handle(ctx, commands.ChangeStatusCommand{
		TaskID: id,
		UserID: app.CurrentUserID,
		Action: action,
	}); err != nil {
		return nil, err
	}
	return &taskStatusResult{TaskID: id, Action: input.Action}, nil
}

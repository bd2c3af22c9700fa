package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	automationApp "github.com/felixgeelhaar/cadence/internal/automations/application"
	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type jobRunInput struct {
	Name string `json:"name" jsonschema:"required"`
}

type runsInput struct {
	Limit int `json:"limit,omitempty"`
}

func registerAutomationTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("checks.run").
		Description("Run the proactive checks now and notify on findings").
		Handler(func(ctx context.Context, input struct{}) (*automationApp.CheckReport, error) {
			return runChecks(ctx, app)
		})

	srv.Tool("runs.recent").
		Description("List recent automation runs, newest first").
		Handler(func(ctx context.Context, input runsInput) ([]domain.Run, error) {
			return recentRuns(ctx, app, input)
		})

	srv.Tool("jobs.run").
		Description("Run a scheduled job now and record the run").
		Handler(func(ctx context.Context, input jobRunInput) (*domain.Run, error) {
			return runJob(ctx, app, input)
		})

	return nil
}

func runChecks(ctx context.Context, app *cli.App) (*automationApp.CheckReport, error) {
	if app == nil || app.Checker == nil {
		return nil, errNotInitialized
	}
	report, err := app.Checker.Check(ctx, app.CurrentUserID)
	if report != nil {
		// A notify failure still yields a usable report.
		return report, nil
	}
	return nil, err
}

func recentRuns(ctx context.Context, app *cli.App, input runsInput) ([]domain.Run, error) {
	if app == nil || app.RunStore == nil {
		return nil, errNotInitialized
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	return app.RunStore.Recent(ctx, limit)
}

func runJob(ctx context.Context, app *cli.App, input jobRunInput) (*domain.Run, error) {
	if app == nil || app.Runner == nil {
		return nil, errNotInitialized
	}
	fn, ok := app.Jobs[input.Name]
	if !ok {
		return nil, fmt.Errorf("unknown job %q", input.Name)
	}
	run := app.Runner.Execute(ctx, input.Name, fn)
	return &run, nil
}

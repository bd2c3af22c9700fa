package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/adapter/cli/automation"
	"github.com/felixgeelhaar/cadence/adapter/cli/priority"
	"github.com/felixgeelhaar/cadence/adapter/cli/schedule"
	"github.com/felixgeelhaar/cadence/adapter/cli/task"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	cli.SetLogger(logger)
	cli.SetLoader(cli.ContainerLoader(cfg, logger))

	cli.AddCommand(task.Cmd)
	cli.AddCommand(priority.Cmd)
	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(schedule.ConflictsCmd)
	cli.AddCommand(schedule.BriefingCmd)
	cli.AddCommand(automation.CheckCmd)
	cli.AddCommand(automation.RunsCmd)
	cli.AddCommand(automation.JobsCmd)

	cli.Execute(ctx)
}

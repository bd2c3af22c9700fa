package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	automationApp "github.com/felixgeelhaar/cadence/internal/automations/application"
	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOfflineApp(t *testing.T) *cli.App {
	t.Helper()

	tasksPath := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(tasksPath, []byte(`[
		{"title": "Late report", "priority": "high", "due_date": "2020-01-01T09:00:00Z"}
	]`), 0o600))

	cfg := &config.Config{
		AppEnv:           "test",
		UserID:           "00000000-0000-0000-0000-000000000001",
		RunStore:         config.RunStoreMemory,
		CalendarProvider: config.CalendarStub,
		Notifier:         config.NotifierStub,
		WorkStart:        9 * time.Hour,
		WorkEnd:          17 * time.Hour,
		SlotGranularity:  time.Hour,
	}
	container, err := internalApp.NewContainer(context.Background(), cfg, nil, internalApp.Options{TasksFile: tasksPath})
	require.NoError(t, err)

	app := cli.NewApp(container)
	cli.SetApp(app)
	cli.SetJSONOutput(false)
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetJSONOutput(false)
	})
	return app
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestCheckCmd(t *testing.T) {
	setupOfflineApp(t)

	out, err := run(t, CheckCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Checks: 4/4 succeeded")
	assert.Contains(t, out, "1 overdue task(s)")
}

func TestJobsCmds(t *testing.T) {
	app := setupOfflineApp(t)

	t.Run("list", func(t *testing.T) {
		out, err := run(t, jobsListCmd)
		require.NoError(t, err)
		assert.Equal(t, automationApp.JobDailyBriefing+"\n"+automationApp.JobProactiveChecks+"\n", out)
	})

	t.Run("run records the run", func(t *testing.T) {
		out, err := run(t, jobsRunCmd, automationApp.JobProactiveChecks)
		require.NoError(t, err)
		assert.Contains(t, out, automationApp.JobProactiveChecks)
		assert.Contains(t, out, "4 ok, 0 failed")

		runs, err := app.RunStore.Recent(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, domain.RunStatusSucceeded, runs[0].Status)
	})

	t.Run("runs as json", func(t *testing.T) {
		cli.SetJSONOutput(true)
		defer cli.SetJSONOutput(false)
		runsLimit = 5

		out, err := run(t, RunsCmd)
		require.NoError(t, err)

		var runs []domain.Run
		require.NoError(t, json.Unmarshal([]byte(out), &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, automationApp.JobProactiveChecks, runs[0].Name)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := run(t, jobsRunCmd, "defragment")
		assert.ErrorContains(t, err, "unknown job")
	})
}

func TestRunsCmd_Empty(t *testing.T) {
	setupOfflineApp(t)
	runsLimit = 20

	out, err := run(t, RunsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestCommands_NoApp(t *testing.T) {
	cli.SetApp(nil)

	for _, cmd := range []*cobra.Command{CheckCmd, RunsCmd, jobsListCmd} {
		_, err := run(t, cmd)
		assert.ErrorIs(t, err, cli.ErrNotInitialized, cmd.Name())
	}
}

package task

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	productivityTask "github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLocalModeTestApp creates a test application with SQLite for integration tests.
func setupLocalModeTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:           "test",
		UserID:           "00000000-0000-0000-0000-000000000001",
		SQLitePath:       filepath.Join(t.TempDir(), "test.db"),
		RunStore:         config.RunStoreMemory,
		CalendarProvider: config.CalendarStub,
		Notifier:         config.NotifierStub,
		WorkStart:        9 * time.Hour,
		WorkEnd:          17 * time.Hour,
		SlotGranularity:  time.Hour,
	}

	container, err := internalApp.NewContainer(context.Background(), cfg, nil, internalApp.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	app := cli.NewApp(container)
	cli.SetApp(app)
	t.Cleanup(func() { cli.SetApp(nil) })
	return app
}

func resetFlags() {
	priority = ""
	duration = 0
	dueDate = ""
	dependsOn = nil
}

func listTasks(t *testing.T, app *cli.App) []productivityTask.Task {
	t.Helper()
	ranked, err := app.PrioritizeTasksHandler.Handle(context.Background(), queries.PrioritizeTasksQuery{UserID: app.CurrentUserID})
	require.NoError(t, err)
	tasks := make([]productivityTask.Task, 0, len(ranked.Tasks))
	for _, rt := range ranked.Tasks {
		tasks = append(tasks, rt.Task)
	}
	return tasks
}

func TestAddCmd_CreatesTask(t *testing.T) {
	app := setupLocalModeTestApp(t)
	resetFlags()
	priority = "high"
	duration = 30

	var out bytes.Buffer
	addCmd.SetOut(&out)
	addCmd.SetContext(context.Background())

	require.NoError(t, addCmd.RunE(addCmd, []string{"Test", "task", "from", "CLI"}))
	assert.Contains(t, out.String(), "Created task: Test task from CLI")

	tasks := listTasks(t, app)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Test task from CLI", tasks[0].Title)
	assert.Equal(t, "high", tasks[0].Priority.String())
	assert.Equal(t, 30*time.Minute, tasks[0].EstimatedDuration)
}

func TestAddCmd_WithDueDate(t *testing.T) {
	app := setupLocalModeTestApp(t)
	resetFlags()
	dueDate = "2026-02-15"

	addCmd.SetOut(&bytes.Buffer{})
	addCmd.SetContext(context.Background())
	require.NoError(t, addCmd.RunE(addCmd, []string{"Task with due date"}))

	tasks := listTasks(t, app)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].DueDate)
	due := tasks[0].DueDate.In(time.Local)
	assert.Equal(t, 2026, due.Year())
	assert.Equal(t, time.February, due.Month())
	assert.Equal(t, 15, due.Day())
}

func TestAddCmd_InvalidInput(t *testing.T) {
	setupLocalModeTestApp(t)
	addCmd.SetContext(context.Background())

	t.Run("due date", func(t *testing.T) {
		resetFlags()
		dueDate = "invalid-date"
		err := addCmd.RunE(addCmd, []string{"Task with bad date"})
		assert.ErrorContains(t, err, "invalid due date format")
	})

	t.Run("dependency id", func(t *testing.T) {
		resetFlags()
		dependsOn = []string{"not-a-uuid"}
		err := addCmd.RunE(addCmd, []string{"Task"})
		assert.ErrorContains(t, err, "invalid dependency id")
	})

	t.Run("priority", func(t *testing.T) {
		resetFlags()
		priority = "whenever"
		err := addCmd.RunE(addCmd, []string{"Task"})
		assert.ErrorContains(t, err, "failed to create task")
	})
}

func TestStatusCmds(t *testing.T) {
	app := setupLocalModeTestApp(t)
	resetFlags()

	addCmd.SetOut(&bytes.Buffer{})
	addCmd.SetContext(context.Background())
	require.NoError(t, addCmd.RunE(addCmd, []string{"Lifecycle"}))
	id := listTasks(t, app)[0].ID.String()

	startCmd.SetContext(context.Background())
	completeCmd.SetContext(context.Background())
	cancelCmd.SetContext(context.Background())
	for _, cmd := range []*cobra.Command{startCmd, completeCmd, cancelCmd} {
		cmd.SetOut(&bytes.Buffer{})
	}

	require.NoError(t, startCmd.RunE(startCmd, []string{id}))
	assert.Equal(t, productivityTask.StatusInProgress, listTasks(t, app)[0].Status)

	require.NoError(t, completeCmd.RunE(completeCmd, []string{id}))
	assert.Equal(t, productivityTask.StatusCompleted, listTasks(t, app)[0].Status)

	t.Run("cancel after complete fails", func(t *testing.T) {
		err := cancelCmd.RunE(cancelCmd, []string{id})
		assert.ErrorIs(t, err, productivityTask.ErrTaskAlreadyComplete)
	})

	t.Run("invalid id", func(t *testing.T) {
		err := startCmd.RunE(startCmd, []string{"nope"})
		assert.ErrorContains(t, err, "invalid task ID")
	})
}

func TestAddCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)
	resetFlags()

	err := addCmd.RunE(addCmd, []string{"Orphan"})
	assert.ErrorIs(t, err, cli.ErrNotInitialized)
}

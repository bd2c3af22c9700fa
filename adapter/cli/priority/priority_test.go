package priority

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tasksJSON = `[
	{"id": "11111111-1111-1111-1111-111111111111", "title": "Someday", "priority": "low"},
	{"id": "22222222-2222-2222-2222-222222222222", "title": "Fire", "priority": "urgent", "due_date": "2020-01-01T09:00:00Z"},
	{"id": "33333333-3333-3333-3333-333333333333", "title": "Done", "priority": "high", "status": "completed", "completed_at": "2020-01-01T09:00:00Z"}
]`

func setupOfflineApp(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(tasksJSON), 0o600))

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
	container, err := internalApp.NewContainer(context.Background(), cfg, nil, internalApp.Options{TasksFile: path})
	require.NoError(t, err)

	cli.SetApp(cli.NewApp(container))
	t.Cleanup(func() { cli.SetApp(nil) })
}

func resetFlags() {
	defaults := services.DefaultScoringCriteria()
	limit = 0
	includeClosed = false
	onlyIDs = nil
	explain = false
	dueWeight = defaults.DueDateWeight
	priorityWeight = defaults.PriorityWeight
	statusWeight = defaults.StatusWeight
	dependencyWeight = defaults.DependencyWeight
	durationWeight = defaults.EstimatedDurationWeight
	for _, name := range []string{"due-weight", "priority-weight", "status-weight", "dependency-weight", "duration-weight"} {
		Cmd.Flags().Lookup(name).Changed = false
	}
	cli.SetJSONOutput(false)
}

func run(t *testing.T) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetContext(context.Background())
	err := Cmd.RunE(Cmd, nil)
	return out.String(), err
}

func TestPrioritizeCmd_RanksOpenTasks(t *testing.T) {
	setupOfflineApp(t)
	resetFlags()

	out, err := run(t)
	require.NoError(t, err)

	assert.Contains(t, out, "Prioritized tasks (2 of 2)")
	assert.Less(t, strings.Index(out, "Fire"), strings.Index(out, "Someday"))
	assert.NotContains(t, out, "Done")
	assert.Contains(t, out, "Overdue: 1")
}

func TestPrioritizeCmd_Options(t *testing.T) {
	setupOfflineApp(t)

	t.Run("include closed and limit", func(t *testing.T) {
		resetFlags()
		includeClosed = true
		limit = 1

		out, err := run(t)
		require.NoError(t, err)
		assert.Contains(t, out, "Prioritized tasks (1 of 3)")
	})

	t.Run("explain", func(t *testing.T) {
		resetFlags()
		explain = true

		out, err := run(t)
		require.NoError(t, err)
		assert.Contains(t, out, services.FactorDueDate)
		assert.Contains(t, out, "contributes")
	})

	t.Run("subset as json", func(t *testing.T) {
		resetFlags()
		onlyIDs = []string{"11111111-1111-1111-1111-111111111111"}
		cli.SetJSONOutput(true)
		defer cli.SetJSONOutput(false)

		out, err := run(t)
		require.NoError(t, err)

		var ranked services.RankedTasks
		require.NoError(t, json.Unmarshal([]byte(out), &ranked))
		require.Len(t, ranked.Tasks, 1)
		assert.Equal(t, "Someday", ranked.Tasks[0].Task.Title)
	})

	t.Run("negative weight", func(t *testing.T) {
		resetFlags()
		require.NoError(t, Cmd.Flags().Set("due-weight", "-1"))

		_, err := run(t)
		assert.ErrorIs(t, err, services.ErrInvalidCriteria)
	})

	t.Run("invalid subset id", func(t *testing.T) {
		resetFlags()
		onlyIDs = []string{"nope"}

		_, err := run(t)
		assert.ErrorContains(t, err, "invalid task id")
	})
}

func TestPrioritizeCmd_NoApp(t *testing.T) {
	cli.SetApp(nil)
	resetFlags()

	_, err := run(t)
	assert.ErrorIs(t, err, cli.ErrNotInitialized)
}

package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local)

func at(hour, minute int) string {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute).Format(time.RFC3339)
}

func setupOfflineApp(t *testing.T) {
	t.Helper()

	events := fmt.Sprintf(`[
		{"id": "standup", "title": "Standup", "start": %q, "end": %q},
		{"id": "review", "title": "Review", "start": %q, "end": %q}
	]`, at(9, 0), at(10, 0), at(9, 30), at(11, 0))
	eventsPath := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(eventsPath, []byte(events), 0o600))

	tasksPath := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(tasksPath, []byte(`[{"title": "Prepare slides", "priority": "urgent"}]`), 0o600))

	cfg := &config.Config{
		AppEnv:           "test",
		UserID:           "00000000-0000-0000-0000-000000000001",
		RunStore:         config.RunStoreMemory,
		CalendarProvider: config.CalendarStub,
		Notifier:         config.NotifierStub,
		WorkStart:        9 * time.Hour,
		WorkEnd:          17 * time.Hour,
		SlotGranularity:  time.Hour,
		HorizonDays:      3,
	}
	container, err := internalApp.NewContainer(context.Background(), cfg, nil, internalApp.Options{
		TasksFile:  tasksPath,
		EventsFile: eventsPath,
	})
	require.NoError(t, err)

	cli.SetApp(cli.NewApp(container))
	cli.SetJSONOutput(false)
	now = func() time.Time { return monday.Add(8 * time.Hour) }
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetJSONOutput(false)
		now = time.Now
	})
}

func run(t *testing.T, cmd *cobra.Command) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, nil)
	return out.String(), err
}

func TestAvailableCmd(t *testing.T) {
	setupOfflineApp(t)

	t.Run("lists free slots", func(t *testing.T) {
		availDate = "2024-01-15"
		availDuration = 60

		out, err := run(t, availableCmd)
		require.NoError(t, err)
		assert.Contains(t, out, "Free 60-minute slots on Monday, January 15, 2024")
		assert.Contains(t, out, "11:00-12:00")
		assert.NotContains(t, out, "09:00-10:00")
	})

	t.Run("json output", func(t *testing.T) {
		availDate = ""
		availDuration = 60
		cli.SetJSONOutput(true)
		defer cli.SetJSONOutput(false)

		out, err := run(t, availableCmd)
		require.NoError(t, err)

		var result queries.AvailableSlots
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Len(t, result.Slots, 6)
	})

	t.Run("invalid duration", func(t *testing.T) {
		availDate = ""
		availDuration = 0

		_, err := run(t, availableCmd)
		assert.ErrorIs(t, err, domain.ErrInvalidDuration)
	})

	t.Run("invalid date", func(t *testing.T) {
		availDate = "15-01-2024"
		availDuration = 60

		_, err := run(t, availableCmd)
		assert.ErrorContains(t, err, "invalid date")
	})
}

func TestSuggestCmd(t *testing.T) {
	setupOfflineApp(t)

	t.Run("recommends the freest day", func(t *testing.T) {
		suggestDuration = 60
		suggestHours = ""
		suggestPriority = "normal"
		suggestHorizon = 0

		out, err := run(t, suggestCmd)
		require.NoError(t, err)
		assert.Contains(t, out, "Recommended: Tuesday, January 16")
		assert.Contains(t, out, "Mon Jan 15")
	})

	t.Run("invalid inputs", func(t *testing.T) {
		suggestDuration = 60
		suggestHorizon = 0

		suggestHours = "morning"
		suggestPriority = "normal"
		_, err := run(t, suggestCmd)
		assert.ErrorContains(t, err, "invalid hour")

		suggestHours = ""
		suggestPriority = "asap"
		_, err = run(t, suggestCmd)
		assert.ErrorContains(t, err, "unknown meeting priority")
	})
}

func TestConflictsCmd(t *testing.T) {
	setupOfflineApp(t)
	conflictsDate = "2024-01-15"

	out, err := run(t, ConflictsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "1 conflict(s) on Monday, January 15, 2024")
	assert.Contains(t, out, "Standup overlaps Review during 09:30-10:00")

	conflictsDate = "2024-01-16"
	out, err = run(t, ConflictsCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No conflicts on Tuesday, January 16, 2024 (0 events)")
}

func TestBriefingCmd(t *testing.T) {
	setupOfflineApp(t)
	briefingDate = "2024-01-15"
	briefingDuration = 30
	briefingTop = 3

	out, err := run(t, BriefingCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Briefing for Monday, January 15")
	assert.Contains(t, out, "1 scheduling conflict today")
	assert.Contains(t, out, "Top task: Prepare slides")
	assert.Contains(t, out, "1. Prepare slides")
}

func TestCommands_NoApp(t *testing.T) {
	cli.SetApp(nil)

	for _, cmd := range []*cobra.Command{availableCmd, suggestCmd, ConflictsCmd, BriefingCmd} {
		_, err := run(t, cmd)
		assert.ErrorIs(t, err, cli.ErrNotInitialized, cmd.Name())
	}
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	automationApp "github.com/felixgeelhaar/cadence/internal/automations/application"
	automationPersistence "github.com/felixgeelhaar/cadence/internal/automations/infrastructure/persistence"
	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/felixgeelhaar/cadence/internal/productivity/infrastructure/persistence"
	schedQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:           "development",
		UserID:           "00000000-0000-0000-0000-000000000001",
		SQLitePath:       filepath.Join(t.TempDir(), "cadence.db"),
		RunStore:         config.RunStoreSQLite,
		CalendarProvider: config.CalendarStub,
		Notifier:         config.NotifierStub,
		WorkStart:        9 * time.Hour,
		WorkEnd:          17 * time.Hour,
		SlotGranularity:  time.Hour,
		HorizonDays:      7,
		BriefingCron:     "0 8 * * 1-5",
		ChecksCron:       "*/30 * * * *",
		BreakerFailures:  5,
		BreakerTimeout:   30 * time.Second,
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewContainer_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	c, err := NewContainer(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.False(t, c.Offline())
	require.NotNil(t, c.SQLiteDB)
	assert.Nil(t, c.Pool)
	assert.IsType(t, &persistence.SQLiteTaskRepository{}, c.TaskRepo)
	assert.IsType(t, &automationPersistence.SQLiteRunStore{}, c.RunStore)
	assert.IsType(t, &calendarApp.StubEventSource{}, c.EventSource)
	assert.IsType(t, &automationApp.StubNotifier{}, c.Notifier)
	assert.Equal(t, []string{"sqlite"}, c.Health.Names())

	t.Run("tasks round trip through the handlers", func(t *testing.T) {
		created, err := c.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
			UserID:   c.UserID,
			Title:    "Ship release",
			Priority: "urgent",
		})
		require.NoError(t, err)

		ranked, err := c.PrioritizeTasksHandler.Handle(ctx, queries.PrioritizeTasksQuery{UserID: c.UserID})
		require.NoError(t, err)
		require.Len(t, ranked.Tasks, 1)
		assert.Equal(t, created.TaskID, ranked.Tasks[0].Task.ID)
	})

	t.Run("jobs are recorded in the run store", func(t *testing.T) {
		run := c.Runner.Execute(ctx, automationApp.JobProactiveChecks, c.Jobs()[automationApp.JobProactiveChecks])
		assert.Equal(t, automationApp.JobProactiveChecks, run.Name)

		runs, err := c.RunStore.Recent(ctx, 10)
		require.NoError(t, err)
		require.NotEmpty(t, runs)
		assert.Equal(t, run.ID, runs[0].ID)
	})
}

func TestNewContainer_Offline(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SQLitePath = ""

	tasksFile := writeFile(t, "tasks.json", `[
		{"title": "Low", "priority": "low"},
		{"title": "Urgent", "priority": "urgent", "due_date": "2024-01-10T09:00:00Z"}
	]`)
	eventsFile := writeFile(t, "events.json", `[
		{"id": "a", "title": "Standup", "start": "2024-01-15T09:00:00Z", "end": "2024-01-15T10:00:00Z"},
		{"id": "b", "title": "Review", "start": "2024-01-15T09:30:00Z", "end": "2024-01-15T11:00:00Z"}
	]`)

	c, err := NewContainer(ctx, cfg, nil, Options{TasksFile: tasksFile, EventsFile: eventsFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.True(t, c.Offline())
	assert.Nil(t, c.SQLiteDB)
	assert.IsType(t, &persistence.MemoryTaskRepository{}, c.TaskRepo)
	assert.IsType(t, &automationPersistence.MemoryRunStore{}, c.RunStore)

	ranked, err := c.PrioritizeTasksHandler.Handle(ctx, queries.PrioritizeTasksQuery{UserID: c.UserID})
	require.NoError(t, err)
	require.Len(t, ranked.Tasks, 2)
	assert.Equal(t, "Urgent", ranked.Tasks[0].Task.Title)

	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	conflicts, err := c.DetectConflictsHandler.Handle(ctx, schedQueries.DetectConflictsQuery{UserID: c.UserID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, 2, conflicts.Events)
	assert.Len(t, conflicts.Conflicts, 1)

	slots, err := c.FindAvailableSlotsHandler.Handle(ctx, schedQueries.FindAvailableSlotsQuery{
		UserID:   c.UserID,
		Date:     day,
		Duration: time.Hour,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots.Slots)
	assert.Equal(t, 11, slots.Slots[0].Start.Hour())
}

func TestNewContainer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.RunStore = "tape"

		_, err := NewContainer(ctx, cfg, nil, Options{})
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("missing offline file", func(t *testing.T) {
		cfg := testConfig(t)

		_, err := NewContainer(ctx, cfg, nil, Options{TasksFile: filepath.Join(t.TempDir(), "missing.json")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed offline file", func(t *testing.T) {
		cfg := testConfig(t)
		path := writeFile(t, "events.json", `{"not": "an array"}`)

		_, err := NewContainer(ctx, cfg, nil, Options{EventsFile: path})
		assert.Error(t, err)
	})
}

func TestContainer_NewScheduler(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SQLitePath = ""

	c, err := NewContainer(ctx, cfg, nil, Options{TasksFile: writeFile(t, "tasks.json", `[]`)})
	require.NoError(t, err)

	scheduler, err := c.NewScheduler(time.UTC)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, job := range scheduler.Jobs() {
		names = append(names, job.Name)
	}
	assert.ElementsMatch(t, []string{automationApp.JobDailyBriefing, automationApp.JobProactiveChecks}, names)

	t.Run("invalid cron expression", func(t *testing.T) {
		c.Config.ChecksCron = "not a schedule"
		_, err := c.NewScheduler(time.UTC)
		assert.Error(t, err)
	})
}

func TestRepositoryFactory_RunStore(t *testing.T) {
	factory := NewSQLiteRepositoryFactory(nil)
	assert.Equal(t, database.DriverSQLite, factory.Driver())

	tests := []struct {
		kind    string
		wantErr bool
	}{
		{kind: config.RunStoreMemory},
		{kind: config.RunStoreSQLite, wantErr: true},
		{kind: config.RunStorePostgres, wantErr: true},
		{kind: config.RunStoreRedis, wantErr: true},
		{kind: "tape", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			store, err := factory.RunStore(tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}

	_, err := NewPostgresRepositoryFactory(nil).RunStore(config.RunStorePostgres)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

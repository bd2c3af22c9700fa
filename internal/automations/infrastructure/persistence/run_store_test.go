package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

func runAt(name string, offset time.Duration, succeeded, failed int, errs ...string) domain.Run {
	start := base.Add(offset)
	return domain.NewRun(name, start, start.Add(1500*time.Millisecond), succeeded, failed, errs)
}

// runStoreContract checks the behaviour shared by every RunStore.
func runStoreContract(t *testing.T, store domain.RunStore) {
	ctx := context.Background()

	empty, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := runAt("proactive-checks", 0, 4, 0)
	second := runAt("daily-briefing", time.Minute, 2, 1, "tasks: database locked")
	third := runAt("proactive-checks", 2*time.Minute, 0, 4, "a", "b", "c", "d")
	for _, run := range []domain.Run{first, second, third} {
		require.NoError(t, store.Record(ctx, run))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, third.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)

	got := recent[1]
	assert.Equal(t, "daily-briefing", got.Name)
	assert.Equal(t, domain.RunStatusPartial, got.Status)
	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, []string{"tasks: database locked"}, got.Errors)
	assert.True(t, second.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration())

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Nil(t, all[2].Errors)

	invalid := first
	invalid.Name = ""
	assert.ErrorIs(t, store.Record(ctx, invalid), domain.ErrInvalidRun)
}

func TestMemoryRunStore(t *testing.T) {
	runStoreContract(t, NewMemoryRunStore(0))
}

func TestMemoryRunStore_Capacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRunStore(3)

	for i := range 5 {
		require.NoError(t, store.Record(ctx, runAt(fmt.Sprintf("run-%d", i), time.Duration(i)*time.Minute, 1, 0)))
	}

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].Name)
	assert.Equal(t, "run-2", runs[2].Name)
}

func TestSQLiteRunStore(t *testing.T) {
	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runStoreContract(t, NewSQLiteRunStore(db))
}

func TestRedisRunEncoding(t *testing.T) {
	run := runAt("proactive-checks", 0, 3, 1, "overdue-tasks: boom")

	encoded, err := encodeRun(run)
	require.NoError(t, err)
	assert.Contains(t, encoded, `"status":"partial"`)

	decoded, err := decodeRun(encoded)
	require.NoError(t, err)
	assert.Equal(t, run.ID, decoded.ID)
	assert.Equal(t, run.Errors, decoded.Errors)
	assert.True(t, run.FinishedAt.Equal(decoded.FinishedAt))

	_, err = decodeRun("{not json")
	assert.Error(t, err)

	invalid := run
	invalid.Status = "unknown"
	_, err = encodeRun(invalid)
	assert.ErrorIs(t, err, domain.ErrInvalidRun)
}

func TestNewRedisRunStore_Defaults(t *testing.T) {
	store := NewRedisRunStore(nil, "", 0)

	assert.Equal(t, DefaultRunsKey, store.key)
	assert.Equal(t, DefaultRunCapacity, store.capacity)
}

var (
	_ domain.RunStore = (*MemoryRunStore)(nil)
	_ domain.RunStore = (*SQLiteRunStore)(nil)
	_ domain.RunStore = (*PostgresRunStore)(nil)
	_ domain.RunStore = (*RedisRunStore)(nil)
)

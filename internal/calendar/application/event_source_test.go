package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct {
	calls int
	err   error
}

func (f *failingSource) FetchEvents(context.Context, uuid.UUID, time.Time, time.Time) ([]domain.CalendarEvent, error) {
	f.calls++
	return nil, f.err
}

func TestStubEventSource_FetchEvents(t *testing.T) {
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	source := NewStubEventSource(
		domain.CalendarEvent{ID: "yesterday", Start: day.Add(-3 * time.Hour), End: day.Add(-2 * time.Hour)},
		domain.CalendarEvent{ID: "standup", Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 15*time.Minute)},
	)
	source.Add(domain.CalendarEvent{ID: "spans-midnight", Start: day.Add(23 * time.Hour), End: day.Add(25 * time.Hour)})

	events, err := source.FetchEvents(context.Background(), uuid.New(), day, day.AddDate(0, 0, 1))

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "standup", events[0].ID)
	assert.Equal(t, "spans-midnight", events[1].ID)

	empty, err := source.FetchEvents(context.Background(), uuid.New(), day.AddDate(0, 0, 5), day.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLoadEventsJSON(t *testing.T) {
	t.Run("decodes events", func(t *testing.T) {
		input := `[
			{"title": "Standup", "start": "2024-03-04T09:00:00Z", "end": "2024-03-04T09:15:00Z"},
			{"id": "review", "start": "2024-03-04T14:00:00Z", "end": "2024-03-04T15:00:00Z", "attendees": ["a@example.com"]}
		]`

		events, err := LoadEventsJSON(strings.NewReader(input))

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "event-1", events[0].ID)
		assert.Equal(t, "review", events[1].ID)
		assert.Equal(t, []string{"a@example.com"}, events[1].Attendees)
	})

	t.Run("rejects inverted events", func(t *testing.T) {
		input := `[{"id": "bad", "start": "2024-03-04T10:00:00Z", "end": "2024-03-04T09:00:00Z"}]`

		_, err := LoadEventsJSON(strings.NewReader(input))

		assert.ErrorIs(t, err, domain.ErrInvalidInterval)
	})
}

func TestResilientEventSource(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	t.Run("passes through results", func(t *testing.T) {
		stub := NewStubEventSource(domain.CalendarEvent{ID: "a", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)})
		source := NewResilientEventSource(stub, DefaultBreakerConfig("stub"), nil)

		events, err := source.FetchEvents(ctx, uuid.New(), start, end)

		require.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "closed", source.State())
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		upstreamErr := errors.New("503 service unavailable")
		failing := &failingSource{err: upstreamErr}
		config := DefaultBreakerConfig("caldav")
		config.FailureThreshold = 3
		config.Timeout = time.Hour
		source := NewResilientEventSource(failing, config, nil)

		for i := 0; i < 3; i++ {
			_, err := source.FetchEvents(ctx, uuid.New(), start, end)
			assert.ErrorIs(t, err, upstreamErr)
		}

		_, err := source.FetchEvents(ctx, uuid.New(), start, end)

		assert.ErrorIs(t, err, ErrCalendarUnavailable)
		assert.Equal(t, 3, failing.calls)
		assert.Equal(t, "open", source.State())
	})
}

package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourlySlots(day time.Time, hours ...int) []domain.TimeSlot {
	slots := make([]domain.TimeSlot, len(hours))
	for i, h := range hours {
		start := hourOf(day, h)
		slots[i] = domain.TimeSlot{Start: start, End: start.Add(time.Hour)}
	}
	return slots
}

func TestParseMeetingPriority(t *testing.T) {
	tests := []struct {
		input   string
		want    MeetingPriority
		wantErr bool
	}{
		{input: "", want: MeetingPriorityNormal},
		{input: "normal", want: MeetingPriorityNormal},
		{input: " HIGH ", want: MeetingPriorityHigh},
		{input: "low", want: MeetingPriorityLow},
		{input: "asap", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMeetingPriority(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlotRanker_RankDays(t *testing.T) {
	monday := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	ranker := NewSlotRanker(DefaultRankingConfig(), nil)

	t.Run("preferred hours outrank raw slot count", func(t *testing.T) {
		days := []DayAvailability{
			{Date: monday, Slots: hourlySlots(monday, 13, 14, 15, 16)},
			{Date: tuesday, Slots: hourlySlots(tuesday, 10, 11)},
		}

		result := ranker.RankDays(days, SchedulePreferences{PreferredHours: []int{10}})

		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, tuesday, result.Suggestions[0].Date)
		assert.InDelta(t, 60.0, result.Suggestions[0].Score, 0.0001)
		assert.InDelta(t, 40.0, result.Suggestions[1].Score, 0.0001)
		require.NotNil(t, result.Recommendation)
		assert.Equal(t, tuesday, result.Recommendation.Date)
	})

	t.Run("keeps the first three slots but scores all of them", func(t *testing.T) {
		days := []DayAvailability{
			{Date: monday, Slots: hourlySlots(monday, 9, 10, 11, 12, 13)},
		}

		result := ranker.RankDays(days, SchedulePreferences{})

		require.Len(t, result.Suggestions, 1)
		suggestion := result.Suggestions[0]
		assert.Len(t, suggestion.Slots, 3)
		assert.Equal(t, 5, suggestion.TotalSlots)
		assert.InDelta(t, 50.0, suggestion.Score, 0.0001)
		assert.Equal(t, 9, suggestion.Slots[0].Start.Hour())
	})

	t.Run("priority multiplier", func(t *testing.T) {
		days := []DayAvailability{
			{Date: monday, Slots: hourlySlots(monday, 10, 11)},
		}
		prefs := SchedulePreferences{PreferredHours: []int{10}}

		tests := []struct {
			priority MeetingPriority
			want     float64
		}{
			{priority: MeetingPriorityHigh, want: 90},
			{priority: MeetingPriorityNormal, want: 60},
			{priority: "", want: 60},
			{priority: MeetingPriorityLow, want: 48},
		}

		for _, tt := range tests {
			prefs.Priority = tt.priority
			result := ranker.RankDays(days, prefs)
			require.Len(t, result.Suggestions, 1)
			assert.InDelta(t, tt.want, result.Suggestions[0].Score, 0.0001, string(tt.priority))
		}
	})

	t.Run("each preferred hour adds its own bonus", func(t *testing.T) {
		days := []DayAvailability{
			{Date: monday, Slots: hourlySlots(monday, 10)},
		}

		result := ranker.RankDays(days, SchedulePreferences{PreferredHours: []int{9, 10, 11, 14}})

		require.Len(t, result.Suggestions, 1)
		assert.InDelta(t, 70.0, result.Suggestions[0].Score, 0.0001)
	})

	t.Run("ties keep chronological order", func(t *testing.T) {
		wednesday := monday.AddDate(0, 0, 2)
		days := []DayAvailability{
			{Date: monday, Slots: hourlySlots(monday, 9)},
			{Date: tuesday, Slots: hourlySlots(tuesday, 9)},
			{Date: wednesday, Slots: hourlySlots(wednesday, 9)},
		}

		result := ranker.RankDays(days, SchedulePreferences{})

		require.Len(t, result.Suggestions, 3)
		assert.Equal(t, monday, result.Suggestions[0].Date)
		assert.Equal(t, tuesday, result.Suggestions[1].Date)
		assert.Equal(t, wednesday, result.Suggestions[2].Date)
	})

	t.Run("days without slots are excluded", func(t *testing.T) {
		days := []DayAvailability{
			{Date: monday, Slots: nil},
			{Date: tuesday, Slots: []domain.TimeSlot{}},
		}

		result := ranker.RankDays(days, SchedulePreferences{})

		assert.Empty(t, result.Suggestions)
		assert.Nil(t, result.Recommendation)
	})
}

func TestSlotRanker_IntelligentSchedule(t *testing.T) {
	today := time.Date(2024, time.January, 15, 16, 45, 0, 0, time.UTC)
	tomorrow := time.Date(2024, time.January, 16, 0, 0, 0, 0, time.UTC)
	dayAfter := tomorrow.AddDate(0, 0, 1)
	ranker := NewSlotRanker(DefaultRankingConfig(), NewAvailabilityEngine(DefaultAvailabilityConfig()))

	t.Run("booked days are skipped", func(t *testing.T) {
		events := map[string][]domain.CalendarEvent{
			domain.DateKey(tomorrow): {
				{ID: "offsite", Start: hourOf(tomorrow, 9), End: hourOf(tomorrow, 17)},
			},
		}

		result, err := ranker.IntelligentSchedule(events, today, time.Hour, SchedulePreferences{}, 2)

		require.NoError(t, err)
		require.Len(t, result.Suggestions, 1)
		assert.Equal(t, dayAfter, result.Suggestions[0].Date)
		assert.Equal(t, 8, result.Suggestions[0].TotalSlots)
		require.NotNil(t, result.Recommendation)
		assert.Equal(t, dayAfter, result.Recommendation.Date)
	})

	t.Run("today is never considered", func(t *testing.T) {
		result, err := ranker.IntelligentSchedule(nil, today, time.Hour, SchedulePreferences{}, 1)

		require.NoError(t, err)
		require.Len(t, result.Suggestions, 1)
		assert.Equal(t, tomorrow, result.Suggestions[0].Date)
	})

	t.Run("default horizon", func(t *testing.T) {
		result, err := ranker.IntelligentSchedule(nil, today, 30*time.Minute, SchedulePreferences{}, 0)

		require.NoError(t, err)
		assert.Len(t, result.Suggestions, DefaultHorizonDays)
	})

	t.Run("busy days rank below free ones", func(t *testing.T) {
		events := map[string][]domain.CalendarEvent{
			domain.DateKey(tomorrow): {
				{ID: "focus", Start: hourOf(tomorrow, 9), End: hourOf(tomorrow, 13)},
			},
		}

		result, err := ranker.IntelligentSchedule(events, today, time.Hour, SchedulePreferences{}, 2)

		require.NoError(t, err)
		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, dayAfter, result.Suggestions[0].Date)
		assert.Equal(t, tomorrow, result.Suggestions[1].Date)
	})

	t.Run("invalid duration", func(t *testing.T) {
		result, err := ranker.IntelligentSchedule(nil, today, 0, SchedulePreferences{}, 3)

		assert.ErrorIs(t, err, domain.ErrInvalidDuration)
		assert.Nil(t, result)
	})

	t.Run("invalid event", func(t *testing.T) {
		events := map[string][]domain.CalendarEvent{
			domain.DateKey(dayAfter): {
				{ID: "bad", Start: hourOf(dayAfter, 12), End: hourOf(dayAfter, 11)},
			},
		}

		result, err := ranker.IntelligentSchedule(events, today, time.Hour, SchedulePreferences{}, 3)

		assert.ErrorIs(t, err, domain.ErrInvalidInterval)
		assert.Nil(t, result)
	})
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange_Overlaps(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		range1   TimeRange
		range2   TimeRange
		expected bool
	}{
		{
			name:     "overlapping ranges",
			range1:   TimeRange{Start: now, End: now.Add(2 * time.Hour)},
			range2:   TimeRange{Start: now.Add(1 * time.Hour), End: now.Add(3 * time.Hour)},
			expected: true,
		},
		{
			name:     "non-overlapping ranges",
			range1:   TimeRange{Start: now, End: now.Add(1 * time.Hour)},
			range2:   TimeRange{Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)},
			expected: false,
		},
		{
			name:     "touching ranges",
			range1:   TimeRange{Start: now, End: now.Add(1 * time.Hour)},
			range2:   TimeRange{Start: now.Add(1 * time.Hour), End: now.Add(2 * time.Hour)},
			expected: false,
		},
		{
			name:     "one contains the other",
			range1:   TimeRange{Start: now, End: now.Add(3 * time.Hour)},
			range2:   TimeRange{Start: now.Add(1 * time.Hour), End: now.Add(2 * time.Hour)},
			expected: true,
		},
		{
			name:     "same range",
			range1:   TimeRange{Start: now, End: now.Add(1 * time.Hour)},
			range2:   TimeRange{Start: now, End: now.Add(1 * time.Hour)},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.range1.Overlaps(tt.range2))
			assert.Equal(t, tt.expected, tt.range2.Overlaps(tt.range1), "overlap must be symmetric")
			assert.Equal(t, Overlaps(tt.range1, tt.range2), Overlaps(tt.range2, tt.range1))
		})
	}
}

func TestTimeRange_Validate(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	_, err := NewTimeRange(now, now)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewTimeRange(now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	r, err := NewTimeRange(now, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, r.Duration())
}

func TestTimeRange_Contains(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	r := TimeRange{Start: now, End: now.Add(time.Hour)}

	assert.True(t, r.Contains(now))
	assert.True(t, r.Contains(now.Add(59*time.Minute)))
	assert.False(t, r.Contains(now.Add(time.Hour)))
	assert.False(t, r.Contains(now.Add(-time.Minute)))
}

func TestTimeRange_Intersection(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	a := TimeRange{Start: now, End: now.Add(time.Hour)}
	b := TimeRange{Start: now.Add(30 * time.Minute), End: now.Add(90 * time.Minute)}

	overlap, ok := a.Intersection(b)
	require.True(t, ok)
	assert.Equal(t, now.Add(30*time.Minute), overlap.Start)
	assert.Equal(t, now.Add(time.Hour), overlap.End)

	_, ok = a.Intersection(TimeRange{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)})
	assert.False(t, ok)
}

func TestOverlapsAny(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	events := []CalendarEvent{
		{ID: "a", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
		{ID: "b", Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour)},
	}

	assert.True(t, OverlapsAny(TimeRange{Start: day.Add(14*time.Hour + 30*time.Minute), End: day.Add(16 * time.Hour)}, events))
	assert.False(t, OverlapsAny(TimeRange{Start: day.Add(10 * time.Hour), End: day.Add(14 * time.Hour)}, events))
	assert.False(t, OverlapsAny(TimeRange{Start: day, End: day.Add(time.Hour)}, nil))
}

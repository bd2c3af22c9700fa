package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("interval start must be before end")
	ErrInvalidDuration = errors.New("duration must be positive")
)

// TimeRange represents a half-open time period [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange creates a validated time range.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate returns ErrInvalidInterval unless Start is strictly before End.
func (t TimeRange) Validate() error {
	if !t.Start.Before(t.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps checks if two time ranges overlap. Touching ranges do not overlap.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return Overlaps(t, other)
}

// Contains checks if a time falls within the range.
func (t TimeRange) Contains(at time.Time) bool {
	return !at.Before(t.Start) && at.Before(t.End)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Intersection returns the shared part of two ranges and whether one exists.
func (t TimeRange) Intersection(other TimeRange) (TimeRange, bool) {
	if !t.Overlaps(other) {
		return TimeRange{}, false
	}
	start := t.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := t.End
	if other.End.Before(end) {
		end = other.End
	}
	return TimeRange{Start: start, End: end}, true
}

// Overlaps reports whether [a.Start, a.End) and [b.Start, b.End) intersect.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

package services

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// AvailabilityConfig contains configuration for the availability engine.
type AvailabilityConfig struct {
	WorkStart   time.Duration // offset from midnight, e.g. 9 * time.Hour
	WorkEnd     time.Duration // offset from midnight, e.g. 17 * time.Hour
	Granularity time.Duration // spacing of candidate start times

	// StrictContainment rejects candidates whose end passes WorkEnd.
	StrictContainment bool
}

// DefaultAvailabilityConfig returns a 09:00-17:00 working window on an hourly grid.
func DefaultAvailabilityConfig() AvailabilityConfig {
	return AvailabilityConfig{
		WorkStart:   9 * time.Hour,
		WorkEnd:     17 * time.Hour,
		Granularity: time.Hour,
	}
}

// AvailabilityEngine finds free slots of a requested duration in a working day.
type AvailabilityEngine struct {
	config AvailabilityConfig
}

// NewAvailabilityEngine creates a new availability engine.
func NewAvailabilityEngine(config AvailabilityConfig) *AvailabilityEngine {
	if config.Granularity <= 0 {
		config.Granularity = time.Hour
	}
	return &AvailabilityEngine{config: config}
}

// Config returns the engine configuration.
func (e *AvailabilityEngine) Config() AvailabilityConfig {
	return e.config
}

// ComputeAvailability returns the free slots on date's day, ascending and pairwise disjoint.
func (e *AvailabilityEngine) ComputeAvailability(
	events []domain.CalendarEvent,
	date time.Time,
	duration time.Duration,
) ([]domain.TimeSlot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("compute availability: %w", domain.ErrInvalidDuration)
	}
	if err := domain.ValidateEvents(events); err != nil {
		return nil, fmt.Errorf("compute availability: %w", err)
	}

	step := e.config.Granularity
	// Grid points are wall-clock times; they keep their local hour across DST changes.
	gridPoint := func(k int) time.Time {
		return domain.AtClock(date, e.config.WorkStart+time.Duration(k)*step)
	}
	workEnd := domain.AtClock(date, e.config.WorkEnd)

	slots := make([]domain.TimeSlot, 0)
	for k := 0; ; {
		start := gridPoint(k)
		if !start.Before(workEnd) {
			break
		}
		end := start.Add(duration)
		if e.config.StrictContainment && end.After(workEnd) {
			// Later grid points end even further out.
			break
		}

		candidate := domain.TimeRange{Start: start, End: end}
		if domain.OverlapsAny(candidate, events) {
			k++
			continue
		}

		slots = append(slots, domain.TimeSlot{Start: start, End: end})
		// Resume at the first grid point at or after the slot's end.
		k++
		for gridPoint(k).Before(end) {
			k++
		}
	}

	return slots, nil
}

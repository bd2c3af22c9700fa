package domain

import (
	"fmt"
	"time"
)

// CalendarEvent is a busy interval taken from a calendar. Events are read-only inputs.
type CalendarEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Attendees []string  `json:"attendees,omitempty"`
}

// Range returns the event's time range.
func (e CalendarEvent) Range() TimeRange {
	return TimeRange{Start: e.Start, End: e.End}
}

// Validate returns ErrInvalidInterval when the event does not start before it ends.
func (e CalendarEvent) Validate() error {
	if err := e.Range().Validate(); err != nil {
		return fmt.Errorf("event %q: %w", e.ID, err)
	}
	return nil
}

// ValidateEvents checks every event and fails on the first invalid one.
func ValidateEvents(events []CalendarEvent) error {
	for _, event := range events {
		if err := event.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OverlapsAny reports whether r overlaps any of the events.
func OverlapsAny(r TimeRange, events []CalendarEvent) bool {
	for _, event := range events {
		if r.Overlaps(event.Range()) {
			return true
		}
	}
	return false
}

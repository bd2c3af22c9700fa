package domain

import "time"

// DateLayout is the layout used for per-day keys.
const DateLayout = "2006-01-02"

// TimeSlot is a candidate range of the requested duration. Slots are derived per query.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the slot duration.
func (ts TimeSlot) Duration() time.Duration {
	return ts.End.Sub(ts.Start)
}

// Range returns the slot as a time range.
func (ts TimeSlot) Range() TimeRange {
	return TimeRange{Start: ts.Start, End: ts.End}
}

// StartOfDay normalizes t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtClock returns the wall-clock time offset after midnight on t's day, in
// t's location. Unlike Add, the hour stays put across DST transitions.
func AtClock(t time.Time, offset time.Duration) time.Time {
	h := offset / time.Hour
	m := (offset % time.Hour) / time.Minute
	sec := (offset % time.Minute) / time.Second
	ns := offset % time.Second
	return time.Date(t.Year(), t.Month(), t.Day(), int(h), int(m), int(sec), int(ns), t.Location())
}

// DateKey formats the calendar day of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

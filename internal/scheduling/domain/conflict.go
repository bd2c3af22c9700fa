package domain

import (
	"sort"
)

// ConflictPair describes two calendar events whose ranges overlap.
type ConflictPair struct {
	First   CalendarEvent `json:"first"`
	Second  CalendarEvent `json:"second"`
	Overlap TimeRange     `json:"overlap"`
}

// SortByStart returns a copy of the events ordered by start time.
// Events sharing a start time keep their input order.
func SortByStart(events []CalendarEvent) []CalendarEvent {
	sorted := make([]CalendarEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// DetectConflicts reports each pair of neighbouring events, in start order,
// where the earlier one ends after the later one begins.
func DetectConflicts(events []CalendarEvent) ([]ConflictPair, error) {
	if err := ValidateEvents(events); err != nil {
		return nil, err
	}

	conflicts := make([]ConflictPair, 0)
	if len(events) < 2 {
		return conflicts, nil
	}

	sorted := SortByStart(events)
	for i := 0; i < len(sorted)-1; i++ {
		a, b := sorted[i], sorted[i+1]
		if !a.End.After(b.Start) {
			continue
		}
		overlap, _ := a.Range().Intersection(b.Range())
		conflicts = append(conflicts, ConflictPair{
			First:   a,
			Second:  b,
			Overlap: overlap,
		})
	}

	return conflicts, nil
}

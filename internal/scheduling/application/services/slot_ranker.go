package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// DefaultHorizonDays is the number of days searched after today.
const DefaultHorizonDays = 7

// MeetingPriority biases day scores for a request.
type MeetingPriority string

const (
	MeetingPriorityLow    MeetingPriority = "low"
	MeetingPriorityNormal MeetingPriority = "normal"
	MeetingPriorityHigh   MeetingPriority = "high"
)

// ParseMeetingPriority parses a priority label. Empty means normal.
func ParseMeetingPriority(s string) (MeetingPriority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "medium":
		return MeetingPriorityNormal, nil
	case "high":
		return MeetingPriorityHigh, nil
	case "low":
		return MeetingPriorityLow, nil
	default:
		return "", fmt.Errorf("unknown meeting priority %q", s)
	}
}

// SchedulePreferences describes what the requester favors.
type SchedulePreferences struct {
	PreferredHours []int           `json:"preferred_hours,omitempty"`
	Priority       MeetingPriority `json:"priority,omitempty"`
}

// RankingConfig holds the scoring constants for day ranking.
type RankingConfig struct {
	SlotWeight          float64
	PreferenceBonus     float64
	PreferenceTolerance int // hours
	HighMultiplier      float64
	LowMultiplier       float64
	MaxSlotsPerDay      int
}

// DefaultRankingConfig returns the default ranking constants.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		SlotWeight:          10,
		PreferenceBonus:     20,
		PreferenceTolerance: 1,
		HighMultiplier:      1.5,
		LowMultiplier:       0.8,
		MaxSlotsPerDay:      3,
	}
}

// DayAvailability is the computed availability of one day. Nil slots count as none.
type DayAvailability struct {
	Date  time.Time
	Slots []domain.TimeSlot
}

// DaySuggestion is a scored candidate day.
type DaySuggestion struct {
	Date       time.Time         `json:"date"`
	Score      float64           `json:"score"`
	TotalSlots int               `json:"total_slots"`
	Slots      []domain.TimeSlot `json:"slots"`
}

// ScheduleSuggestions is the ranked output of a multi-day search.
type ScheduleSuggestions struct {
	Suggestions    []DaySuggestion `json:"suggestions"`
	Recommendation *DaySuggestion  `json:"recommendation"`
}

// SlotRanker scores candidate days for a meeting.
type SlotRanker struct {
	config       RankingConfig
	availability *AvailabilityEngine
}

// NewSlotRanker creates a ranker that computes availability with the given engine.
func NewSlotRanker(config RankingConfig, availability *AvailabilityEngine) *SlotRanker {
	if availability == nil {
		availability = NewAvailabilityEngine(DefaultAvailabilityConfig())
	}
	return &SlotRanker{config: config, availability: availability}
}

// IntelligentSchedule searches today+1 through today+horizonDays and ranks the days.
// perDayEvents is keyed by domain.DateKey; a missing key means a free day.
func (r *SlotRanker) IntelligentSchedule(
	perDayEvents map[string][]domain.CalendarEvent,
	today time.Time,
	duration time.Duration,
	prefs SchedulePreferences,
	horizonDays int,
) (*ScheduleSuggestions, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("intelligent schedule: %w", domain.ErrInvalidDuration)
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	start := domain.StartOfDay(today)
	days := make([]DayAvailability, 0, horizonDays)
	for offset := 1; offset <= horizonDays; offset++ {
		date := start.AddDate(0, 0, offset)
		slots, err := r.availability.ComputeAvailability(perDayEvents[domain.DateKey(date)], date, duration)
		if err != nil {
			return nil, fmt.Errorf("intelligent schedule %s: %w", domain.DateKey(date), err)
		}
		days = append(days, DayAvailability{Date: date, Slots: slots})
	}

	return r.RankDays(days, prefs), nil
}

// RankDays scores each day, drops days without slots and sorts by score descending.
// Ties keep input order.
func (r *SlotRanker) RankDays(days []DayAvailability, prefs SchedulePreferences) *ScheduleSuggestions {
	suggestions := make([]DaySuggestion, 0, len(days))
	for _, day := range days {
		if len(day.Slots) == 0 {
			continue
		}

		kept := day.Slots
		if r.config.MaxSlotsPerDay > 0 && len(kept) > r.config.MaxSlotsPerDay {
			kept = kept[:r.config.MaxSlotsPerDay]
		}
		slots := make([]domain.TimeSlot, len(kept))
		copy(slots, kept)

		suggestions = append(suggestions, DaySuggestion{
			Date:       day.Date,
			Score:      r.scoreDay(day.Slots, prefs),
			TotalSlots: len(day.Slots),
			Slots:      slots,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	result := &ScheduleSuggestions{Suggestions: suggestions}
	if len(suggestions) > 0 {
		best := suggestions[0]
		result.Recommendation = &best
	}
	return result
}

func (r *SlotRanker) scoreDay(slots []domain.TimeSlot, prefs SchedulePreferences) float64 {
	score := float64(len(slots)) * r.config.SlotWeight

	for _, slot := range slots {
		hour := slot.Start.Hour()
		for _, preferred := range prefs.PreferredHours {
			if abs(hour-preferred) <= r.config.PreferenceTolerance {
				score += r.config.PreferenceBonus
			}
		}
	}

	switch prefs.Priority {
	case MeetingPriorityHigh:
		score *= r.config.HighMultiplier
	case MeetingPriorityLow:
		score *= r.config.LowMultiplier
	}

	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

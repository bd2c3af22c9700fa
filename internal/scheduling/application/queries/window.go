package queries

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// dayWindow is the fetch window for one day's availability: the whole
// calendar day, stretched to cover slots running past WorkEnd.
func dayWindow(date time.Time, cfg services.AvailabilityConfig, duration time.Duration) domain.TimeRange {
	midnight := domain.StartOfDay(date)
	end := midnight.AddDate(0, 0, 1)
	if latest := domain.AtClock(midnight, cfg.WorkEnd).Add(duration); latest.After(end) {
		end = latest
	}
	return domain.TimeRange{Start: midnight, End: end}
}

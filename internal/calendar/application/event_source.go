package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// ErrCalendarUnavailable is returned while the breaker around a live source is open.
var ErrCalendarUnavailable = errors.New("calendar provider unavailable")

// EventSource provides the busy events of a user within [start, end).
type EventSource interface {
	FetchEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error)
}

// StubEventSource serves a fixed set of events from memory.
type StubEventSource struct {
	mu     sync.RWMutex
	events []domain.CalendarEvent
}

// NewStubEventSource creates a stub seeded with events.
func NewStubEventSource(events ...domain.CalendarEvent) *StubEventSource {
	return &StubEventSource{events: append([]domain.CalendarEvent(nil), events...)}
}

// LoadEventsJSON decodes a JSON array of calendar events.
func LoadEventsJSON(r io.Reader) ([]domain.CalendarEvent, error) {
	var events []domain.CalendarEvent
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = fmt.Sprintf("event-%d", i+1)
		}
	}
	if err := domain.ValidateEvents(events); err != nil {
		return nil, err
	}
	return events, nil
}

// Add appends events to the stub.
func (s *StubEventSource) Add(events ...domain.CalendarEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// FetchEvents returns the stored events overlapping [start, end).
func (s *StubEventSource) FetchEvents(_ context.Context, _ uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := domain.TimeRange{Start: start, End: end}
	events := make([]domain.CalendarEvent, 0)
	for _, event := range s.events {
		if event.Range().Overlaps(window) {
			events = append(events, event)
		}
	}
	return events, nil
}

// BreakerConfig configures the circuit breaker around a live source.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig trips after 5 consecutive failures and retries after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// ResilientEventSource guards another source with a circuit breaker.
type ResilientEventSource struct {
	next    EventSource
	breaker *gobreaker.CircuitBreaker[[]domain.CalendarEvent]
	logger  *slog.Logger
}

// NewResilientEventSource wraps next with a circuit breaker.
func NewResilientEventSource(next EventSource, config BreakerConfig, logger *slog.Logger) *ResilientEventSource {
	if logger == nil {
		logger = slog.Default()
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("calendar circuit breaker state changed",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &ResilientEventSource{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]domain.CalendarEvent](settings),
		logger:  logger,
	}
}

// FetchEvents delegates to the wrapped source unless the breaker is open.
func (s *ResilientEventSource) FetchEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	events, err := s.breaker.Execute(func() ([]domain.CalendarEvent, error) {
		return s.next.FetchEvents(ctx, userID, start, end)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	return events, err
}

// State reports the breaker state.
func (s *ResilientEventSource) State() string {
	return s.breaker.State().String()
}

package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// EventSource reads busy events from a CalDAV calendar (Apple Calendar, Fastmail, Nextcloud, etc.).
type EventSource struct {
	baseURL      string
	username     string
	password     string // App-specific password for Apple
	calendarPath string // Specific calendar path, or empty for the first calendar
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewEventSource creates a CalDAV event source.
func NewEventSource(baseURL, username, password string, logger *slog.Logger) *EventSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSource{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (s *EventSource) WithCalendarPath(path string) *EventSource {
	s.calendarPath = path
	return s
}

// FetchEvents returns the VEVENT instances overlapping [start, end), with
// recurring events expanded. Cancelled and transparent events are skipped.
func (s *EventSource) FetchEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(s.httpClient, s.username, s.password), s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	calPath, err := s.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:   ical.CompCalendar,
			Props:  []string{ical.PropVersion},
			Expand: &caldav.CalendarExpandRequest{Start: start, End: end},
			Comps: []caldav.CalendarCompRequest{
				{
					Name: ical.CompEvent,
					Props: []string{
						ical.PropSummary, ical.PropDateTimeStart, ical.PropDateTimeEnd, ical.PropDuration,
						ical.PropUID, ical.PropStatus, ical.PropTransparency, ical.PropAttendee,
						ical.PropRecurrenceID, ical.PropRecurrenceRule, ical.PropRecurrenceDates, ical.PropExceptionDates,
					},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{
					Name:  ical.CompEvent,
					Start: start,
					End:   end,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(objects))
	for i := range objects {
		events = append(events, parseCalendarObject(&objects[i], start, end)...)
	}

	s.logger.DebugContext(ctx, "fetched caldav events",
		"user_id", userID,
		"calendar", calPath,
		"count", len(events),
	)
	return events, nil
}

func (s *EventSource) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if s.calendarPath != "" {
		return s.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	s.calendarPath = cals[0].Path
	return s.calendarPath, nil
}

func parseCalendarObject(obj *caldav.CalendarObject, start, end time.Time) []domain.CalendarEvent {
	if obj == nil || obj.Data == nil {
		return nil
	}
	return parseCalendar(obj.Data, obj.Path, start, end)
}

// parseCalendar converts the VEVENTs of cal into busy events overlapping
// [start, end). Recurring masters are expanded into occurrences; an instance
// carrying a RECURRENCE-ID replaces the occurrence it overrides.
func parseCalendar(cal *ical.Calendar, fallbackID string, start, end time.Time) []domain.CalendarEvent {
	loc := start.Location()
	window := domain.TimeRange{Start: start, End: end}

	var events []domain.CalendarEvent
	var masters []*ical.Component
	overridden := make(map[int64]struct{})
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if child.Props.Get(ical.PropRecurrenceID) == nil {
			masters = append(masters, child)
			continue
		}

		rid, err := child.Props.DateTime(ical.PropRecurrenceID, loc)
		if err != nil {
			continue
		}
		overridden[rid.Unix()] = struct{}{}
		event, ok := convertEvent(child, fallbackID, loc)
		if !ok {
			continue
		}
		event.ID = occurrenceID(event.ID, rid)
		if event.Range().Overlaps(window) {
			events = append(events, event)
		}
	}

	for _, master := range masters {
		event, ok := convertEvent(master, fallbackID, loc)
		if !ok {
			continue
		}
		set, err := (&ical.Event{Component: master}).RecurrenceSet(loc)
		if err != nil || set == nil {
			if event.Range().Overlaps(window) {
				events = append(events, event)
			}
			continue
		}

		length := event.End.Sub(event.Start)
		for _, at := range set.Between(start.Add(-length), end, true) {
			if _, ok := overridden[at.Unix()]; ok {
				continue
			}
			occurrence := event
			occurrence.ID = occurrenceID(event.ID, at)
			occurrence.Start, occurrence.End = at, at.Add(length)
			if occurrence.Range().Overlaps(window) {
				events = append(events, occurrence)
			}
		}
	}

	return events
}

// convertEvent maps one VEVENT. Cancelled, transparent and malformed events
// report false.
func convertEvent(child *ical.Component, fallbackID string, loc *time.Location) (domain.CalendarEvent, bool) {
	if props := child.Props[ical.PropStatus]; len(props) > 0 && strings.EqualFold(props[0].Value, "CANCELLED") {
		return domain.CalendarEvent{}, false
	}
	if props := child.Props[ical.PropTransparency]; len(props) > 0 && strings.EqualFold(props[0].Value, "TRANSPARENT") {
		return domain.CalendarEvent{}, false
	}

	event := domain.CalendarEvent{ID: fallbackID}
	if props := child.Props[ical.PropUID]; len(props) > 0 {
		event.ID = props[0].Value
	}
	if props := child.Props[ical.PropSummary]; len(props) > 0 {
		event.Title = props[0].Value
	}
	for _, att := range child.Props[ical.PropAttendee] {
		event.Attendees = append(event.Attendees, strings.TrimPrefix(strings.ToLower(att.Value), "mailto:"))
	}

	icalEvent := &ical.Event{Component: child}
	start, err := icalEvent.DateTimeStart(loc)
	if err != nil {
		return domain.CalendarEvent{}, false
	}
	end, err := icalEvent.DateTimeEnd(loc)
	if err != nil {
		return domain.CalendarEvent{}, false
	}
	event.Start, event.End = start, end

	if event.Validate() != nil {
		return domain.CalendarEvent{}, false
	}
	return event, true
}

func occurrenceID(uid string, at time.Time) string {
	return uid + "@" + at.UTC().Format("20060102T150405Z")
}

package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/calendar/v3"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/auth"
)

// Config holds the OAuth client and calendar selection.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
	BaseURL      string
}

// EventSource reads busy events from the Google Calendar REST API.
type EventSource struct {
	client     *http.Client
	baseURL    string
	calendarID string
	logger     *slog.Logger
}

// NewEventSource creates a source that refreshes access tokens from cfg.RefreshToken.
func NewEventSource(ctx context.Context, cfg Config, logger *slog.Logger) (*EventSource, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("google calendar requires client id, client secret and refresh token")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  defaultAuthURL,
			TokenURL: defaultTokenURL,
		},
		Scopes: []string{"https://www.googleapis.com/auth/calendar.readonly"},
	}
	tokens := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return NewEventSourceWithTokenSource(tokens, cfg, logger), nil
}

// NewEventSourceWithTokenSource creates a source from an existing token source.
func NewEventSourceWithTokenSource(tokens oauth2.TokenSource, cfg Config, logger *slog.Logger) *EventSource {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}

	return &EventSource{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, tokens),
				Base:   http.DefaultTransport,
			},
		},
		baseURL:    cfg.BaseURL,
		calendarID: cfg.CalendarID,
		logger:     logger,
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type eventItem struct {
	ID           string    `json:"id"`
	Summary      string    `json:"summary"`
	Status       string    `json:"status"`
	Transparency string    `json:"transparency"`
	Start        eventTime `json:"start"`
	End          eventTime `json:"end"`
	Attendees    []struct {
		Email string `json:"email"`
	} `json:"attendees"`
}

type eventList struct {
	Items         []eventItem `json:"items"`
	NextPageToken string      `json:"nextPageToken"`
}

// FetchEvents lists single events overlapping [start, end). Cancelled and
// transparent (free) events are skipped.
func (s *EventSource) FetchEvents(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.CalendarEvent, error) {
	events := make([]domain.CalendarEvent, 0)
	pageToken := ""

	for {
		page, err := s.fetchPage(ctx, start, end, pageToken)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			event, ok := toCalendarEvent(item, start.Location())
			if !ok {
				continue
			}
			events = append(events, event)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	s.logger.DebugContext(ctx, "fetched google calendar events",
		"user_id", userID,
		"calendar_id", s.calendarID,
		"count", len(events),
	)
	return events, nil
}

func (s *EventSource) fetchPage(ctx context.Context, start, end time.Time, pageToken string) (*eventList, error) {
	query := url.Values{}
	query.Set("timeMin", start.UTC().Format(time.RFC3339))
	query.Set("timeMax", end.UTC().Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", s.baseURL, url.PathEscape(s.calendarID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var page eventList
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return &page, nil
}

func toCalendarEvent(item eventItem, loc *time.Location) (domain.CalendarEvent, bool) {
	if item.Status == "cancelled" || item.Transparency == "transparent" {
		return domain.CalendarEvent{}, false
	}

	event := domain.CalendarEvent{ID: item.ID, Title: item.Summary}
	for _, att := range item.Attendees {
		event.Attendees = append(event.Attendees, att.Email)
	}

	switch {
	case item.Start.DateTime != "" && item.End.DateTime != "":
		startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		endTime, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		event.Start, event.End = startTime, endTime
	case item.Start.Date != "" && item.End.Date != "":
		// All-day events block the whole local day.
		startTime, err := time.ParseInLocation(domain.DateLayout, item.Start.Date, loc)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		endTime, err := time.ParseInLocation(domain.DateLayout, item.End.Date, loc)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		event.Start, event.End = startTime, endTime
	default:
		return domain.CalendarEvent{}, false
	}

	if event.Validate() != nil {
		return domain.CalendarEvent{}, false
	}
	return event, true
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("google calendar request failed: status=%d body=%s", resp.StatusCode, string(body))
}

package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Calendar API
type Client struct {
	service *calendar.Service
}

// NewClient creates a client authorized by oauth and token.
func NewClient(ctx context.Context, oauth *OAuthClient, token *oauth2.Token) (*Client, error) {
	service, err := oauth.CalendarService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{service: service}, nil
}

// NewClientWithOptions creates a client from raw API options, e.g. a custom
// endpoint and HTTP client.
func NewClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{service: service}, nil
}

// Event is a remote calendar event reduced to what a note needs.
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Start       time.Time  `json:"start"` // local midnight for all-day events
	AllDay      bool       `json:"all_day"`
	Reminders   []Reminder `json:"reminders"`
	Updated     time.Time  `json:"updated"`
}

// Reminder represents an event reminder
type Reminder struct {
	Method  string `json:"method"` // email, popup
	Minutes int    `json:"minutes"`
}

// ListEvents returns the events of calendarID starting within [from, to),
// with recurring events expanded into single instances.
func (c *Client) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	var events []Event
	call := c.service.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		OrderBy("startTime")

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if ev, ok := convertEvent(item); ok {
				events = append(events, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// convertEvent maps an API event. Cancelled events and events without a
// usable start are dropped.
func convertEvent(item *calendar.Event) (Event, bool) {
	if item == nil || item.Status == "cancelled" || item.Start == nil {
		return Event{}, false
	}

	ev := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}

	switch {
	case item.Start.DateTime != "":
		t, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return Event{}, false
		}
		ev.Start = t.In(time.Local)
	case item.Start.Date != "":
		t, err := time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
		if err != nil {
			return Event{}, false
		}
		ev.Start = t
		ev.AllDay = true
	default:
		return Event{}, false
	}

	if item.Updated != "" {
		ev.Updated, _ = time.Parse(time.RFC3339, item.Updated)
	}

	if item.Reminders != nil {
		for _, r := range item.Reminders.Overrides {
			ev.Reminders = append(ev.Reminders, Reminder{Method: r.Method, Minutes: int(r.Minutes)})
		}
	}
	return ev, true
}

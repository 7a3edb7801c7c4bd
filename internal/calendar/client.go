package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/roomdesk/roomdesk/internal/booking"
	"github.com/roomdesk/roomdesk/internal/google"
	"github.com/roomdesk/roomdesk/internal/instrumentation"
)

// calendarID is the calendar every reservation lives on: the authenticated
// user's primary calendar. Room resources are attached as attendees.
const calendarID = "primary"

// Client wraps the Google Calendar service for a single authenticated user.
// It implements booking.CalendarProvider.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client on top of an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewClientWithProvider creates a Calendar client from a token provider.
// This is the STDIO path, where the token comes from the local token file.
func NewClientWithProvider(ctx context.Context, conf google.Config, provider google.TokenProvider) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := provider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token: %w", err)
	}

	return NewClient(ctx, conf.HTTPClient(ctx, token))
}

// BusyIntervals queries freebusy for the given resource addresses and returns
// busy ranges keyed by address. Addresses absent from the response have no
// busy data in the window.
func (c *Client) BusyIntervals(ctx context.Context, emails []string, start, end time.Time, timeZone string) (_ map[string][]booking.TimeRange, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "freebusy")
	defer func() { instrumentation.EndSpan(span, err) }()

	items := make([]*calendar.FreeBusyRequestItem, len(emails))
	for i, email := range emails {
		items[i] = &calendar.FreeBusyRequestItem{Id: email}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: timeZone,
		Items:    items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	busy := make(map[string][]booking.TimeRange, len(result.Calendars))
	for email, cal := range result.Calendars {
		for _, interval := range cal.Busy {
			rangeStart, err := time.Parse(time.RFC3339, interval.Start)
			if err != nil {
				return nil, fmt.Errorf("failed to parse busy interval start: %w", err)
			}
			rangeEnd, err := time.Parse(time.RFC3339, interval.End)
			if err != nil {
				return nil, fmt.Errorf("failed to parse busy interval end: %w", err)
			}
			busy[email] = append(busy[email], booking.TimeRange{Start: rangeStart, End: rangeEnd})
		}
	}

	return busy, nil
}

// CreateEvent inserts a new event on the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, payload booking.EventPayload) (_ *booking.Event, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.insert")
	defer func() { instrumentation.EndSpan(span, err) }()

	event := apiEvent(payload)

	call := c.svc.Events.Insert(calendarID, event).Context(ctx)
	if _, ok := payload.Conference.Get(); ok {
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	result := toEvent(created)
	return &result, nil
}

// UpdateEvent rewrites an existing event with the payload. An absent
// conference in the payload removes any conferencing block the event carries.
func (c *Client) UpdateEvent(ctx context.Context, id string, payload booking.EventPayload) (_ *booking.Event, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.update")
	defer func() { instrumentation.EndSpan(span, err) }()

	existing, err := c.svc.Events.Get(calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	event := apiEvent(payload)
	event.Sequence = existing.Sequence

	if _, ok := payload.Conference.Get(); !ok {
		// Clearing requires an explicit null, not just a zero value.
		event.ConferenceData = nil
		event.NullFields = append(event.NullFields, "ConferenceData")
	}

	updated, err := c.svc.Events.Update(calendarID, id, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	result := toEvent(updated)
	return &result, nil
}

// UpdateEventEnd moves only the event's end time, leaving every other field
// (including conferencing data) untouched.
func (c *Client) UpdateEventEnd(ctx context.Context, id string, end time.Time) (_ *booking.Event, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.patch")
	defer func() { instrumentation.EndSpan(span, err) }()

	existing, err := c.svc.Events.Get(calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", err)
	}

	timeZone := ""
	if existing.End != nil {
		timeZone = existing.End.TimeZone
	}

	patch := &calendar.Event{
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: timeZone,
		},
	}

	updated, err := c.svc.Events.Patch(calendarID, id, patch).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event end: %w", err)
	}

	result := toEvent(updated)
	return &result, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(ctx context.Context, id string) (_ *booking.Event, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.get")
	defer func() { instrumentation.EndSpan(span, err) }()

	event, err := c.svc.Events.Get(calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	result := toEvent(event)
	return &result, nil
}

// DeleteEvent deletes a calendar event.
func (c *Client) DeleteEvent(ctx context.Context, id string) (err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.delete")
	defer func() { instrumentation.EndSpan(span, err) }()

	if err := c.svc.Events.Delete(calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// ListEvents lists the user's events within a time range, expanded to single
// instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, start, end time.Time, timeZone string) (_ []booking.Event, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.list")
	defer func() { instrumentation.EndSpan(span, err) }()

	call := c.svc.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if timeZone != "" {
		call = call.TimeZone(timeZone)
	}

	var events []booking.Event
	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		for _, event := range result.Items {
			events = append(events, toEvent(event))
		}
		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return events, nil
}

package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/roomdesk/roomdesk/internal/booking"
)

// eventColorID is the fixed event color applied to reservations so they are
// recognizable on the user's calendar.
const eventColorID = "3"

// createdAtProperty is the private extended property carrying the write
// timestamp used to order events with identical start times.
const createdAtProperty = "createdAt"

// apiEvent converts a write payload to the Google Calendar wire type.
func apiEvent(payload booking.EventPayload) *calendar.Event {
	timeZone := payload.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}

	event := &calendar.Event{
		Summary:     payload.Summary,
		Description: payload.Description,
		Location:    payload.Location,
		ColorId:     eventColorID,
		Start: &calendar.EventDateTime{
			DateTime: payload.Start.Format(time.RFC3339),
			TimeZone: timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: payload.End.Format(time.RFC3339),
			TimeZone: timeZone,
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				createdAtProperty: payload.CreatedAt.UTC().Format(time.RFC3339),
			},
		},
	}

	for _, email := range payload.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{
			Email: email,
		})
	}

	if conference, ok := payload.Conference.Get(); ok {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: conference.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: conference.Type,
				},
			},
		}
	}

	return event
}

// toEvent converts a Google Calendar event to the provider-neutral type.
func toEvent(event *calendar.Event) booking.Event {
	result := booking.Event{
		ID:       event.Id,
		Summary:  event.Summary,
		Location: event.Location,
	}

	if event.Start != nil {
		result.TimeZone = event.Start.TimeZone
		if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
			result.Start = t
		}
	}
	if event.End != nil {
		if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
			result.End = t
		}
	}

	for _, att := range event.Attendees {
		result.Attendees = append(result.Attendees, booking.Attendee{
			Email:          att.Email,
			Resource:       att.Resource,
			ResponseStatus: att.ResponseStatus,
		})
	}

	result.MeetLink = meetLink(event)
	result.CreatedAt = createdAt(event)

	return result
}

// meetLink extracts the conference link, preferring the explicit video entry
// point over the legacy hangout link.
func meetLink(event *calendar.Event) string {
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return event.HangoutLink
}

// createdAt reads the private write timestamp, falling back to the event's
// provider creation time for events written by other clients.
func createdAt(event *calendar.Event) time.Time {
	if event.ExtendedProperties != nil {
		if stamp, ok := event.ExtendedProperties.Private[createdAtProperty]; ok {
			if t, err := time.Parse(time.RFC3339, stamp); err == nil {
				return t
			}
		}
	}
	if t, err := time.Parse(time.RFC3339, event.Created); err == nil {
		return t
	}
	return time.Time{}
}

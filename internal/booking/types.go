package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Room is an immutable snapshot of a bookable conference room pulled from the
// organizational directory. The cache/refresh policy lives with the directory
// provider; the core never assumes freshness beyond "as of last fetch".
type Room struct {
	ID          string
	Email       string // canonical key; the addressable calendar resource
	Name        string
	Description string
	Domain      string
	Floor       string // organization-assigned label, e.g. "F3"
	Seats       int64
}

// TimeRange is a half-open interval [Start, End). It doubles as a busy
// interval and as a query window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Attendee is a participant on a provider-side event. Resource attendees are
// rooms and other bookable equipment, not people.
type Attendee struct {
	Email          string
	Resource       bool
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
}

// Event is the provider-side view of a reservation.
type Event struct {
	ID        string
	Summary   string
	Location  string
	Start     time.Time
	End       time.Time
	TimeZone  string
	Attendees []Attendee
	MeetLink  string
	// CreatedAt orders events with identical start times. It is stamped on
	// every write and must not be read as the original booking time.
	CreatedAt time.Time
}

// RoomAttendee returns the event's room: the first resource attendee that has
// not declined.
func (e *Event) RoomAttendee() (Attendee, bool) {
	for _, att := range e.Attendees {
		if att.Resource && att.ResponseStatus != ResponseDeclined {
			return att, true
		}
	}
	return Attendee{}, false
}

// ResponseDeclined is the provider's response status for a declined invite.
const ResponseDeclined = "declined"

// ConferenceTypeMeet is the fixed conference solution requested for new
// conferencing blocks.
const ConferenceTypeMeet = "hangoutsMeet"

// ConferenceRequest asks the calendar provider to attach a conference to an
// event.
type ConferenceRequest struct {
	RequestID string // opaque, random per request
	Type      string
}

// NewConferenceRequest returns a conference request with a fresh opaque id.
func NewConferenceRequest() ConferenceRequest {
	return ConferenceRequest{
		RequestID: uuid.NewString(),
		Type:      ConferenceTypeMeet,
	}
}

// EventPayload is the write model handed to the calendar provider.
//
// Conference distinguishes "attach a conference" (Some) from "explicitly
// cleared" (None). An update with None removes a previously created
// conferencing block rather than leaving it stale.
type EventPayload struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string // people plus the room's resource address
	Conference  mo.Option[ConferenceRequest]
	CreatedAt   time.Time
}

// Reservation is the normalized summary returned to callers.
type Reservation struct {
	EventID   string
	Summary   string
	Start     time.Time
	End       time.Time
	Room      string
	RoomEmail string
	RoomID    string
	Seats     int64
	Floor     string
	Meet      string
	Attendees []string
	CreatedAt time.Time
}

// CreateRequest books a room for a new reservation.
type CreateRequest struct {
	Domain     string
	Start      time.Time
	End        time.Time
	TimeZone   string
	RoomEmail  string
	Conference bool
	Title      string
	Attendees  []string
}

// UpdateRequest rewrites an existing reservation's window, title, attendees,
// room, and conferencing block.
type UpdateRequest struct {
	EventID    string
	Domain     string
	Start      time.Time
	End        time.Time
	TimeZone   string
	RoomEmail  string
	Conference bool
	Title      string
	Attendees  []string
}

// AvailableRoomsRequest asks for rooms free in a window, optionally including
// the room currently held by an existing event when it remains free for the
// requested window.
type AvailableRoomsRequest struct {
	Domain   string
	Start    time.Time
	End      time.Time
	TimeZone string
	MinSeats int64
	Floor    string
	EventID  string
}

// DirectoryProvider serves read-only room snapshots for a domain.
type DirectoryProvider interface {
	Rooms(ctx context.Context, domain string) ([]Room, error)
}

// CalendarProvider is the external calendar the core relays all writes to.
// Failures are propagated as-is; the core neither retries nor repairs.
type CalendarProvider interface {
	BusyIntervals(ctx context.Context, emails []string, start, end time.Time, timeZone string) (map[string][]TimeRange, error)
	CreateEvent(ctx context.Context, payload EventPayload) (*Event, error)
	UpdateEvent(ctx context.Context, id string, payload EventPayload) (*Event, error)
	UpdateEventEnd(ctx context.Context, id string, end time.Time) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, start, end time.Time, timeZone string) ([]Event, error)
}

// resourceAddressSuffix marks calendar resource addresses in attendee lists
// echoed by the provider.
const resourceAddressSuffix = "resource.calendar.google.com"

func isResourceAddress(email string) bool {
	return strings.HasSuffix(email, resourceAddressSuffix)
}

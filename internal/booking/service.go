package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/roomdesk/roomdesk/internal/logging"
)

const (
	defaultTitle     = "Meeting"
	eventDescription = "Booked with roomdesk"
)

// Service reconciles reservation changes against live room availability
// before committing them to the calendar provider. It is cheap to construct;
// the HTTP layer builds one per request around the caller's authenticated
// providers.
type Service struct {
	directory DirectoryProvider
	calendar  CalendarProvider
	checker   *Checker
	logger    *slog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewService returns a Service bound to the caller's providers.
func NewService(directory DirectoryProvider, calendar CalendarProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		directory: directory,
		calendar:  calendar,
		checker:   NewChecker(calendar),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateReservation books a room for [Start, End). The room must resolve in
// the directory, every attendee address must be well-formed, and the room
// must be free for the full window at the moment of the check.
func (s *Service) CreateReservation(ctx context.Context, req CreateRequest) (*Reservation, error) {
	rooms, err := s.directory.Rooms(ctx, req.Domain)
	if err != nil {
		return nil, upstream("failed to load directory rooms", err)
	}

	attendees, err := validateAttendees(req.Attendees)
	if err != nil {
		return nil, err
	}

	room, ok := FindRoomByEmail(rooms, req.RoomEmail)
	if !ok {
		return nil, notFound("incorrect room picked: %s", req.RoomEmail)
	}

	free, err := s.checker.RoomAvailable(ctx, room.Email, req.Start, req.End, req.TimeZone)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, conflict("room %s has already been booked", room.Name)
	}

	payload := EventPayload{
		Summary:     titleOrDefault(req.Title),
		Description: eventDescription,
		Location:    room.Name,
		Start:       req.Start,
		End:         req.End,
		TimeZone:    req.TimeZone,
		Attendees:   append(append([]string{}, attendees...), room.Email),
		CreatedAt:   s.now(),
	}
	if req.Conference {
		payload.Conference = mo.Some(NewConferenceRequest())
	}

	created, err := s.calendar.CreateEvent(ctx, payload)
	if err != nil {
		return nil, upstream("failed to create calendar event", err)
	}

	s.logger.Info("reservation created",
		logging.Operation("create"),
		logging.RoomName(room.Name),
		logging.EventID(created.ID),
	)

	return &Reservation{
		EventID:   created.ID,
		Summary:   created.Summary,
		Start:     created.Start,
		End:       created.End,
		Room:      room.Name,
		RoomEmail: room.Email,
		RoomID:    room.ID,
		Seats:     room.Seats,
		Floor:     room.Floor,
		Meet:      created.MeetLink,
		CreatedAt: created.CreatedAt,
	}, nil
}

// ResizeReservation changes a reservation's duration from the end, leaving
// the start untouched. Shrinking (down to MinReservationMinutes) never
// re-checks availability; growing re-checks exactly the appended window
// [oldEnd, newEnd).
func (s *Service) ResizeReservation(ctx context.Context, eventID, roomEmail string, minutes int64) (*TimeRange, error) {
	event, err := s.calendar.GetEvent(ctx, eventID)
	if err != nil {
		return nil, upstream("failed to fetch calendar event", err)
	}

	current := event.End.Sub(event.Start)
	requested := MinutesToDuration(minutes)

	if requested == current {
		return nil, invalidInput("duration has already been set to %d mins", minutes)
	}

	newEnd := event.End.Add(requested - current)

	shrinking := requested < current && requested >= MinutesToDuration(MinReservationMinutes)
	if !shrinking {
		free, err := s.checker.RoomAvailable(ctx, roomEmail, event.End, newEnd, event.TimeZone)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, conflict("room is not available within the extended window")
		}
	}

	updated, err := s.calendar.UpdateEventEnd(ctx, eventID, newEnd)
	if err != nil {
		return nil, upstream("failed to update calendar event", err)
	}

	s.logger.Info("reservation resized",
		logging.Operation("resize"),
		logging.EventID(eventID),
		slog.Int64("minutes", minutes),
	)

	return &TimeRange{Start: updated.Start, End: updated.End}, nil
}

// UpdateReservation rewrites an existing reservation. When the room is
// unchanged, only the delta windows outside the current booking are
// re-checked; a room swap is treated as a fresh booking and the full new
// window is checked against the new room.
func (s *Service) UpdateReservation(ctx context.Context, req UpdateRequest) (*Reservation, error) {
	event, err := s.calendar.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, upstream("failed to fetch calendar event", err)
	}

	rooms, err := s.directory.Rooms(ctx, req.Domain)
	if err != nil {
		return nil, upstream("failed to load directory rooms", err)
	}

	room, ok := FindRoomByEmail(rooms, req.RoomEmail)
	if !ok {
		return nil, notFound("incorrect room picked: %s", req.RoomEmail)
	}

	attendees, err := validateAttendees(req.Attendees)
	if err != nil {
		return nil, err
	}

	if current, hasRoom := event.RoomAttendee(); hasRoom && current.Email == room.Email {
		for _, delta := range deltaWindows(event.Start, event.End, req.Start, req.End) {
			free, err := s.checker.RoomAvailable(ctx, room.Email, delta.Start, delta.End, event.TimeZone)
			if err != nil {
				return nil, err
			}
			if !free {
				return nil, conflict("room is not available within the set duration")
			}
		}
	} else {
		free, err := s.checker.RoomAvailable(ctx, room.Email, req.Start, req.End, req.TimeZone)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, conflict("room %s is not available within the set duration", room.Name)
		}
	}

	payload := EventPayload{
		Summary:     titleOrDefault(req.Title),
		Description: eventDescription,
		Location:    room.Name,
		Start:       req.Start,
		End:         req.End,
		TimeZone:    req.TimeZone,
		Attendees:   append(append([]string{}, attendees...), room.Email),
		CreatedAt:   s.now(),
	}
	if req.Conference {
		payload.Conference = mo.Some(NewConferenceRequest())
	}

	updated, err := s.calendar.UpdateEvent(ctx, req.EventID, payload)
	if err != nil {
		return nil, upstream("failed to update calendar event", err)
	}

	s.logger.Info("reservation updated",
		logging.Operation("update"),
		logging.RoomName(room.Name),
		logging.EventID(req.EventID),
	)

	return &Reservation{
		EventID:   updated.ID,
		Summary:   updated.Summary,
		Start:     updated.Start,
		End:       updated.End,
		Room:      room.Name,
		RoomEmail: room.Email,
		RoomID:    room.ID,
		Seats:     room.Seats,
		Floor:     room.Floor,
		Meet:      meetCode(updated.MeetLink),
		Attendees: personAttendees(updated.Attendees),
		CreatedAt: updated.CreatedAt,
	}, nil
}

// DeleteReservation delegates deletion to the calendar provider and reports
// whether it succeeded. There is no local state to reconcile.
func (s *Service) DeleteReservation(ctx context.Context, eventID string) (bool, error) {
	if err := s.calendar.DeleteEvent(ctx, eventID); err != nil {
		return false, upstream("failed to delete calendar event", err)
	}
	s.logger.Info("reservation deleted",
		logging.Operation("delete"),
		logging.EventID(eventID),
	)
	return true, nil
}

// ListReservations returns the domain's reservations in a window, sorted by
// start time ascending with ties broken by earliest creation time. Rooms are
// attached by best-effort substring match of the directory room name inside
// the event's free-text location; a roomless event keeps empty room fields.
func (s *Service) ListReservations(ctx context.Context, domain string, window TimeRange, timeZone string) ([]Reservation, error) {
	rooms, err := s.directory.Rooms(ctx, domain)
	if err != nil {
		return nil, upstream("failed to load directory rooms", err)
	}

	events, err := s.calendar.ListEvents(ctx, window.Start, window.End, timeZone)
	if err != nil {
		return nil, upstream("failed to list calendar events", err)
	}

	reservations := make([]Reservation, 0, len(events))
	for _, event := range events {
		res := Reservation{
			EventID:   event.ID,
			Summary:   event.Summary,
			Start:     event.Start,
			End:       event.End,
			Meet:      meetCode(event.MeetLink),
			Attendees: personAttendees(event.Attendees),
			CreatedAt: event.CreatedAt,
		}
		if room, ok := roomForLocation(rooms, event.Location); ok {
			res.Room = room.Name
			res.RoomEmail = room.Email
			res.RoomID = room.ID
			res.Seats = room.Seats
			res.Floor = room.Floor
		}
		reservations = append(reservations, res)
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		if !reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].Start.Before(reservations[j].Start)
		}
		return reservations[i].CreatedAt.Before(reservations[j].CreatedAt)
	})
	return reservations, nil
}

// AvailableRooms returns rooms matching the seat and floor constraints that
// are free for [Start, End). When an event id is supplied, the event's
// current room is delta-checked for the requested window and, when it still
// fits, placed first.
func (s *Service) AvailableRooms(ctx context.Context, req AvailableRoomsRequest) ([]Room, error) {
	rooms, err := s.directory.Rooms(ctx, req.Domain)
	if err != nil {
		return nil, upstream("failed to load directory rooms", err)
	}

	candidates := FilterRooms(rooms, req.MinSeats, req.Floor)
	emails := make([]string, len(candidates))
	for i, room := range candidates {
		emails[i] = room.Email
	}

	available, err := s.checker.CheckAvailability(ctx, emails, req.Start, req.End, req.TimeZone)
	if err != nil {
		return nil, err
	}

	free := make([]Room, 0, len(candidates))
	for _, room := range candidates {
		if available[room.Email] {
			free = append(free, room)
		}
	}

	if req.EventID == "" {
		return free, nil
	}

	current, ok, err := s.currentRoomStillFits(ctx, req, rooms)
	if err != nil {
		return nil, err
	}
	if !ok {
		return free, nil
	}

	// The current room's own busy block makes the plain window check above
	// reject it; put it back at the front, without duplicating it.
	result := make([]Room, 0, len(free)+1)
	result = append(result, current)
	for _, room := range free {
		if room.Email != current.Email {
			result = append(result, room)
		}
	}
	return result, nil
}

// currentRoomStillFits resolves the room held by req.EventID and delta-checks
// it against the requested window.
func (s *Service) currentRoomStillFits(ctx context.Context, req AvailableRoomsRequest, rooms []Room) (Room, bool, error) {
	event, err := s.calendar.GetEvent(ctx, req.EventID)
	if err != nil {
		return Room{}, false, upstream("failed to fetch calendar event", err)
	}

	attendee, ok := event.RoomAttendee()
	if !ok {
		return Room{}, false, nil
	}
	room, ok := FindRoomByEmail(rooms, attendee.Email)
	if !ok {
		return Room{}, false, nil
	}

	for _, delta := range deltaWindows(event.Start, event.End, req.Start, req.End) {
		free, err := s.checker.RoomAvailable(ctx, room.Email, delta.Start, delta.End, event.TimeZone)
		if err != nil {
			return Room{}, false, err
		}
		if !free {
			return Room{}, false, nil
		}
	}
	return room, true, nil
}

// HighestSeatCapacity returns the domain's largest room size, or -1 when the
// directory is empty.
func (s *Service) HighestSeatCapacity(ctx context.Context, domain string) (int64, error) {
	rooms, err := s.directory.Rooms(ctx, domain)
	if err != nil {
		return 0, upstream("failed to load directory rooms", err)
	}
	return HighestSeatCapacity(rooms), nil
}

// ListFloors returns the domain's floor labels, numerically sorted.
func (s *Service) ListFloors(ctx context.Context, domain string) ([]string, error) {
	rooms, err := s.directory.Rooms(ctx, domain)
	if err != nil {
		return nil, upstream("failed to load directory rooms", err)
	}
	return Floors(rooms), nil
}

func titleOrDefault(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return defaultTitle
	}
	return title
}

// meetCode strips a conference link down to its trailing code segment, which
// is what the browser client renders.
func meetCode(link string) string {
	if link == "" {
		return ""
	}
	parts := strings.Split(link, "/")
	return parts[len(parts)-1]
}

// roomForLocation matches a directory room by name containment in the
// event's free-text location. Best effort only: rooms with overlapping name
// substrings can be misattributed.
func roomForLocation(rooms []Room, location string) (Room, bool) {
	if location == "" {
		return Room{}, false
	}
	for _, room := range rooms {
		if room.Name != "" && strings.Contains(location, room.Name) {
			return room, true
		}
	}
	return Room{}, false
}

// personAttendees filters an attendee echo down to people: resource
// addresses and declined invitees are dropped.
func personAttendees(attendees []Attendee) []string {
	var out []string
	for _, att := range attendees {
		if att.Resource || isResourceAddress(att.Email) {
			continue
		}
		if att.ResponseStatus == ResponseDeclined {
			continue
		}
		out = append(out, att.Email)
	}
	return out
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/booking"
	"github.com/roomdesk/roomdesk/internal/directory"
)

type stubDirectory struct {
	rooms []booking.Room
}

func (d *stubDirectory) Rooms(_ context.Context, _ string) ([]booking.Room, error) {
	return d.rooms, nil
}

type stubCalendar struct {
	busy    map[string][]booking.TimeRange
	event   *booking.Event
	events  []booking.Event
	deleted []string
}

func (c *stubCalendar) BusyIntervals(_ context.Context, emails []string, _, _ time.Time, _ string) (map[string][]booking.TimeRange, error) {
	out := make(map[string][]booking.TimeRange, len(emails))
	for _, email := range emails {
		out[email] = c.busy[email]
	}
	return out, nil
}

func (c *stubCalendar) CreateEvent(_ context.Context, payload booking.EventPayload) (*booking.Event, error) {
	return &booking.Event{
		ID:        "evt-1",
		Summary:   payload.Summary,
		Location:  payload.Location,
		Start:     payload.Start,
		End:       payload.End,
		TimeZone:  payload.TimeZone,
		CreatedAt: payload.CreatedAt,
	}, nil
}

func (c *stubCalendar) UpdateEvent(_ context.Context, id string, payload booking.EventPayload) (*booking.Event, error) {
	return &booking.Event{
		ID:        id,
		Summary:   payload.Summary,
		Location:  payload.Location,
		Start:     payload.Start,
		End:       payload.End,
		TimeZone:  payload.TimeZone,
		CreatedAt: payload.CreatedAt,
	}, nil
}

func (c *stubCalendar) UpdateEventEnd(_ context.Context, id string, end time.Time) (*booking.Event, error) {
	updated := *c.event
	updated.ID = id
	updated.End = end
	return &updated, nil
}

func (c *stubCalendar) GetEvent(_ context.Context, _ string) (*booking.Event, error) {
	return c.event, nil
}

func (c *stubCalendar) DeleteEvent(_ context.Context, id string) error {
	c.deleted = append(c.deleted, id)
	return nil
}

func (c *stubCalendar) ListEvents(_ context.Context, _, _ time.Time, _ string) ([]booking.Event, error) {
	return c.events, nil
}

var testRooms = []booking.Room{
	{ID: "r1", Email: "arctic@resource.calendar.google.com", Name: "Arctic", Floor: "F1", Seats: 4},
	{ID: "r2", Email: "baltic@resource.calendar.google.com", Name: "Baltic", Floor: "F2", Seats: 8},
}

func newTestServer(t *testing.T, cal *stubCalendar) *Server {
	t.Helper()

	sessions, err := NewSessionManager(testSessionConfig())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(Config{
		Addr:      ":0",
		Sessions:  sessions,
		Directory: directory.NewCache(0),
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	dir := &stubDirectory{rooms: testRooms}
	srv.newService = func(_ context.Context, _ *Session) (*booking.Service, error) {
		return booking.NewService(dir, cal, logger), nil
	}
	return srv
}

func authedRequest(t *testing.T, srv *Server, method, target string, body string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rec := httptest.NewRecorder()
	session := &Session{AccessToken: "access", Email: "jane@example.com", Domain: "example.com"}
	if err := srv.sessions.Write(rec, session); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}
	req.AddCookie(rec.Result().Cookies()[0])
	return req
}

func TestServer_RequiresSession(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/floors", nil)
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServer_Floors(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodGet, "/api/floors", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body["floors"]) != 2 || body["floors"][0] != "F1" || body["floors"][1] != "F2" {
		t.Errorf("floors = %v", body["floors"])
	}
}

func TestServer_HighestSeatCount(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodGet, "/api/rooms/highest-seat-count", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["seats"] != 8 {
		t.Errorf("seats = %d, want 8", body["seats"])
	}
}

func TestServer_AvailableRoomsFiltersBySeats(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	target := "/api/rooms/available?start=2025-03-10T10:00:00Z&end=2025-03-10T11:00:00Z&minSeats=6"
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodGet, target, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var rooms []roomJSON
	if err := json.NewDecoder(rec.Body).Decode(&rooms); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "Baltic" {
		t.Errorf("rooms = %+v, want only Baltic", rooms)
	}
}

func TestServer_AvailableRoomsRejectsBadWindow(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	target := "/api/rooms/available?start=not-a-time&end=2025-03-10T11:00:00Z"
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodGet, target, ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServer_CreateEvent(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	body := `{
		"start": "2025-03-10T10:00:00Z",
		"end": "2025-03-10T11:00:00Z",
		"timeZone": "UTC",
		"roomEmail": "baltic@resource.calendar.google.com",
		"title": "Sprint planning",
		"attendees": ["alice@example.com"]
	}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodPost, "/api/events", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res reservationJSON
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if res.EventID != "evt-1" {
		t.Errorf("eventId = %q", res.EventID)
	}
	if res.Room != "Baltic" {
		t.Errorf("room = %q, want Baltic", res.Room)
	}
}

func TestServer_CreateEventConflict(t *testing.T) {
	cal := &stubCalendar{
		busy: map[string][]booking.TimeRange{
			"baltic@resource.calendar.google.com": {{
				Start: time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
				End:   time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC),
			}},
		},
	}
	srv := newTestServer(t, cal)

	body := `{
		"start": "2025-03-10T10:00:00Z",
		"end": "2025-03-10T11:00:00Z",
		"roomEmail": "baltic@resource.calendar.google.com"
	}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodPost, "/api/events", body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if res.Kind != "conflict" {
		t.Errorf("kind = %q, want conflict", res.Kind)
	}
}

func TestServer_CreateEventUnknownRoom(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	body := `{
		"start": "2025-03-10T10:00:00Z",
		"end": "2025-03-10T11:00:00Z",
		"roomEmail": "nope@resource.calendar.google.com"
	}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodPost, "/api/events", body))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServer_ListEvents(t *testing.T) {
	cal := &stubCalendar{
		events: []booking.Event{{
			ID:      "evt-1",
			Summary: "Standup",
			Start:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC),
		}},
	}
	srv := newTestServer(t, cal)

	rec := httptest.NewRecorder()
	target := "/api/events?start=2025-03-10T00:00:00Z&end=2025-03-11T00:00:00Z"
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodGet, target, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var events []reservationJSON
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(events) != 1 || events[0].Summary != "Standup" {
		t.Errorf("events = %+v", events)
	}
}

func TestServer_ResizeEvent(t *testing.T) {
	cal := &stubCalendar{
		event: &booking.Event{
			ID:    "evt-1",
			Start: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
		},
	}
	srv := newTestServer(t, cal)

	body := `{"minutes": 15, "roomEmail": "baltic@resource.calendar.google.com"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodPut, "/api/events/evt-1/duration", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var window map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&window); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if window["end"] != "2025-03-10T10:15:00Z" {
		t.Errorf("end = %q, want 2025-03-10T10:15:00Z", window["end"])
	}
}

func TestServer_DeleteEvent(t *testing.T) {
	cal := &stubCalendar{}
	srv := newTestServer(t, cal)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodDelete, "/api/events/evt-1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "evt-1" {
		t.Errorf("deleted = %v", cal.deleted)
	}
	var body map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body["deleted"] {
		t.Error("deleted = false, want true")
	}
}

func TestServer_Logout(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, authedRequest(t, srv, http.MethodPost, "/api/auth/logout", ""))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expired session cookie, got %+v", cookies)
	}
}

func TestServer_Login_RequiresCode(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServer_HealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubCalendar{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

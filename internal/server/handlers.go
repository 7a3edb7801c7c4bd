package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/roomdesk/roomdesk/internal/booking"
	"github.com/roomdesk/roomdesk/internal/google"
	"github.com/roomdesk/roomdesk/internal/instrumentation"
)

// roomJSON is the wire representation of a bookable room.
type roomJSON struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Floor       string `json:"floor,omitempty"`
	Seats       int64  `json:"seats"`
}

// reservationJSON is the wire representation of a reservation.
type reservationJSON struct {
	EventID   string   `json:"eventId"`
	Summary   string   `json:"summary"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Room      string   `json:"room,omitempty"`
	RoomEmail string   `json:"roomEmail,omitempty"`
	RoomID    string   `json:"roomId,omitempty"`
	Seats     int64    `json:"seats,omitempty"`
	Floor     string   `json:"floor,omitempty"`
	Meet      string   `json:"meet,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
}

type loginRequest struct {
	Code string `json:"code"`
}

type loginResponse struct {
	Email  string `json:"email"`
	Domain string `json:"domain"`
}

type eventRequest struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	TimeZone   string   `json:"timeZone"`
	RoomEmail  string   `json:"roomEmail"`
	Conference bool     `json:"conference"`
	Title      string   `json:"title"`
	Attendees  []string `json:"attendees"`
}

type resizeRequest struct {
	Minutes   int64  `json:"minutes"`
	RoomEmail string `json:"roomEmail"`
}

func toRoomJSON(room booking.Room) roomJSON {
	return roomJSON{
		ID:          room.ID,
		Email:       room.Email,
		Name:        room.Name,
		Description: room.Description,
		Floor:       room.Floor,
		Seats:       room.Seats,
	}
}

func toReservationJSON(res *booking.Reservation) reservationJSON {
	return reservationJSON{
		EventID:   res.EventID,
		Summary:   res.Summary,
		Start:     res.Start.Format(time.RFC3339),
		End:       res.End.Format(time.RFC3339),
		Room:      res.Room,
		RoomEmail: res.RoomEmail,
		RoomID:    res.RoomID,
		Seats:     res.Seats,
		Floor:     res.Floor,
		Meet:      res.Meet,
		Attendees: res.Attendees,
	}
}

// handleLogin exchanges an OAuth authorization code for a session cookie.
// The user's identity and Workspace domain come from the userinfo endpoint;
// the domain's room snapshot is invalidated so a fresh directory listing is
// fetched on first use.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	ctx := r.Context()

	token, err := s.google.Exchange(ctx, req.Code)
	if err != nil {
		s.recordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		writeError(w, fmt.Errorf("failed to exchange authorization code: %w", err))
		return
	}

	info, err := google.GetUserInfo(ctx, s.google.HTTPClient(ctx, token))
	if err != nil {
		s.recordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		writeError(w, err)
		return
	}

	session := NewSessionFromToken(token, info.Email, info.Domain)
	if err := s.sessions.Write(w, session); err != nil {
		writeError(w, err)
		return
	}

	s.cache.Invalidate(info.Domain)

	s.recordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	if s.metrics != nil {
		s.metrics.IncrementActiveSessions(ctx)
	}
	s.logger.Info("user logged in", "user_domain", instrumentation.ExtractUserDomain(info.Email))

	writeJSON(w, http.StatusOK, loginResponse{Email: info.Email, Domain: info.Domain})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	if s.metrics != nil {
		s.metrics.DecrementActiveSessions(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAvailableRooms(w http.ResponseWriter, r *http.Request, session *Session) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var minSeats int64
	if v := query.Get("minSeats"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(w, "minSeats must be an integer")
			return
		}
		minSeats = parsed
	}

	req := booking.AvailableRoomsRequest{
		Domain:   session.Domain,
		Start:    start,
		End:      end,
		TimeZone: query.Get("timeZone"),
		MinSeats: minSeats,
		Floor:    query.Get("floor"),
		EventID:  query.Get("eventId"),
	}

	ctx, audit := s.startAudit(r.Context(), instrumentation.OperationAvailableRooms, session)
	rooms, err := withService(ctx, s, session, func(ctx context.Context, svc *booking.Service) ([]booking.Room, error) {
		return svc.AvailableRooms(ctx, req)
	})
	s.finishAudit(ctx, audit, session.Domain, err)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]roomJSON, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomJSON(room))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHighestSeatCount(w http.ResponseWriter, r *http.Request, session *Session) {
	seats, err := withService(r.Context(), s, session, func(ctx context.Context, svc *booking.Service) (int64, error) {
		return svc.HighestSeatCapacity(ctx, session.Domain)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"seats": seats})
}

func (s *Server) handleFloors(w http.ResponseWriter, r *http.Request, session *Session) {
	floors, err := withService(r.Context(), s, session, func(ctx context.Context, svc *booking.Service) ([]string, error) {
		return svc.ListFloors(ctx, session.Domain)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if floors == nil {
		floors = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"floors": floors})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request, session *Session) {
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	timeZone := r.URL.Query().Get("timeZone")

	ctx, audit := s.startAudit(r.Context(), instrumentation.OperationList, session)
	reservations, err := withService(ctx, s, session, func(ctx context.Context, svc *booking.Service) ([]booking.Reservation, error) {
		return svc.ListReservations(ctx, session.Domain, booking.TimeRange{Start: start, End: end}, timeZone)
	})
	s.finishAudit(ctx, audit, session.Domain, err)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]reservationJSON, 0, len(reservations))
	for i := range reservations {
		out = append(out, toReservationJSON(&reservations[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, session *Session) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	start, end, ok := parseBodyWindow(w, req.Start, req.End)
	if !ok {
		return
	}

	create := booking.CreateRequest{
		Domain:     session.Domain,
		Start:      start,
		End:        end,
		TimeZone:   req.TimeZone,
		RoomEmail:  req.RoomEmail,
		Conference: req.Conference,
		Title:      req.Title,
		Attendees:  req.Attendees,
	}

	ctx, audit := s.startAudit(r.Context(), instrumentation.OperationCreate, session)
	audit.WithReservation(req.RoomEmail, "")
	reservation, err := withService(ctx, s, session, func(ctx context.Context, svc *booking.Service) (*booking.Reservation, error) {
		return svc.CreateReservation(ctx, create)
	})
	s.finishAudit(ctx, audit, session.Domain, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReservationJSON(reservation))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request, session *Session) {
	eventID := r.PathValue("id")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	start, end, ok := parseBodyWindow(w, req.Start, req.End)
	if !ok {
		return
	}

	update := booking.UpdateRequest{
		EventID:    eventID,
		Domain:     session.Domain,
		Start:      start,
		End:        end,
		TimeZone:   req.TimeZone,
		RoomEmail:  req.RoomEmail,
		Conference: req.Conference,
		Title:      req.Title,
		Attendees:  req.Attendees,
	}

	ctx, audit := s.startAudit(r.Context(), instrumentation.OperationUpdate, session)
	audit.WithReservation(req.RoomEmail, eventID)
	reservation, err := withService(ctx, s, session, func(ctx context.Context, svc *booking.Service) (*booking.Reservation, error) {
		return svc.UpdateReservation(ctx, update)
	})
	s.finishAudit(ctx, audit, session.Domain, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReservationJSON(reservation))
}

func (s *Server) handleResizeEvent(w http.ResponseWriter, r *http.Request, session *Session) {
	eventID := r.PathValue("id")

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	ctx, audit := s.startAudit(r.Context(), instrumentation.OperationResize, session)
	audit.WithReservation(req.RoomEmail, eventID)
	window, err := withService(ctx, s, session, func(ctx context.Context, svc *booking.Service) (*booking.TimeRange, error) {
		return svc.ResizeReservation(ctx, eventID, req.RoomEmail, req.Minutes)
	})
	s.finishAudit(ctx, audit, session.Domain, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"start": window.Start.Format(time.RFC3339),
		"end":   window.End.Format(time.RFC3339),
	})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request, session *Session) {
	eventID := r.PathValue("id")

	ctx, audit := s.startAudit(r.Context(), instrumentation.OperationDelete, session)
	audit.WithReservation("", eventID)
	deleted, err := withService(ctx, s, session, func(ctx context.Context, svc *booking.Service) (bool, error) {
		return svc.DeleteReservation(ctx, eventID)
	})
	s.finishAudit(ctx, audit, session.Domain, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// withService builds a per-request booking service and runs fn against it.
func withService[T any](ctx context.Context, s *Server, session *Session, fn func(context.Context, *booking.Service) (T, error)) (T, error) {
	var zero T
	svc, err := s.newService(ctx, session)
	if err != nil {
		return zero, err
	}
	return fn(ctx, svc)
}

// startAudit opens the operation span and the audit record. The returned
// context carries the span and must flow into the service call.
func (s *Server) startAudit(ctx context.Context, operation string, session *Session) (context.Context, *instrumentation.OperationAudit) {
	ctx, _ = instrumentation.StartBookingSpan(ctx, operation)
	audit := instrumentation.NewOperationAudit(operation).
		WithSurface("http").
		WithUser(session.Email)
	return ctx, audit
}

// finishAudit ends the operation span, completes the audit record, and emits
// the operation metrics.
func (s *Server) finishAudit(ctx context.Context, audit *instrumentation.OperationAudit, domain string, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.End()

	audit.WithSpanContext(ctx).Complete(err == nil, err)
	s.audit.LogOperation(audit)

	if s.metrics == nil {
		return
	}
	s.metrics.RecordBookingOperation(ctx, audit.Operation, audit.Status(), domain)
	if booking.IsConflict(err) {
		s.metrics.RecordBookingConflict(ctx, audit.Operation)
	}
}

func (s *Server) recordOAuthAuth(ctx context.Context, result string) {
	if s.metrics != nil {
		s.metrics.RecordOAuthAuth(ctx, result)
	}
}

// parseWindow reads the start/end query parameters as RFC 3339 timestamps.
// On failure the 400 response has already been written.
func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	return parseBodyWindow(w, r.URL.Query().Get("start"), r.URL.Query().Get("end"))
}

func parseBodyWindow(w http.ResponseWriter, startRaw, endRaw string) (time.Time, time.Time, bool) {
	start, err := parseTime(startRaw, "start")
	if err != nil {
		writeBadRequest(w, err.Error())
		return time.Time{}, time.Time{}, false
	}
	end, err := parseTime(endRaw, "end")
	if err != nil {
		writeBadRequest(w, err.Error())
		return time.Time{}, time.Time{}, false
	}
	if !end.After(start) {
		writeBadRequest(w, "end must be after start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseTime(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", field)
	}
	return t, nil
}

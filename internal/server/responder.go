package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roomdesk/roomdesk/internal/booking"
)

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps a booking error to its HTTP status and writes the JSON
// error body.
func writeError(w http.ResponseWriter, err error) {
	kind := booking.KindOf(err)
	writeJSON(w, statusForKind(kind), errorResponse{
		Error: err.Error(),
		Kind:  kind.String(),
	})
}

// writeUnauthorized writes the 401 response for requests without a valid
// session.
func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{
		Error: "authentication required",
		Kind:  "unauthorized",
	})
}

// writeBadRequest writes a 400 response for malformed request input that
// never reached the booking core.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error: msg,
		Kind:  booking.KindInvalidInput.String(),
	})
}

// statusForKind maps the booking error taxonomy onto HTTP status codes.
func statusForKind(kind booking.Kind) int {
	switch kind {
	case booking.KindInvalidInput:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindConflict:
		return http.StatusConflict
	case booking.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

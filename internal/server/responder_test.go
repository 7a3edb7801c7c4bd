package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roomdesk/roomdesk/internal/booking"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind booking.Kind
		want int
	}{
		{booking.KindInvalidInput, http.StatusBadRequest},
		{booking.KindNotFound, http.StatusNotFound},
		{booking.KindConflict, http.StatusConflict},
		{booking.KindUpstream, http.StatusBadGateway},
		{booking.KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := statusForKind(tt.kind); got != tt.want {
				t.Errorf("statusForKind(%v) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestWriteError_BookingError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &booking.Error{Kind: booking.KindConflict, Msg: "room Baltic has already been booked"})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Kind != "conflict" {
		t.Errorf("kind = %q, want conflict", body.Kind)
	}
	if body.Error != "room Baltic has already been booked" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestWriteError_ForeignError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestWriteUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	writeUnauthorized(rec)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Kind != "unauthorized" {
		t.Errorf("kind = %q, want unauthorized", body.Kind)
	}
}

package server

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/roomdesk/roomdesk/internal/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName: "roomdesk_session",
		HashKey:    base64.StdEncoding.EncodeToString(make([]byte, 64)),
		BlockKey:   base64.StdEncoding.EncodeToString(make([]byte, 32)),
	}
}

func TestSessionManager_RoundTrip(t *testing.T) {
	manager, err := NewSessionManager(testSessionConfig())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	session := NewSessionFromToken(token, "jane@example.com", "example.com")

	rec := httptest.NewRecorder()
	if err := manager.Write(rec, session); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.AddCookie(cookie)

	got, err := manager.Read(req)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Email != "jane@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
	if got.Domain != "example.com" {
		t.Errorf("Domain = %q", got.Domain)
	}
	if got.Token().AccessToken != "access" || got.Token().RefreshToken != "refresh" {
		t.Errorf("token round trip failed: %+v", got.Token())
	}
}

func TestSessionManager_RejectsTamperedCookie(t *testing.T) {
	manager, err := NewSessionManager(testSessionConfig())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: "forged-value"})

	if _, err := manager.Read(req); err == nil {
		t.Error("expected error for tampered cookie")
	}
}

func TestSessionManager_MissingCookie(t *testing.T) {
	manager, err := NewSessionManager(testSessionConfig())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	if _, err := manager.Read(req); err == nil {
		t.Error("expected error for missing cookie")
	}
}

func TestSessionManager_Clear(t *testing.T) {
	manager, err := NewSessionManager(testSessionConfig())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}

	rec := httptest.NewRecorder()
	manager.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative to expire the cookie", cookies[0].MaxAge)
	}
}

func TestSessionManager_GeneratesKeysWhenUnset(t *testing.T) {
	manager, err := NewSessionManager(config.SessionConfig{})
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	if manager.CookieName() != config.DefaultSessionCookieName {
		t.Errorf("CookieName() = %q, want %q", manager.CookieName(), config.DefaultSessionCookieName)
	}

	// Generated keys still round-trip within the same process.
	rec := httptest.NewRecorder()
	if err := manager.Write(rec, &Session{Email: "jane@example.com"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func TestSessionManager_InvalidKeyEncoding(t *testing.T) {
	_, err := NewSessionManager(config.SessionConfig{HashKey: "not base64 !!!"})
	if err == nil {
		t.Error("expected error for invalid hash key encoding")
	}
}

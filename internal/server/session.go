package server

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"

	"github.com/roomdesk/roomdesk/internal/config"
)

// sessionMaxAge bounds how long a browser session cookie stays valid. The
// OAuth refresh token inside the session keeps API access alive within that
// window.
const sessionMaxAge = 7 * 24 * time.Hour

// Session is the per-user state carried in the encrypted session cookie.
// There is no server-side session store; the cookie is the session.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time

	Email  string
	Domain string
}

// Token reconstructs the OAuth token held by the session.
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// NewSessionFromToken builds a session for an authenticated user.
func NewSessionFromToken(token *oauth2.Token, email, domain string) *Session {
	return &Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Email:        email,
		Domain:       domain,
	}
}

// SessionManager encodes sessions into authenticated, encrypted cookies.
type SessionManager struct {
	codec  *securecookie.SecureCookie
	name   string
	secure bool
}

// NewSessionManager creates a SessionManager from the session configuration.
// Keys are base64-encoded in the config; when omitted, random keys are
// generated and sessions do not survive a process restart.
func NewSessionManager(cfg config.SessionConfig) (*SessionManager, error) {
	hashKey, err := sessionKey(cfg.HashKey, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}
	blockKey, err := sessionKey(cfg.BlockKey, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid session block key: %w", err)
	}

	name := cfg.CookieName
	if name == "" {
		name = config.DefaultSessionCookieName
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(sessionMaxAge.Seconds()))

	return &SessionManager{
		codec:  codec,
		name:   name,
		secure: cfg.Secure,
	}, nil
}

func sessionKey(encoded string, generateLen int) ([]byte, error) {
	if encoded == "" {
		key := securecookie.GenerateRandomKey(generateLen)
		if key == nil {
			return nil, fmt.Errorf("failed to generate random key")
		}
		return key, nil
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Write encodes the session and sets it as a cookie on the response.
func (m *SessionManager) Write(w http.ResponseWriter, session *Session) error {
	encoded, err := m.codec.Encode(m.name, session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read decodes the session cookie from the request. A missing or invalid
// cookie yields an error; callers treat both as unauthenticated.
func (m *SessionManager) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return nil, fmt.Errorf("no session cookie: %w", err)
	}

	var session Session
	if err := m.codec.Decode(m.name, cookie.Value, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName returns the configured cookie name.
func (m *SessionManager) CookieName() string {
	return m.name
}

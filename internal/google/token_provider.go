package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs.
// This abstraction allows different token sources (file-based for STDIO,
// session-based for HTTP).
type TokenProvider interface {
	// GetToken retrieves the caller's OAuth token
	GetToken(ctx context.Context) (*oauth2.Token, error)

	// HasToken checks if a token is available
	HasToken() bool
}

// FileTokenProvider provides tokens from disk files (for STDIO transport).
type FileTokenProvider struct {
	conf Config
}

// NewFileTokenProvider creates a new file-based token provider.
func NewFileTokenProvider(conf Config) *FileTokenProvider {
	return &FileTokenProvider{conf: conf}
}

// GetToken retrieves the stored token from disk.
func (p *FileTokenProvider) GetToken(ctx context.Context) (*oauth2.Token, error) {
	ts, err := p.conf.GetTokenSource(ctx)
	if err != nil {
		return nil, err
	}

	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token from file: %w", err)
	}

	return token, nil
}

// HasToken checks if a token file exists.
func (p *FileTokenProvider) HasToken() bool {
	return HasToken()
}

// StaticTokenProvider serves a token already held in memory (for HTTP
// sessions, where the token travels in the session cookie).
type StaticTokenProvider struct {
	token *oauth2.Token
}

// NewStaticTokenProvider wraps an in-memory token.
func NewStaticTokenProvider(token *oauth2.Token) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// GetToken returns the wrapped token.
func (p *StaticTokenProvider) GetToken(_ context.Context) (*oauth2.Token, error) {
	if p.token == nil {
		return nil, fmt.Errorf("no token available")
	}
	return p.token, nil
}

// HasToken reports whether a token was supplied.
func (p *StaticTokenProvider) HasToken() bool {
	return p.token != nil
}

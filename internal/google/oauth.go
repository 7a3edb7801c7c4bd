package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OOBRedirectURL is the out-of-band redirect used by the CLI login flow,
// where the user pastes the authorization code back into the terminal.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// Config holds the OAuth client registration for this deployment.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OAuthConfig returns the OAuth2 configuration for all Google services.
func (c Config) OAuthConfig() *oauth2.Config {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       DefaultOAuthScopes,
	}
}

// AuthURL returns the OAuth URL for user authorization.
func (c Config) AuthURL(state string) string {
	return c.OAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (c Config) Exchange(ctx context.Context, authCode string) (*oauth2.Token, error) {
	t, err := c.OAuthConfig().Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return t, nil
}

// HTTPClient returns an HTTP client that authenticates with the given token
// and refreshes it as needed.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func (c Config) HTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	ts := c.OAuthConfig().TokenSource(ctx, token)
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client
}

// HasToken checks if a stored OAuth token exists (STDIO transport).
func HasToken() bool {
	_, err := os.ReadFile(tokenFile())
	return err == nil
}

// SaveToken exchanges an authorization code for tokens and saves them.
func (c Config) SaveToken(ctx context.Context, authCode string) error {
	t, err := c.Exchange(ctx, authCode)
	if err != nil {
		return err
	}

	file := tokenFile()
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(file, []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// GetTokenSource returns an OAuth2 token source for the stored token.
// Returns an error if no valid token exists.
func (c Config) GetTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	slurp, err := os.ReadFile(tokenFile())
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found")
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format")
	}

	ts := c.OAuthConfig().TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	// Validate the token
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}

	return ts, nil
}

// GetHTTPClient returns an HTTP client authenticated with the stored token.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func (c Config) GetHTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := c.GetTokenSource(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

func tokenFile() string {
	return filepath.Join(userCacheDir(), "roomdesk", "google.token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}

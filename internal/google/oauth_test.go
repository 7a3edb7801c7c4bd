package google

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

var testConfig = Config{
	ClientID:     "client-id.apps.googleusercontent.com",
	ClientSecret: "client-secret",
	RedirectURL:  "https://booking.example.com/api/auth/callback",
}

func TestOAuthConfig(t *testing.T) {
	conf := testConfig.OAuthConfig()

	if conf.ClientID != testConfig.ClientID {
		t.Errorf("ClientID = %q, want %q", conf.ClientID, testConfig.ClientID)
	}
	if conf.RedirectURL != testConfig.RedirectURL {
		t.Errorf("RedirectURL = %q, want %q", conf.RedirectURL, testConfig.RedirectURL)
	}
	if len(conf.Scopes) != len(DefaultOAuthScopes) {
		t.Errorf("Scopes length = %d, want %d", len(conf.Scopes), len(DefaultOAuthScopes))
	}
}

func TestOAuthConfigDefaultsToOOBRedirect(t *testing.T) {
	conf := Config{ClientID: "id", ClientSecret: "secret"}.OAuthConfig()
	if conf.RedirectURL != OOBRedirectURL {
		t.Errorf("RedirectURL = %q, want %q", conf.RedirectURL, OOBRedirectURL)
	}
}

func TestAuthURLCarriesState(t *testing.T) {
	url := testConfig.AuthURL("opaque-state")
	if !strings.Contains(url, "state=opaque-state") {
		t.Errorf("AuthURL() = %q, missing state parameter", url)
	}
	if !strings.Contains(url, "access_type=offline") {
		t.Errorf("AuthURL() = %q, missing offline access", url)
	}
}

func TestDefaultOAuthScopesIncludeIdentity(t *testing.T) {
	var hasOpenID, hasEmail bool
	for _, scope := range DefaultOAuthScopes {
		switch scope {
		case "openid":
			hasOpenID = true
		case "https://www.googleapis.com/auth/userinfo.email":
			hasEmail = true
		}
	}
	if !hasOpenID || !hasEmail {
		t.Errorf("DefaultOAuthScopes missing identity scopes: %v", DefaultOAuthScopes)
	}
}

func TestTokenFilePath(t *testing.T) {
	file := tokenFile()
	if filepath.Base(file) != "google.token" {
		t.Errorf("tokenFile() = %q, want base google.token", file)
	}
	if !strings.Contains(file, "roomdesk") {
		t.Errorf("tokenFile() = %q, want roomdesk cache directory", file)
	}
}

func TestStaticTokenProviderWithoutToken(t *testing.T) {
	provider := NewStaticTokenProvider(nil)
	if provider.HasToken() {
		t.Error("HasToken() should be false for a nil token")
	}
	if _, err := provider.GetToken(context.Background()); err == nil {
		t.Error("GetToken() should fail for a nil token")
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied when the config file leaves a field unset.
const (
	DefaultServerAddr        = ":8080"
	DefaultMetricsAddr       = ":9090"
	DefaultDirectoryTTLDays  = 15
	DefaultSessionCookieName = "roomdesk_session"
)

// Config is the full application configuration, loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Google    GoogleConfig    `toml:"google"`
	Session   SessionConfig   `toml:"session"`
	Directory DirectoryConfig `toml:"directory"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	BaseURL string `toml:"base_url"`
}

// MetricsConfig configures the dedicated Prometheus metrics listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// SessionConfig configures browser session cookies. Keys are base64-encoded;
// when omitted, random keys are generated at startup and sessions do not
// survive a restart.
type SessionConfig struct {
	CookieName string `toml:"cookie_name"`
	HashKey    string `toml:"hash_key"`
	BlockKey   string `toml:"block_key"`
	Secure     bool   `toml:"secure"`
}

// DirectoryConfig configures the room directory cache.
type DirectoryConfig struct {
	CacheTTLDays int `toml:"cache_ttl_days"`
}

// CacheTTL returns the directory cache TTL as a duration.
func (d DirectoryConfig) CacheTTL() time.Duration {
	days := d.CacheTTLDays
	if days <= 0 {
		days = DefaultDirectoryTTLDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "roomdesk", "config.toml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "roomdesk", "config.toml")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file at the default location yields the zero config with
// defaults applied; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultSessionCookieName
	}
	if c.Directory.CacheTTLDays <= 0 {
		c.Directory.CacheTTLDays = DefaultDirectoryTTLDays
	}
}

// Validate checks that the fields required to talk to Google are present.
func (c *Config) Validate() error {
	if c.Google.ClientID == "" {
		return fmt.Errorf("google.client_id is required")
	}
	if c.Google.ClientSecret == "" {
		return fmt.Errorf("google.client_secret is required")
	}
	return nil
}

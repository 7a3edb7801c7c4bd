// Package config loads the application configuration from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/roomdesk/config.toml (falling back
// to ~/.config/roomdesk/config.toml). All sections are optional except
// [google], which must carry the OAuth client registration.
package config

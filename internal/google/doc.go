// Package google provides OAuth2 authentication and token management for Google APIs.
//
// This package handles both file-based token storage (for STDIO transport) and
// in-memory tokens carried in browser sessions (for the HTTP transport).
//
// The TokenProvider interface allows different token sources to be plugged in,
// so the calendar and directory clients never care where a token came from.
package google

// Package cmd implements the command-line interface for roomdesk.
//
// This package provides the following commands:
//   - serve: Start the booking server (HTTP API or MCP over stdio)
//   - login: Authorize roomdesk with a Google account for the stdio transport
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd

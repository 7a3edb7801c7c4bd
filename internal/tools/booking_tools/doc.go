// Package booking_tools registers the MCP tools for reservation management
// over the STDIO transport.
//
// The transport is single-user: tools authenticate with the token stored by
// 'roomdesk login' and resolve the user's Workspace domain once per process.
//
// Available tools:
//   - rooms_available: list rooms free for a time window
//   - floors_list: list the organization's floor labels
//   - reservations_list: list reservations in a window
//   - room_book: book a room (write)
//   - reservation_update_duration: resize a reservation (write)
//   - reservation_cancel: cancel a reservation (write)
//
// Write tools are not registered in read-only mode.
package booking_tools

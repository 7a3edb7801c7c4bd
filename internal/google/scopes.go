package google

import (
	admin "google.golang.org/api/admin/directory/v1"
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultOAuthScopes are the Google OAuth scopes required for booking rooms
// on behalf of a user.
//
// The scopes provide access to:
//   - Google Calendar: full access (events, freebusy)
//   - Admin Directory: read-only calendar resources (rooms)
//   - OpenID Connect: user identity and email
var DefaultOAuthScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Calendar scope
	calendar.CalendarScope,

	// Admin Directory scope (room listings)
	admin.AdminDirectoryResourceCalendarReadonlyScope,
}

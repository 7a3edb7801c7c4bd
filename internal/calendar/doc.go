// Package calendar provides a client for interacting with the Google Calendar API.
//
// The client operates on the authenticated user's primary calendar, where
// reservations live as regular events with the room attached as a resource
// attendee. It implements booking.CalendarProvider, so the reconciliation core
// never touches Google wire types directly.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx, httpClient)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	busy, err := client.BusyIntervals(ctx, roomEmails, start, end, "UTC")
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar

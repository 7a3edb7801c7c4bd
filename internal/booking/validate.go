package booking

import "regexp"

// attendeePattern is a syntactic check only; deliverability is the calendar
// provider's problem. The match is case-sensitive.
var attendeePattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidAttendeeAddress reports whether email looks like a mailable address.
func ValidAttendeeAddress(email string) bool {
	return attendeePattern.MatchString(email)
}

// validateAttendees returns the attendee list unchanged, or an InvalidInput
// error naming the first malformed address.
func validateAttendees(attendees []string) ([]string, error) {
	for _, attendee := range attendees {
		if !ValidAttendeeAddress(attendee) {
			return nil, invalidInput("invalid attendee email provided: %s", attendee)
		}
	}
	return attendees, nil
}

package booking

import "time"

// MinReservationMinutes is the shortest reservation the service will shrink
// to; the browser client books in 15-minute increments.
const MinReservationMinutes = 15

// IsAvailable reports whether the half-open range [start, end) is free of the
// given busy intervals. Two ranges overlap iff busy.Start < end and
// busy.End > start; intervals that merely touch a boundary do not conflict.
func IsAvailable(busy []TimeRange, start, end time.Time) bool {
	for _, b := range busy {
		if b.Start.Before(end) && b.End.After(start) {
			return false
		}
	}
	return true
}

// MinutesToDuration converts a minute count to a time.Duration using 64-bit
// arithmetic, safe for multi-hour reservations.
func MinutesToDuration(minutes int64) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// deltaWindows returns the portions of [newStart, newEnd) that fall outside
// the existing window [oldStart, oldEnd). Re-checking only these deltas keeps
// a reservation's own busy block from colliding with itself.
func deltaWindows(oldStart, oldEnd, newStart, newEnd time.Time) []TimeRange {
	var deltas []TimeRange
	if newStart.Before(oldStart) {
		deltas = append(deltas, TimeRange{Start: newStart, End: oldStart})
	}
	if newEnd.After(oldEnd) {
		deltas = append(deltas, TimeRange{Start: oldEnd, End: newEnd})
	}
	return deltas
}

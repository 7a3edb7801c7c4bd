// Package booking contains the reservation reconciliation core: room
// selection, busy-interval conflict checks, and the service that validates
// every create, update, and resize against live room availability before
// committing it to the calendar provider.
//
// The package is deliberately free of Google API types. It talks to the
// outside world through two small interfaces, DirectoryProvider and
// CalendarProvider, implemented by the directory and calendar packages.
// Room snapshots are read-only inputs; busy intervals are fetched fresh for
// every check and never cached here.
//
// Consistency is best effort: availability is a read-then-write check
// against the external calendar, so two concurrent bookings can both pass
// their check before either commits. Every operation is all-or-nothing per
// call; a failed delta check aborts before any write.
package booking

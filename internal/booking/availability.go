package booking

import (
	"context"
	"time"
)

// Checker validates candidate rooms against live busy intervals. It is the
// single choke point every create and update passes through before a write:
// no reservation is committed without a fresh check covering its final
// window (or, for updates, the delta windows).
type Checker struct {
	calendar CalendarProvider
}

// NewChecker returns a Checker backed by the given calendar provider.
func NewChecker(calendar CalendarProvider) *Checker {
	return &Checker{calendar: calendar}
}

// CheckAvailability fetches busy intervals for all candidates in one batched
// provider call and evaluates each room against [start, end). Rooms missing
// from the provider response count as free: no busy data, no conflict.
func (c *Checker) CheckAvailability(ctx context.Context, emails []string, start, end time.Time, timeZone string) (map[string]bool, error) {
	available := make(map[string]bool, len(emails))
	if len(emails) == 0 {
		return available, nil
	}

	busy, err := c.calendar.BusyIntervals(ctx, emails, start, end, timeZone)
	if err != nil {
		return nil, upstream("failed to query busy intervals", err)
	}

	for _, email := range emails {
		available[email] = IsAvailable(busy[email], start, end)
	}
	return available, nil
}

// RoomAvailable checks a single room for [start, end).
func (c *Checker) RoomAvailable(ctx context.Context, email string, start, end time.Time, timeZone string) (bool, error) {
	available, err := c.CheckAvailability(ctx, []string{email}, start, end, timeZone)
	if err != nil {
		return false, err
	}
	return available[email], nil
}

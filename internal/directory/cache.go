package directory

import (
	"context"
	"sync"
	"time"

	"github.com/roomdesk/roomdesk/internal/booking"
)

// DefaultCacheTTL is how long a domain's room snapshot stays fresh. Room
// inventories change on the timescale of office moves, not meetings.
const DefaultCacheTTL = 15 * 24 * time.Hour

// Lister fetches rooms from the upstream directory.
type Lister interface {
	ListRooms(ctx context.Context, domain string) ([]booking.Room, error)
}

type cacheEntry struct {
	rooms     []booking.Room
	fetchedAt time.Time
}

// Cache holds one room snapshot per Workspace domain. It is shared across
// requests and safe for concurrent use.
type Cache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	// now is swapped out in tests.
	now func() time.Time
}

// NewCache returns a Cache with the given TTL; ttl <= 0 uses DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Rooms returns the domain's rooms, fetching through the lister when the
// cached snapshot is missing or stale. The returned slice is a copy.
func (c *Cache) Rooms(ctx context.Context, domain string, lister Lister) ([]booking.Room, error) {
	c.mu.Lock()
	entry, ok := c.entries[domain]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		return copyRooms(entry.rooms), nil
	}

	rooms, err := lister.ListRooms(ctx, domain)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[domain] = cacheEntry{rooms: rooms, fetchedAt: c.now()}
	c.mu.Unlock()

	return copyRooms(rooms), nil
}

// Invalidate drops the domain's snapshot so the next read refetches.
func (c *Cache) Invalidate(domain string) {
	c.mu.Lock()
	delete(c.entries, domain)
	c.mu.Unlock()
}

func copyRooms(rooms []booking.Room) []booking.Room {
	out := make([]booking.Room, len(rooms))
	copy(out, rooms)
	return out
}

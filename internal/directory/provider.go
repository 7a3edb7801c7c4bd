package directory

import (
	"context"

	"github.com/roomdesk/roomdesk/internal/booking"
)

// Provider combines the shared room cache with a per-user directory client.
// It implements booking.DirectoryProvider.
type Provider struct {
	cache  *Cache
	client Lister
}

// NewProvider binds a client to the shared cache.
func NewProvider(cache *Cache, client Lister) *Provider {
	return &Provider{cache: cache, client: client}
}

// Rooms returns the domain's rooms, served from cache when fresh.
func (p *Provider) Rooms(ctx context.Context, domain string) ([]booking.Room, error) {
	return p.cache.Rooms(ctx, domain, p.client)
}

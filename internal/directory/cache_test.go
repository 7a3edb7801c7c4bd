package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	admin "google.golang.org/api/admin/directory/v1"

	"github.com/roomdesk/roomdesk/internal/booking"
)

type fakeLister struct {
	rooms []booking.Room
	err   error
	calls int
}

func (l *fakeLister) ListRooms(_ context.Context, _ string) ([]booking.Room, error) {
	l.calls++
	return l.rooms, l.err
}

func TestCacheServesFreshSnapshot(t *testing.T) {
	lister := &fakeLister{rooms: []booking.Room{{ID: "a", Email: "a@resource.calendar.google.com"}}}
	cache := NewCache(time.Hour)

	for i := 0; i < 3; i++ {
		rooms, err := cache.Rooms(context.Background(), "example.com", lister)
		if err != nil {
			t.Fatalf("Rooms() error = %v", err)
		}
		if len(rooms) != 1 {
			t.Fatalf("expected 1 room, got %d", len(rooms))
		}
	}

	if lister.calls != 1 {
		t.Errorf("expected a single upstream fetch, got %d", lister.calls)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	lister := &fakeLister{rooms: []booking.Room{{ID: "a"}}}
	cache := NewCache(time.Hour)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, err := cache.Rooms(context.Background(), "example.com", lister); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := cache.Rooms(context.Background(), "example.com", lister); err != nil {
		t.Fatal(err)
	}

	if lister.calls != 2 {
		t.Errorf("expected refetch after TTL, got %d calls", lister.calls)
	}
}

func TestCacheKeysByDomain(t *testing.T) {
	lister := &fakeLister{rooms: []booking.Room{{ID: "a"}}}
	cache := NewCache(time.Hour)

	if _, err := cache.Rooms(context.Background(), "one.example.com", lister); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Rooms(context.Background(), "two.example.com", lister); err != nil {
		t.Fatal(err)
	}

	if lister.calls != 2 {
		t.Errorf("expected one fetch per domain, got %d", lister.calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	lister := &fakeLister{rooms: []booking.Room{{ID: "a"}}}
	cache := NewCache(time.Hour)

	if _, err := cache.Rooms(context.Background(), "example.com", lister); err != nil {
		t.Fatal(err)
	}
	cache.Invalidate("example.com")
	if _, err := cache.Rooms(context.Background(), "example.com", lister); err != nil {
		t.Fatal(err)
	}

	if lister.calls != 2 {
		t.Errorf("expected refetch after invalidation, got %d calls", lister.calls)
	}
}

func TestCacheErrorIsNotCached(t *testing.T) {
	lister := &fakeLister{err: errors.New("directory down")}
	cache := NewCache(time.Hour)

	if _, err := cache.Rooms(context.Background(), "example.com", lister); err == nil {
		t.Fatal("expected an error")
	}

	lister.err = nil
	lister.rooms = []booking.Room{{ID: "a"}}
	rooms, err := cache.Rooms(context.Background(), "example.com", lister)
	if err != nil {
		t.Fatalf("Rooms() error = %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("expected recovery after upstream error, got %v", rooms)
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	lister := &fakeLister{rooms: []booking.Room{{ID: "a", Name: "Aurora"}}}
	cache := NewCache(time.Hour)

	first, err := cache.Rooms(context.Background(), "example.com", lister)
	if err != nil {
		t.Fatal(err)
	}
	first[0].Name = "mutated"

	second, err := cache.Rooms(context.Background(), "example.com", lister)
	if err != nil {
		t.Fatal(err)
	}
	if second[0].Name != "Aurora" {
		t.Error("caller mutation leaked into the cached snapshot")
	}
}

func TestToRoom(t *testing.T) {
	tests := []struct {
		name     string
		resource *admin.CalendarResource
		wantOK   bool
	}{
		{
			name: "conference room",
			resource: &admin.CalendarResource{
				ResourceId:       "r1",
				ResourceEmail:    "r1@resource.calendar.google.com",
				ResourceName:     "Aurora",
				ResourceCategory: "CONFERENCE_ROOM",
				FloorName:        "F1",
				Capacity:         4,
			},
			wantOK: true,
		},
		{
			name: "category not set",
			resource: &admin.CalendarResource{
				ResourceId:    "r2",
				ResourceEmail: "r2@resource.calendar.google.com",
			},
			wantOK: true,
		},
		{
			name: "equipment is skipped",
			resource: &admin.CalendarResource{
				ResourceId:       "r3",
				ResourceEmail:    "r3@resource.calendar.google.com",
				ResourceCategory: "OTHER",
			},
			wantOK: false,
		},
		{
			name:     "no email is skipped",
			resource: &admin.CalendarResource{ResourceId: "r4"},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room, ok := toRoom(tt.resource, "example.com")
			if ok != tt.wantOK {
				t.Fatalf("toRoom() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && room.Domain != "example.com" {
				t.Errorf("Domain = %q, want example.com", room.Domain)
			}
		})
	}
}

package directory

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/roomdesk/roomdesk/internal/booking"
	"github.com/roomdesk/roomdesk/internal/google"
	"github.com/roomdesk/roomdesk/internal/instrumentation"
)

// conferenceRoomCategory marks calendar resources that are bookable rooms,
// as opposed to equipment or other resource types.
const conferenceRoomCategory = "CONFERENCE_ROOM"

// Client wraps the Google Admin Directory API for a single authenticated user.
type Client struct {
	svc *admin.Service
}

// NewClient creates a Directory client on top of an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := admin.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Directory service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewClientWithProvider creates a Directory client from a token provider.
func NewClientWithProvider(ctx context.Context, conf google.Config, provider google.TokenProvider) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := provider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token: %w", err)
	}

	return NewClient(ctx, conf.HTTPClient(ctx, token))
}

// ListRooms returns the caller organization's conference rooms, sorted by
// seat capacity ascending.
func (c *Client) ListRooms(ctx context.Context, domain string) (_ []booking.Room, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDirectory, "resources.calendars.list")
	defer func() { instrumentation.EndSpan(span, err) }()

	var rooms []booking.Room

	call := c.svc.Resources.Calendars.List("my_customer").Context(ctx)
	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list calendar resources: %w", err)
		}
		for _, resource := range result.Items {
			if room, ok := toRoom(resource, domain); ok {
				rooms = append(rooms, room)
			}
		}
		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].Seats < rooms[j].Seats
	})

	return rooms, nil
}

// toRoom converts a calendar resource to a Room, skipping resources that are
// not addressable conference rooms.
func toRoom(resource *admin.CalendarResource, domain string) (booking.Room, bool) {
	if resource.ResourceEmail == "" {
		return booking.Room{}, false
	}
	if resource.ResourceCategory != "" && resource.ResourceCategory != conferenceRoomCategory {
		return booking.Room{}, false
	}

	return booking.Room{
		ID:          resource.ResourceId,
		Email:       resource.ResourceEmail,
		Name:        resource.ResourceName,
		Description: resource.UserVisibleDescription,
		Domain:      domain,
		Floor:       resource.FloorName,
		Seats:       resource.Capacity,
	}, true
}

package booking_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/roomdesk/roomdesk/internal/booking"
	"github.com/roomdesk/roomdesk/internal/calendar"
	"github.com/roomdesk/roomdesk/internal/directory"
	"github.com/roomdesk/roomdesk/internal/google"
	"github.com/roomdesk/roomdesk/internal/instrumentation"
)

// Registry holds the shared dependencies for the booking tools. The STDIO
// transport is single-user: every tool call authenticates with the stored
// token file and the user's Workspace domain is resolved once.
type Registry struct {
	conf    google.Config
	cache   *directory.Cache
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger

	mu     sync.Mutex
	domain string
	email  string

	// newService is swapped out in tests.
	newService func(ctx context.Context) (*booking.Service, string, error)
}

// NewRegistry creates a tool registry. Metrics and audit may be nil.
func NewRegistry(conf google.Config, cache *directory.Cache, logger *slog.Logger, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		conf:    conf,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		audit:   audit,
	}
	r.newService = r.buildService
	return r
}

// buildService constructs a booking service from the stored token file and
// resolves the caller's Workspace domain.
func (r *Registry) buildService(ctx context.Context) (*booking.Service, string, error) {
	provider := google.NewFileTokenProvider(r.conf)
	if !provider.HasToken() {
		return nil, "", fmt.Errorf("no Google OAuth token found; run 'roomdesk login' to authorize access")
	}

	cal, err := calendar.NewClientWithProvider(ctx, r.conf, provider)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create calendar client: %w", err)
	}

	dir, err := directory.NewClientWithProvider(ctx, r.conf, provider)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create directory client: %w", err)
	}

	domain, err := r.resolveDomain(ctx)
	if err != nil {
		return nil, "", err
	}

	return booking.NewService(directory.NewProvider(r.cache, dir), cal, r.logger), domain, nil
}

// resolveDomain fetches the authenticated user's Workspace domain once and
// caches it for the lifetime of the process.
func (r *Registry) resolveDomain(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.domain != "" {
		return r.domain, nil
	}

	client, err := r.conf.GetHTTPClient(ctx)
	if err != nil {
		return "", err
	}
	info, err := google.GetUserInfo(ctx, client)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user identity: %w", err)
	}

	r.domain = info.Domain
	r.email = info.Email
	return r.domain, nil
}

// RegisterBookingTools registers all reservation tools with the MCP server.
// Write tools are skipped in read-only mode.
func RegisterBookingTools(s *mcpserver.MCPServer, r *Registry, readOnly bool) error {
	if err := registerRoomTools(s, r); err != nil {
		return fmt.Errorf("failed to register room tools: %w", err)
	}
	if err := registerReservationTools(s, r, readOnly); err != nil {
		return fmt.Errorf("failed to register reservation tools: %w", err)
	}
	return nil
}

// registerRoomTools registers the read-only room directory tools.
func registerRoomTools(s *mcpserver.MCPServer, r *Registry) error {
	roomsAvailableTool := mcp.NewTool("rooms_available",
		mcp.WithDescription("List conference rooms that are free for a time window"),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Window start as an RFC 3339 timestamp, e.g. 2025-03-10T10:00:00Z"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Window end as an RFC 3339 timestamp"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for the availability query (default: UTC)"),
		),
		mcp.WithNumber("minSeats",
			mcp.Description("Minimum seat capacity"),
		),
		mcp.WithString("floor",
			mcp.Description("Floor label to filter by, e.g. 'F2'"),
		),
		mcp.WithString("eventId",
			mcp.Description("Existing event ID; its current room is included first when it still fits the window"),
		),
	)

	s.AddTool(roomsAvailableTool, r.instrumented("rooms_available", instrumentation.OperationAvailableRooms,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			start, end, err := parseWindowArgs(args)
			if err != nil {
				return "", err
			}

			svc, domain, err := r.newService(ctx)
			if err != nil {
				return "", err
			}

			rooms, err := svc.AvailableRooms(ctx, booking.AvailableRoomsRequest{
				Domain:   domain,
				Start:    start,
				End:      end,
				TimeZone: stringArg(args, "timeZone"),
				MinSeats: intArg(args, "minSeats"),
				Floor:    stringArg(args, "floor"),
				EventID:  stringArg(args, "eventId"),
			})
			if err != nil {
				return "", fmt.Errorf("failed to list available rooms: %w", err)
			}

			return marshalResult(rooms)
		}))

	floorsListTool := mcp.NewTool("floors_list",
		mcp.WithDescription("List the floor labels of the organization's conference rooms"),
	)

	s.AddTool(floorsListTool, r.instrumented("floors_list", instrumentation.OperationList,
		func(ctx context.Context, _ map[string]interface{}) (string, error) {
			svc, domain, err := r.newService(ctx)
			if err != nil {
				return "", err
			}

			floors, err := svc.ListFloors(ctx, domain)
			if err != nil {
				return "", fmt.Errorf("failed to list floors: %w", err)
			}

			return marshalResult(floors)
		}))

	return nil
}

// registerReservationTools registers the reservation lifecycle tools.
func registerReservationTools(s *mcpserver.MCPServer, r *Registry, readOnly bool) error {
	reservationsListTool := mcp.NewTool("reservations_list",
		mcp.WithDescription("List reservations within a time window, sorted by start time"),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Window start as an RFC 3339 timestamp"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Window end as an RFC 3339 timestamp"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for the listing (default: UTC)"),
		),
	)

	s.AddTool(reservationsListTool, r.instrumented("reservations_list", instrumentation.OperationList,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			start, end, err := parseWindowArgs(args)
			if err != nil {
				return "", err
			}

			svc, domain, err := r.newService(ctx)
			if err != nil {
				return "", err
			}

			reservations, err := svc.ListReservations(ctx, domain, booking.TimeRange{Start: start, End: end}, stringArg(args, "timeZone"))
			if err != nil {
				return "", fmt.Errorf("failed to list reservations: %w", err)
			}

			return marshalResult(reservations)
		}))

	if readOnly {
		return nil
	}

	roomBookTool := mcp.NewTool("room_book",
		mcp.WithDescription("Book a conference room for a time window"),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Reservation start as an RFC 3339 timestamp"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Reservation end as an RFC 3339 timestamp"),
		),
		mcp.WithString("roomEmail",
			mcp.Required(),
			mcp.Description("The room's resource calendar address"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for the reservation (default: UTC)"),
		),
		mcp.WithString("title",
			mcp.Description("Meeting title (default: 'Meeting')"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee email addresses"),
		),
		mcp.WithBoolean("conference",
			mcp.Description("Attach a Google Meet conference to the reservation"),
		),
	)

	s.AddTool(roomBookTool, r.instrumented("room_book", instrumentation.OperationCreate,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			start, end, err := parseWindowArgs(args)
			if err != nil {
				return "", err
			}
			roomEmail := stringArg(args, "roomEmail")
			if roomEmail == "" {
				return "", fmt.Errorf("roomEmail is required")
			}

			svc, domain, err := r.newService(ctx)
			if err != nil {
				return "", err
			}

			reservation, err := svc.CreateReservation(ctx, booking.CreateRequest{
				Domain:     domain,
				Start:      start,
				End:        end,
				TimeZone:   stringArg(args, "timeZone"),
				RoomEmail:  roomEmail,
				Conference: boolArg(args, "conference"),
				Title:      stringArg(args, "title"),
				Attendees:  parseAttendees(stringArg(args, "attendees")),
			})
			if err != nil {
				return "", fmt.Errorf("failed to book room: %w", err)
			}

			result, err := marshalResult(reservation)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Room booked successfully:\n%s", result), nil
		}))

	updateDurationTool := mcp.NewTool("reservation_update_duration",
		mcp.WithDescription("Change a reservation's duration, keeping its start time"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The reservation's event ID"),
		),
		mcp.WithString("roomEmail",
			mcp.Required(),
			mcp.Description("The reserved room's resource calendar address"),
		),
		mcp.WithNumber("minutes",
			mcp.Required(),
			mcp.Description("The new total duration in minutes"),
		),
	)

	s.AddTool(updateDurationTool, r.instrumented("reservation_update_duration", instrumentation.OperationResize,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			eventID := stringArg(args, "eventId")
			if eventID == "" {
				return "", fmt.Errorf("eventId is required")
			}
			roomEmail := stringArg(args, "roomEmail")
			if roomEmail == "" {
				return "", fmt.Errorf("roomEmail is required")
			}
			minutes := intArg(args, "minutes")
			if minutes <= 0 {
				return "", fmt.Errorf("minutes must be positive")
			}

			svc, _, err := r.newService(ctx)
			if err != nil {
				return "", err
			}

			window, err := svc.ResizeReservation(ctx, eventID, roomEmail, minutes)
			if err != nil {
				return "", fmt.Errorf("failed to update reservation duration: %w", err)
			}

			return fmt.Sprintf("Reservation %s now runs from %s to %s",
				eventID,
				window.Start.Format(time.RFC3339),
				window.End.Format(time.RFC3339)), nil
		}))

	cancelTool := mcp.NewTool("reservation_cancel",
		mcp.WithDescription("Cancel a reservation"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The reservation's event ID"),
		),
	)

	s.AddTool(cancelTool, r.instrumented("reservation_cancel", instrumentation.OperationDelete,
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			eventID := stringArg(args, "eventId")
			if eventID == "" {
				return "", fmt.Errorf("eventId is required")
			}

			svc, _, err := r.newService(ctx)
			if err != nil {
				return "", err
			}

			if _, err := svc.DeleteReservation(ctx, eventID); err != nil {
				return "", fmt.Errorf("failed to cancel reservation: %w", err)
			}

			return fmt.Sprintf("Reservation %s cancelled", eventID), nil
		}))

	return nil
}

// instrumented wraps a tool handler with metrics and audit logging.
func (r *Registry) instrumented(
	toolName string,
	operation string,
	handler func(ctx context.Context, args map[string]interface{}) (string, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		audit := instrumentation.NewOperationAudit(operation).
			WithTool(toolName).
			WithSpanContext(ctx)
		r.mu.Lock()
		audit.WithUser(r.email)
		r.mu.Unlock()

		text, err := handler(ctx, args)
		audit.Complete(err == nil, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()

		if r.audit != nil {
			r.audit.LogOperation(audit)
		}
		if r.metrics != nil {
			r.metrics.RecordToolInvocation(ctx, toolName, audit.Status(), audit.Duration)
		}

		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func marshalResult(v any) (string, error) {
	result, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(result), nil
}

func parseWindowArgs(args map[string]interface{}) (time.Time, time.Time, error) {
	start, err := parseTimeArg(args, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimeArg(args, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
	}
	return start, end, nil
}

func parseTimeArg(args map[string]interface{}, key string) (time.Time, error) {
	raw := stringArg(args, key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return t, nil
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func boolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// parseAttendees splits a comma-separated attendee list, dropping empty
// entries.
func parseAttendees(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

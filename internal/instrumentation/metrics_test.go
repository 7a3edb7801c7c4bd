package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailedLabels bool) *Provider {
	t.Helper()

	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
		DetailedLabels:  detailedLabels,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/api/rooms/available", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/api/events", 409, 50*time.Millisecond)
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationFreeBusy, StatusSuccess, 200*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationCreate, StatusError, 500*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceDirectory, OperationList, StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordOAuthAuth(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthAuth(ctx, OAuthResultFailure)
}

func TestMetrics_RecordOAuthTokenRefresh(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultExpired)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordToolInvocation(ctx, "rooms_available", StatusSuccess, 100*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "room_book", StatusError, 500*time.Millisecond)
}

func TestMetrics_RecordBookingOperation(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic - domain is ignored without detailed labels
	metrics.RecordBookingOperation(ctx, OperationCreate, StatusSuccess, "example.com")
	metrics.RecordBookingOperation(ctx, OperationResize, StatusError, "")
}

func TestMetrics_RecordBookingOperation_DetailedLabels(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, true).Metrics()

	// Should not panic - domain label should be included
	metrics.RecordBookingOperation(ctx, OperationCreate, StatusSuccess, "example.com")
}

func TestMetrics_RecordBookingConflict(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordBookingConflict(ctx, OperationCreate)
	metrics.RecordBookingConflict(ctx, OperationUpdate)
}

func TestMetrics_RecordAvailabilityCheck(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordAvailabilityCheck(ctx, StatusSuccess, 150*time.Millisecond)
	metrics.RecordAvailabilityCheck(ctx, StatusError, 2*time.Second)
}

func TestMetrics_ActiveSessions(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.IncrementActiveSessions(ctx)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordHTTPRequest(ctx, "GET", "/api/events", 200, 100*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordToolInvocation(ctx, "test_tool", StatusSuccess, 100*time.Millisecond)
	metrics.RecordBookingOperation(ctx, OperationCreate, StatusSuccess, "example.com")
	metrics.RecordBookingConflict(ctx, OperationCreate)
	metrics.RecordAvailabilityCheck(ctx, StatusSuccess, 100*time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// OperationAudit captures all information about a reservation operation for
// audit logging, regardless of whether it arrived over HTTP or as an MCP tool
// call.
//
// # Privacy Considerations
//
// The UserEmail field contains PII. When logging, consider:
//   - Using UserDomain() to get only the domain for metrics/general logs
//   - Only logging full email in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type OperationAudit struct {
	// Operation type (create, update, resize, delete, list, available_rooms)
	Operation string

	// Surface names the entry point: "http" or "tool"
	Surface string

	// Tool name, set when Surface is "tool"
	Tool string

	// User identity (from OAuth)
	UserEmail string

	// Target reservation details
	RoomEmail string
	EventID   string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// UserDomain returns the domain portion of the user's email for lower-cardinality logging.
func (oa *OperationAudit) UserDomain() string {
	return ExtractUserDomain(oa.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (oa *OperationAudit) Status() string {
	if oa.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
//
// # Cardinality
//
// This function uses cardinality-controlled values (user_domain)
// for metrics-compatible logging. For full audit logging, use LogAuditAttrs.
func (oa *OperationAudit) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", oa.Operation),
		slog.String("user_domain", oa.UserDomain()),
		slog.Duration("duration", oa.Duration),
		slog.Bool("success", oa.Success),
	}

	// Add optional fields only if present
	if oa.Surface != "" {
		attrs = append(attrs, slog.String("surface", oa.Surface))
	}
	if oa.Tool != "" {
		attrs = append(attrs, slog.String("tool", oa.Tool))
	}
	if oa.RoomEmail != "" {
		attrs = append(attrs, slog.String("room", oa.RoomEmail))
	}
	if oa.EventID != "" {
		attrs = append(attrs, slog.String("event_id", oa.EventID))
	}
	if oa.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", oa.TraceID))
	}
	if oa.Error != "" {
		attrs = append(attrs, slog.String("error", oa.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the full user email for compliance/audit purposes.
//
// # Security Warning
//
// This method includes PII (full email). Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (oa *OperationAudit) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", oa.Operation),
		slog.String("user", oa.UserEmail),
		slog.Duration("duration", oa.Duration),
		slog.Bool("success", oa.Success),
	}

	// Add all optional fields
	if oa.Surface != "" {
		attrs = append(attrs, slog.String("surface", oa.Surface))
	}
	if oa.Tool != "" {
		attrs = append(attrs, slog.String("tool", oa.Tool))
	}
	if oa.RoomEmail != "" {
		attrs = append(attrs, slog.String("room", oa.RoomEmail))
	}
	if oa.EventID != "" {
		attrs = append(attrs, slog.String("event_id", oa.EventID))
	}
	if oa.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", oa.TraceID))
	}
	if oa.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", oa.SpanID))
	}
	if oa.Error != "" {
		attrs = append(attrs, slog.String("error", oa.Error))
	}

	return attrs
}

// NewOperationAudit creates a new OperationAudit with timing started.
// Call Complete() when the operation finishes.
func NewOperationAudit(operation string) *OperationAudit {
	return &OperationAudit{
		Operation: operation,
		StartTime: time.Now(),
	}
}

// WithSurface sets the entry point ("http" or "tool").
func (oa *OperationAudit) WithSurface(surface string) *OperationAudit {
	oa.Surface = surface
	return oa
}

// WithTool sets the MCP tool name and marks the surface accordingly.
func (oa *OperationAudit) WithTool(tool string) *OperationAudit {
	oa.Tool = tool
	oa.Surface = "tool"
	return oa
}

// WithUser sets the user identity information.
func (oa *OperationAudit) WithUser(email string) *OperationAudit {
	oa.UserEmail = email
	return oa
}

// WithReservation sets the target room and event.
func (oa *OperationAudit) WithReservation(roomEmail, eventID string) *OperationAudit {
	oa.RoomEmail = roomEmail
	oa.EventID = eventID
	return oa
}

// WithSpanContext extracts trace context from the current span.
func (oa *OperationAudit) WithSpanContext(ctx context.Context) *OperationAudit {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		oa.TraceID = span.SpanContext().TraceID().String()
		oa.SpanID = span.SpanContext().SpanID().String()
	}
	return oa
}

// Complete marks the operation as completed and calculates duration.
// Returns the same OperationAudit for method chaining.
func (oa *OperationAudit) Complete(success bool, err error) *OperationAudit {
	oa.Duration = time.Since(oa.StartTime)
	oa.Success = success
	if err != nil {
		oa.Error = err.Error()
	}
	return oa
}

// CompleteWithError marks the operation as failed with the given error.
func (oa *OperationAudit) CompleteWithError(err error) *OperationAudit {
	return oa.Complete(false, err)
}

// CompleteSuccess marks the operation as successful.
func (oa *OperationAudit) CompleteSuccess() *OperationAudit {
	return oa.Complete(true, nil)
}

// AuditLogger provides structured audit logging for reservation operations.
// It wraps slog.Logger with convenience methods for logging operations.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs (anonymized identifiers are used instead).
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include full email addresses in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogOperation logs a reservation operation using the standard log attributes.
// This is suitable for general operational logging with cardinality controls.
// If the logger is configured with IncludePII, full user emails are logged;
// otherwise, only domain-based anonymized identifiers are used.
func (al *AuditLogger) LogOperation(oa *OperationAudit) {
	if !al.enabled {
		return
	}

	// Choose between PII and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includePII {
		attrs = oa.LogAuditAttrs()
	} else {
		attrs = oa.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if oa.Success {
		al.logger.Info("reservation_operation", args...)
	} else {
		al.logger.Warn("reservation_operation_failed", args...)
	}
}

// LogOperationAudit logs a reservation operation with full audit details.
// This includes PII (full email addresses) for compliance/audit purposes.
// SECURITY: Ensure audit logs are routed to secure storage with appropriate access controls.
//
// Note: This method respects the enabled flag but always includes PII when called,
// regardless of the IncludePII configuration. Use LogOperation for
// configuration-aware logging.
func (al *AuditLogger) LogOperationAudit(oa *OperationAudit) {
	if !al.enabled {
		return
	}

	attrs := oa.LogAuditAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	al.logger.Info("reservation_audit", args...)
}

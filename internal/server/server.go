package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/roomdesk/roomdesk/internal/booking"
	"github.com/roomdesk/roomdesk/internal/calendar"
	"github.com/roomdesk/roomdesk/internal/directory"
	"github.com/roomdesk/roomdesk/internal/google"
	"github.com/roomdesk/roomdesk/internal/instrumentation"
)

// Default timeouts for the API server.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// Config holds the dependencies for the API server.
type Config struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	// Google is the OAuth client registration used to build per-user API
	// clients.
	Google google.Config

	// Sessions encodes and decodes the session cookie.
	Sessions *SessionManager

	// Directory is the shared room snapshot cache.
	Directory *directory.Cache

	// Logger receives request and operation logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records operational metrics. Optional.
	Metrics *instrumentation.Metrics

	// Audit receives reservation operation audit records. Optional.
	Audit *instrumentation.AuditLogger
}

// Server is the HTTP API for reservation management. Every request builds a
// booking service around the caller's own OAuth token; the server itself
// holds no per-user state beyond the cookie codec.
type Server struct {
	addr     string
	google   google.Config
	sessions *SessionManager
	cache    *directory.Cache
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	health   *HealthChecker

	mux        *http.ServeMux
	httpServer *http.Server

	// newService is swapped out in tests.
	newService func(ctx context.Context, session *Session) (*booking.Service, error)
}

// NewServer creates the API server and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.Directory == nil {
		return nil, fmt.Errorf("directory cache is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Audit == nil {
		cfg.Audit = instrumentation.NewAuditLogger(cfg.Logger)
	}

	s := &Server{
		addr:     cfg.Addr,
		google:   cfg.Google,
		sessions: cfg.Sessions,
		cache:    cfg.Directory,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		health:   NewHealthChecker(),
	}
	s.newService = s.buildService
	s.mux = s.routes()

	return s, nil
}

// buildService constructs a booking service around the session's OAuth token.
func (s *Server) buildService(ctx context.Context, session *Session) (*booking.Service, error) {
	provider := google.NewStaticTokenProvider(session.Token())

	cal, err := calendar.NewClientWithProvider(ctx, s.google, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	dir, err := directory.NewClientWithProvider(ctx, s.google, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory client: %w", err)
	}

	return booking.NewService(directory.NewProvider(s.cache, dir), cal, s.logger), nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.Handle("GET /api/rooms/available", s.withSession(s.handleAvailableRooms))
	mux.Handle("GET /api/rooms/highest-seat-count", s.withSession(s.handleHighestSeatCount))
	mux.Handle("GET /api/floors", s.withSession(s.handleFloors))

	mux.Handle("GET /api/events", s.withSession(s.handleListEvents))
	mux.Handle("POST /api/events", s.withSession(s.handleCreateEvent))
	mux.Handle("PUT /api/events/{id}", s.withSession(s.handleUpdateEvent))
	mux.Handle("PUT /api/events/{id}/duration", s.withSession(s.handleResizeEvent))
	mux.Handle("DELETE /api/events/{id}", s.withSession(s.handleDeleteEvent))

	s.health.RegisterHealthEndpoints(mux)

	return mux
}

// Handler returns the server's HTTP handler with request instrumentation
// applied.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.mux)
}

// sessionHandler is an HTTP handler that has already passed session
// authentication.
type sessionHandler func(w http.ResponseWriter, r *http.Request, session *Session)

// withSession rejects requests without a valid session cookie.
func (s *Server) withSession(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.sessions.Read(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}
		next(w, r, session)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps the mux with request logging and HTTP metrics. The route
// pattern is used as the metrics label to keep cardinality bounded.
func (s *Server) instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		handler, pattern := mux.Handler(r)
		handler.ServeHTTP(recorder, r)

		duration := time.Since(start)
		if pattern == "" {
			pattern = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Context(), r.Method, pattern, recorder.status, duration)
		}
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.status),
			slog.Duration("duration", duration),
		)
	})
}

// Start runs the API server until Shutdown is called. Blocking.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.health.SetReady(true)
	s.logger.Info("starting api server", slog.String("addr", s.addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.MarkShutdown()
	if s.httpServer != nil {
		s.logger.Info("shutting down api server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.addr
}

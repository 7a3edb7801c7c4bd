package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/roomdesk/roomdesk/internal/config"
	"github.com/roomdesk/roomdesk/internal/directory"
	"github.com/roomdesk/roomdesk/internal/google"
	"github.com/roomdesk/roomdesk/internal/instrumentation"
	"github.com/roomdesk/roomdesk/internal/server"
	"github.com/roomdesk/roomdesk/internal/tools/booking_tools"
)

// shutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests.
const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var (
		configPath     string
		debugMode      bool
		transport      string
		httpAddr       string
		yolo           bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the booking server",
		Long: `Start the roomdesk booking server.

Supports two transport types:
  - http: JSON API for the browser client (default)
  - stdio: MCP server over standard input/output for AI assistants

Safety Mode (stdio only):
  By default, the MCP server operates in read-only mode, exposing only
  availability and listing tools. Use --yolo to enable booking, resizing,
  and cancellation.

Google OAuth:
  Client credentials come from the config file ([google] section) or the
  GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables. The
  stdio transport uses the token stored by 'roomdesk login'; the HTTP
  transport authenticates each browser user with its own session cookie.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if httpAddr != "" {
				cfg.Server.Addr = httpAddr
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			cfg.Metrics.Enabled = metricsEnabled

			if cfg.Google.ClientID == "" {
				cfg.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
			}
			if cfg.Google.ClientSecret == "" {
				cfg.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cfg, transport, debugMode, !yolo)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the config file (default: $XDG_CONFIG_HOME/roomdesk/config.toml)")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "http", "Transport type: http or stdio")
	cmd.Flags().StringVar(&httpAddr, "addr", "", "HTTP server address (overrides config, default: :8080)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write tools on the stdio transport. Default is read-only mode.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server address (overrides config, default: :9090)")

	return cmd
}

func runServe(cfg *config.Config, transport string, debugMode, readOnly bool) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(transport, debugMode)
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil && transport != "stdio" {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	googleConf := google.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}
	cache := directory.NewCache(cfg.Directory.CacheTTL())

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}
	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)

	switch transport {
	case "stdio":
		return runStdioServer(googleConf, cache, logger, metrics, audit, readOnly)
	case "http":
		return runHTTPServer(shutdownCtx, cfg, googleConf, cache, logger, provider, metrics, audit)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", transport)
	}
}

// newLogger builds the process logger. The stdio transport must keep stdout
// clean for the MCP protocol, so logs always go to stderr.
func newLogger(transport string, debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	// Quiet the stdio transport unless debugging is on.
	if transport == "stdio" && !debugMode {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runStdioServer(googleConf google.Config, cache *directory.Cache, logger *slog.Logger, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger, readOnly bool) error {
	mcpSrv := mcpserver.NewMCPServer("roomdesk", version,
		mcpserver.WithToolCapabilities(true),
	)

	registry := booking_tools.NewRegistry(googleConf, cache, logger, metrics, audit)
	if err := booking_tools.RegisterBookingTools(mcpSrv, registry, readOnly); err != nil {
		return fmt.Errorf("failed to register booking tools: %w", err)
	}

	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, cfg *config.Config, googleConf google.Config, cache *directory.Cache, logger *slog.Logger, provider *instrumentation.Provider, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) error {
	sessions, err := server.NewSessionManager(cfg.Session)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(server.Config{
		Addr:      cfg.Server.Addr,
		Google:    googleConf,
		Sessions:  sessions,
		Directory: cache,
		Logger:    logger,
		Metrics:   metrics,
		Audit:     audit,
	})
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("api server stopped with error: %w", err)
		}
		return nil
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("error shutting down api server: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			logger.Error("error shutting down metrics server", "error", err)
		}
	}
	return nil
}

// Package main is the entry point for the quotehub gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotehub/quotehub/internal/adapters/clients"
	"github.com/quotehub/quotehub/internal/adapters/clients/acl"
	"github.com/quotehub/quotehub/internal/adapters/http"
	"github.com/quotehub/quotehub/internal/adapters/http/handlers"
	"github.com/quotehub/quotehub/internal/adapters/state"
	"github.com/quotehub/quotehub/internal/app"
	"github.com/quotehub/quotehub/internal/platform/config"
	"github.com/quotehub/quotehub/internal/platform/logging"
	"github.com/quotehub/quotehub/internal/platform/telemetry"
	"github.com/quotehub/quotehub/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the gateway.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting gateway",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Create health registry
	healthRegistry := ports.NewHealthRegistry()

	// 6. Create HTTP clients for the two upstream services. The user
	// service client forwards the caller's cookies so it sees the same
	// session the browser holds.
	quoteClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating quote service client: %w", err)
	}

	userClient, err := clients.New(&clients.Config{
		BaseURL:        cfg.Services.User.BaseURL,
		ServiceName:    cfg.Services.User.Name,
		Timeout:        cfg.Client.Timeout,
		Retry:          cfg.Client.Retry,
		Circuit:        cfg.Client.CircuitBreaker,
		Transport:      cfg.Client.Transport,
		ForwardCookies: true,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("creating user service client: %w", err)
	}

	// 7. Create the anti-corruption adapters over the raw clients
	quoteAdapter := acl.NewQuoteAdapter(acl.QuoteAdapterConfig{
		Client: quoteClient,
		Logger: logger,
	})
	userAdapter := acl.NewUserAdapter(acl.UserAdapterConfig{
		Client:   userClient,
		LoginURL: cfg.Session.LoginURL,
		Logger:   logger,
	})

	// 8. Open the local state store
	store, err := state.Open(state.Config{
		Path:   cfg.State.Path,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("state store close error", slog.Any("error", closeErr))
		}
	}()

	// Register the upstreams and the store as health checkers
	for _, checker := range []ports.HealthChecker{quoteAdapter, userAdapter, store} {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering health check: %w", err)
		}
	}

	// 9. Create application services
	session := app.NewSession(app.SessionConfig{
		Users:  userAdapter,
		Store:  store,
		Logger: logger,
	})
	shelf := app.NewShelf()
	bookmarks := app.NewBookmarks(app.BookmarksConfig{
		Session: session,
		Users:   userAdapter,
		Shelf:   shelf,
		Logger:  logger,
	})
	usage := app.NewUsage(app.UsageConfig{
		Store:  store,
		Logger: logger,
	})
	library := app.NewLibrary(app.LibraryConfig{
		Quotes:  quoteAdapter,
		Session: session,
		Logger:  logger,
	})

	// 10. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)
	quoteHandler := handlers.NewQuoteHandler(library, bookmarks, usage, session)
	sessionHandler := handlers.NewSessionHandler(session)
	alertHandler := handlers.NewAlertHandler(store)

	// 11. Create HTTP server and router
	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:         logger,
		ServiceName:    cfg.App.Name,
		HealthHandler:  healthHandler,
		QuoteHandler:   quoteHandler,
		SessionHandler: sessionHandler,
		AlertHandler:   alertHandler,
		Timeout:        http.DefaultRequestTimeout,
	})

	// 12. Start server (non-blocking)
	serverErr := server.Start()

	// 13. Wait for shutdown signal
	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until a shutdown signal is received or server error occurs.
// It then performs graceful shutdown of the HTTP server.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/oxmenu/internal/api"
	"github.com/starford/oxmenu/internal/mcpserver"
	"github.com/starford/oxmenu/internal/menucache"
	"github.com/starford/oxmenu/internal/models"
	"github.com/starford/oxmenu/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := NewLogger(cfg, app.logWriter)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_url", cfg.Menu.BaseURL),
		slog.Int("candidates", len(cfg.Menu.Candidates)),
		slog.String("extractor", cfg.Extractor.Kind),
		slog.String("timezone", cfg.Menu.Timezone),
		slog.Bool("slack_auth", cfg.Slack.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	menu, err := BuildMenu(cfg, logger)
	if err != nil {
		return err
	}

	// SSE broker fed by cache writes.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	menu.Cache.OnStore(func(key models.WeekKey, e menucache.Entry) {
		broker.PublishWeekCached(key, e.Found)
	})

	dispatcher := api.NewDispatcher(cfg.Callback.Timeout, logger)

	apiRouter := api.NewRouter(api.RouterConfig{
		Service:    menu.Service,
		Dispatcher: dispatcher,
		Slack:      api.Auth{Enabled: cfg.Slack.AuthEnabled(), Token: cfg.Slack.Token},
		Admin:      api.Auth{Enabled: cfg.Admin.AuthEnabled(), Token: cfg.Admin.Token},
		Events:     broker,
		OnReset:    broker.PublishCacheReset,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Deliver responses for commands that were already acknowledged.
		logger.Info("Waiting for pending callbacks...")
		dispatcher.Wait()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the menu tools over stdio. Logs go to the configured log
// writer, stderr by default.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogWriter(os.Stderr)}, opts...))
	if err != nil {
		return err
	}

	logger := NewLogger(app.config, app.logWriter)
	slog.SetDefault(logger)

	menu, err := BuildMenu(app.config, logger)
	if err != nil {
		return err
	}
	srv := mcpserver.New(menu.Service, app.version)

	logger.Info("MCP server starting on stdio")
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

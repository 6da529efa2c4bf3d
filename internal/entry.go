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

	"github.com/starford/reportdesk/internal/api"
	"github.com/starford/reportdesk/internal/catalog"
	"github.com/starford/reportdesk/internal/mcpserver"
	"github.com/starford/reportdesk/internal/reportservice"
	"github.com/starford/reportdesk/internal/sse"
)

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_driver", cfg.Catalog.Driver),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("files_root", cfg.Files.Root),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := build(ctx, cfg, logger, reportservice.WithEvents(broker))
	if err != nil {
		return err
	}
	defer c.Close()

	r := NewHTTPHandler(c.service, broker)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the YAML catalog on change and announce it over SSE.
	if cfg.Catalog.Watch {
		yamlPath := cfg.Catalog.Path
		g.Go(func() error {
			return catalog.Watch(gCtx, c.catalog, yamlPath, logger, func(sum string, count int) {
				broker.PublishCatalogEvent(sum, count)
				logMissingFiles(gCtx, c.service, logger)
			})
		})
	}

	// Expire idle sessions.
	g.Go(func() error {
		c.sessions.RunSweeper(gCtx, cfg.Session.SweepInterval, logger)
		return nil
	})

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

		// Stop the watcher and sweeper.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group's context once the server has stopped.
var errShutdown = errors.New("shutdown")

// NewHTTPHandler builds the root router: middleware, health checks and the
// API under /api.
func NewHTTPHandler(svc *reportservice.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	var events http.Handler
	if broker != nil {
		events = broker
	}

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, events))

	return r
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := build(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	if err := mcpserver.New(c.service, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

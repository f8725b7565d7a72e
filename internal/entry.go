// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/indexer"
	"github.com/starford/ansuz/internal/instructionservice"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/preview"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
)

// Run starts the HTTP service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("state_path", cfg.State.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the content directory exists.
	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}

	fs, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := store.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("init state store: %w", err)
	}
	defer db.Close()

	// Initial index build. Fail-fast: a malformed document aborts startup
	// rather than serving an incomplete catalog.
	records, err := indexer.Build(fs, logger)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	cat := catalog.New(records)
	fingerprint := indexer.Fingerprint(records)

	if err := indexer.WriteFile(cfg.Catalog.Path, records); err != nil {
		logger.Warn("write catalog file failed", slog.String("error", err.Error()))
	}
	logger.Info("Catalog built", slog.Int("records", len(records)))

	// SSE broker for catalog change notifications.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build the service layer and router.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := instructionservice.NewService(cat, db, rng)
	previews := preview.NewService(db, logger)
	apiRouter := api.NewRouter(svc, previews, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild the catalog on content changes. Runtime rebuild failures keep
	// the previous catalog: fail-fast is for the offline build, not for a
	// half-saved file under an editor.
	rebuild := func() {
		rebuilt, buildErr := indexer.Build(fs, logger)
		if buildErr != nil {
			logger.Warn("catalog rebuild failed", slog.String("error", buildErr.Error()))
			return
		}
		fp := indexer.Fingerprint(rebuilt)
		if fp == fingerprint {
			logger.Debug("catalog rebuild produced identical output")
			return
		}
		fingerprint = fp
		cat.Replace(rebuilt)
		if writeErr := indexer.WriteFile(cfg.Catalog.Path, rebuilt); writeErr != nil {
			logger.Warn("write catalog file failed", slog.String("error", writeErr.Error()))
		}
		broker.PublishCatalogUpdate(len(rebuilt))
		logger.Info("Catalog rebuilt", slog.Int("records", len(rebuilt)))
	}

	g.Go(func() error {
		return indexer.Watch(gCtx, cfg.Content.Path, logger, rebuild)
	})

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunIndex runs the build-time indexer once: content root in, JSON catalog
// out. Used by CI to regenerate the static data file.
func RunIndex(_ context.Context, cfg *Config) error {
	logger := newLogger(cfg)

	fs, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	records, err := indexer.Build(fs, logger)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	if err := indexer.WriteFile(cfg.Catalog.Path, records); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	logger.Info("Catalog written",
		slog.String("path", cfg.Catalog.Path),
		slog.Int("records", len(records)))
	return nil
}

// RunMCP serves the catalog over MCP stdio. It prefers the prebuilt catalog
// file (fast start), falling back to indexing the content root.
func RunMCP(_ context.Context, cfg *Config) error {
	logger := newLogger(cfg)

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		logger.Warn("prebuilt catalog unavailable, indexing content root",
			slog.String("error", err.Error()))

		fs, fsErr := storage.NewFS(cfg.Content.Path)
		if fsErr != nil {
			return fmt.Errorf("init storage: %w", fsErr)
		}
		records, buildErr := indexer.Build(fs, logger)
		if buildErr != nil {
			return fmt.Errorf("build catalog: %w", buildErr)
		}
		cat = catalog.New(records)
	}

	db, err := store.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("init state store: %w", err)
	}
	defer db.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	svc := instructionservice.NewService(cat, db, rng)

	logger.Info("MCP server starting", slog.Int("records", cat.Len()))
	return mcpserver.New(svc).ServeStdio()
}

// newLogger initializes the structured JSON logger and installs it as the
// process default.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

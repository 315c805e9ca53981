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

	"github.com/starford/lumina/internal/api"
	"github.com/starford/lumina/internal/encryption"
	"github.com/starford/lumina/internal/importer"
	"github.com/starford/lumina/internal/index"
	"github.com/starford/lumina/internal/noteservice"
	"github.com/starford/lumina/internal/sse"
	"github.com/starford/lumina/internal/storage"
)

// newApplication applies opts and installs the JSON logger as the default.
func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openService opens the SQLite store and builds the note service on top of
// it. The caller closes the returned DB.
func openService(cfg *Config, extra ...noteservice.Option) (*index.DB, *noteservice.Service, error) {
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	opts := []noteservice.Option{
		noteservice.WithCodec(encryption.New(cfg.Crypto.Iterations)),
		noteservice.WithPasswordHash(cfg.Crypto.PasswordHash),
		noteservice.WithHashtagTags(cfg.Notes.HashtagTags),
		noteservice.WithSearchLimit(cfg.Notes.SearchLimit),
		noteservice.WithGraphNodeLimit(cfg.Notes.GraphNodeLimit),
	}
	return db, noteservice.NewService(db, append(opts, extra...)...), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("import_path", cfg.Import.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	db, svc, err := openService(cfg, noteservice.WithNotifier(broker.NotifyNote))
	if err != nil {
		return err
	}
	defer db.Close()

	var im *importer.Importer
	if cfg.Import.Enabled() {
		if err := os.MkdirAll(cfg.Import.Path, 0o755); err != nil {
			return fmt.Errorf("create import dir: %w", err)
		}
		store, err := storage.NewFS(cfg.Import.Path)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		im = importer.New(svc, store, logger)

		stats, err := im.Sync(ctx)
		if err != nil {
			logger.Warn("initial import failed", slog.String("error", err.Error()))
		} else {
			logger.Info("initial import done",
				slog.Int("imported", stats.Imported),
				slog.Int("unchanged", stats.Unchanged),
				slog.Int("removed", stats.Removed),
				slog.Int("failed", stats.Failed))
		}
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the import directory mirrored.
	if im != nil && cfg.Import.Watch {
		g.Go(func() error {
			if err := im.Watch(gCtx); err != nil {
				return fmt.Errorf("import watcher: %w", err)
			}
			return nil
		})
	}

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

		// Ends open SSE streams so Shutdown does not wait on them.
		broker.Close()

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

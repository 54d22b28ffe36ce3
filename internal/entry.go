// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/smartnotes/internal/api"
	"github.com/starford/smartnotes/internal/editor"
	"github.com/starford/smartnotes/internal/markdown"
	"github.com/starford/smartnotes/internal/mcpserver"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/sse"
	"github.com/starford/smartnotes/internal/storage"
	"github.com/starford/smartnotes/internal/wikilink"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("storage_key", cfg.Storage.Key),
		slog.String("log_level", cfg.App.LogLevel.String()))

	provider, err := openProvider(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer provider.Close()

	// SSE broker doubles as the store's change notifier.
	broker := sse.NewBroker(cfg.App.HTTP.SSEHeartbeat)
	defer broker.Close()

	store := notes.NewStore(provider, broker, logger, notes.WithKey(cfg.Storage.Key))
	resolver := wikilink.NewResolver(cfg.Editor.LinkLookback, cfg.Editor.LinkSuggestions)
	sessions := editor.NewManager(store, editor.Options{
		SaveDelay:      cfg.Editor.SaveDebounce,
		LinkLookback:   cfg.Editor.LinkLookback,
		MaxSuggestions: cfg.Editor.LinkSuggestions,
		Logger:         logger,
	})

	apiRouter := api.NewRouter(store, sessions, resolver, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := provider.Get(req.Context(), cfg.Storage.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	var handler http.Handler = r
	if len(cfg.CORS.AllowedOrigins) > 0 {
		// Wraps the router so OPTIONS pre-flight requests never reach auth.
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
			AllowCredentials: true,
		}).Handler(r)
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Forward writes made by other processes to connected clients.
	if w, ok := provider.(storage.Watcher); ok {
		g.Go(func() error {
			err := w.Watch(gCtx, cfg.Storage.Key, func() {
				store.HandleExternalChange(gCtx)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("storage watcher stopped", slog.String("error", err.Error()))
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Streams never end on their own; close them before waiting on handlers.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Pending edits are saved before the provider goes away.
		if err := sessions.CloseAll(); err != nil {
			logger.Error("flush editing sessions", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been shut down so the
// watcher goroutine returns.
var errShutdown = errors.New("shutdown")

// RunMCP serves the note tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	provider, err := openProvider(ctx, app.config.Storage)
	if err != nil {
		return err
	}
	defer provider.Close()

	store := notes.NewStore(provider, nil, app.logger, notes.WithKey(app.config.Storage.Key))
	resolver := wikilink.NewResolver(app.config.Editor.LinkLookback, app.config.Editor.LinkSuggestions)

	app.logger.Info("MCP server starting", slog.String("storage_driver", app.config.Storage.Driver))
	return mcpserver.New(store, resolver).ServeStdio()
}

// Import reads a directory of Markdown files into the configured store and
// returns the number of notes created.
func Import(ctx context.Context, dir string, opts ...Option) (int, error) {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return 0, err
	}
	provider, err := openProvider(ctx, app.config.Storage)
	if err != nil {
		return 0, err
	}
	defer provider.Close()

	store := notes.NewStore(provider, nil, app.logger, notes.WithKey(app.config.Storage.Key))
	n, err := markdown.Import(ctx, store, dir, app.logger)
	if err != nil {
		return n, fmt.Errorf("import %s: %w", dir, err)
	}
	app.logger.Info("Import finished", slog.String("dir", dir), slog.Int("notes", n))
	return n, nil
}

// Export writes every note in the configured store to dir as Markdown and
// returns the number of files written.
func Export(ctx context.Context, dir string, opts ...Option) (int, error) {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return 0, err
	}
	provider, err := openProvider(ctx, app.config.Storage)
	if err != nil {
		return 0, err
	}
	defer provider.Close()

	store := notes.NewStore(provider, nil, app.logger, notes.WithKey(app.config.Storage.Key))
	n, err := markdown.Export(ctx, store, dir)
	if err != nil {
		return n, fmt.Errorf("export %s: %w", dir, err)
	}
	app.logger.Info("Export finished", slog.String("dir", dir), slog.Int("notes", n))
	return n, nil
}

func newApplication(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		// Initialize structured JSON logger.
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

func openProvider(ctx context.Context, cfg StorageConfig) (storage.Provider, error) {
	if cfg.Driver == storage.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	provider, err := storage.Open(ctx, cfg.Driver, cfg.Path, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return provider, nil
}

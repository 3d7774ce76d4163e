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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/filecat/internal/api"
	"github.com/starford/filecat/internal/expansion"
	"github.com/starford/filecat/internal/filter"
	"github.com/starford/filecat/internal/kvstore"
	"github.com/starford/filecat/internal/mcpserver"
	"github.com/starford/filecat/internal/render"
	"github.com/starford/filecat/internal/source"
	"github.com/starford/filecat/internal/sse"
	"github.com/starford/filecat/internal/watch"
	"github.com/starford/filecat/internal/workspace"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	app.logger = slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
	return app, nil
}

// openBackend returns the configured expansion backend and a function
// releasing it.
func openBackend(cfg StateConfig) (expansion.Backend, func(), error) {
	switch cfg.Backend {
	case StateBackendSQLite:
		db, err := kvstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case StateBackendFile:
		f, err := kvstore.NewFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	default:
		return expansion.NewMemory(), func() {}, nil
	}
}

// openWorkspace wires the content lister, the expansion store and the
// filters into a service and loads the first catalog.
func (app *application) openWorkspace(ctx context.Context, opts ...workspace.Option) (*workspace.Service, func(), error) {
	cfg := app.config
	logger := app.logger

	backend, closeBackend, err := openBackend(cfg.State)
	if err != nil {
		return nil, nil, fmt.Errorf("init state: %w", err)
	}

	state := expansion.New(backend, expansion.WithLogger(logger))
	if state.Degraded() {
		logger.Warn("expansion state unavailable, starting from defaults",
			slog.String("backend", cfg.State.Backend))
	}

	src, err := source.NewOS(cfg.Content.Path,
		source.WithChecksums(cfg.Content.Checksums),
		source.WithTitles(cfg.Content.Titles),
		source.WithLogger(logger))
	if err != nil {
		closeBackend()
		return nil, nil, fmt.Errorf("init content: %w", err)
	}

	siteFilter, err := cfg.Filter.Compile(filter.Site())
	if err != nil {
		closeBackend()
		return nil, nil, err
	}
	refFilter, err := cfg.Reference.Compile(filter.Default())
	if err != nil {
		closeBackend()
		return nil, nil, err
	}

	opts = append([]workspace.Option{
		workspace.WithLogger(logger),
		workspace.WithReferenceFilter(refFilter),
	}, opts...)
	svc := workspace.NewService(src, state, siteFilter, opts...)
	if err := svc.Rebuild(ctx); err != nil {
		closeBackend()
		return nil, nil, err
	}
	return svc, closeBackend, nil
}

// watchContent watches the content directory and rebuilds svc on change.
// The root is made absolute so event names compare against the absolute
// state path.
func (app *application) watchContent(ctx context.Context, svc *workspace.Service) error {
	root, err := filepath.Abs(app.config.Content.Path)
	if err != nil {
		return fmt.Errorf("watch: resolve %s: %w", app.config.Content.Path, err)
	}
	return watch.Watch(ctx, root, svc, app.logger,
		watch.WithDelay(app.config.Content.Debounce),
		watch.WithIgnore(watchIgnore(app.config.State)))
}

// watchIgnore skips the state backend's own files when they live inside
// the content directory. Both sides are compared as clean absolute paths.
func watchIgnore(cfg StateConfig) func(string) bool {
	state := ""
	if cfg.Backend != StateBackendMemory {
		if abs, err := filepath.Abs(cfg.Path); err == nil {
			state = abs
		}
	}
	return func(p string) bool {
		if strings.HasPrefix(filepath.Base(p), ".filecat-tmp-") {
			return true
		}
		if state == "" {
			return false
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return false
		}
		return strings.HasPrefix(abs, state)
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("state_backend", cfg.State.Backend),
		slog.String("state_path", cfg.State.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	svc, closeState, err := app.openWorkspace(ctx, workspace.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer closeState()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if _, err := os.Stat(cfg.Content.Path); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"content unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Content.Watch {
		g.Go(func() error {
			return app.watchContent(gCtx, svc)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		// SSE streams only end when their clients leave; close the broker
		// first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
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

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// PrintTree loads the catalog once and writes the visible tree to w.
// reveal, if set, is expanded and highlighted first.
func PrintTree(ctx context.Context, w io.Writer, sorted bool, reveal string, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, closeState, err := app.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	if reveal != "" {
		svc.Reveal(reveal)
	}
	return svc.Render(render.NewText(w, sorted))
}

// ServeMCP serves the catalog tools over stdio until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, closeState, err := app.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer closeState()

	if app.config.Content.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := app.watchContent(watchCtx, svc); err != nil {
				app.logger.Warn("watcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	app.logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(svc, app.version).ServeStdio()
}

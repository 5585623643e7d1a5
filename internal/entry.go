// Package internal wires configuration, storage, and the publisher into the
// dailybrief commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dailybrief/internal/api"
	"github.com/starford/dailybrief/internal/catalog"
	"github.com/starford/dailybrief/internal/mcpserver"
	"github.com/starford/dailybrief/internal/publisher"
	"github.com/starford/dailybrief/internal/sse"
	"github.com/starford/dailybrief/internal/storage"
)

const (
	indexEventThrottle = 2 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// runtime holds what every command needs after setup.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.Provider
	db     *catalog.DB
	svc    *publisher.Service
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.logger.Warn("catalog: close failed", slog.String("error", err.Error()))
		}
	}
}

func setup(opts []Option) (*runtime, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		slog.String("site_dir", cfg.Site.Dir),
		slog.String("posts_dir", cfg.Site.PostsDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Site.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create site dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Site.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, store: store}
	svcOpts := []publisher.Option{
		publisher.WithPostsDir(cfg.Site.PostsDir),
		publisher.WithLogger(logger),
	}
	if cfg.SQLite.Enabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
		db, err := catalog.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init catalog: %w", err)
		}
		rt.db = db
		svcOpts = append(svcOpts, publisher.WithCatalog(db))
	}
	rt.svc = publisher.NewService(store, cfg.Site.Meta, svcOpts...)
	return rt, nil
}

// Publish renders one briefing file and rebuilds the index. A briefing
// without a dated name or a readable file is rejected before the site
// directory or catalog are touched.
func Publish(ctx context.Context, briefingPath string, opts ...Option) (*publisher.Result, error) {
	if _, err := publisher.CheckBriefing(briefingPath); err != nil {
		return nil, err
	}
	rt, err := setup(opts)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return rt.svc.Publish(ctx, briefingPath)
}

// Reindex rebuilds the index from the posts already on disk.
func Reindex(ctx context.Context, opts ...Option) (*publisher.Result, error) {
	rt, err := setup(opts)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return rt.svc.Reindex(ctx)
}

// ServeMCP runs the MCP server on stdin/stdout until ctx is cancelled or
// the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("mcp: serving on stdio")
	return mcpserver.New(rt.svc).ServeStdio(ctx, os.Stdin, os.Stdout)
}

// Serve runs the preview server: the static site with live reload, the JSON
// API, and the inbox watcher when an inbox is configured.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, logger := rt.cfg, rt.logger

	if rt.db != nil {
		if err := catalog.Sync(rt.db, rt.store, cfg.Site.PostsDir, logger); err != nil {
			logger.Warn("catalog: initial sync failed", slog.String("error", err.Error()))
		}
	}

	broker := sse.NewBroker(indexEventThrottle)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(rt, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Site.InboxDir != "" {
		if err := os.MkdirAll(cfg.Site.InboxDir, 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
		g.Go(func() error {
			return catalog.Watch(gCtx, cfg.Site.InboxDir, logger, func(ctx context.Context, path string) {
				res, err := rt.svc.Publish(ctx, path)
				if err != nil {
					logger.Error("watcher: publish failed", slog.String("path", path), slog.String("error", err.Error()))
					return
				}
				broker.PublishPost(res.Post.Slug, res.Post.Lede)
			})
		})
	}

	g.Go(func() error {
		logger.Info("http: listening", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("http: received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http: shutdown failed", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("serve: stopped with error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("serve: stopped")
	return nil
}

// errShutdown cancels the group's context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func newRouter(rt *runtime, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(rt.cfg.Site.Dir); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"site dir unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","live_reload_clients":%d}`, broker.Clients())
	})

	r.Mount("/api", api.NewRouter(rt.svc, rt.cfg.Auth.AuthEnabled(), rt.cfg.Auth.Token, broker))
	// EventSource cannot send a bearer token, so pages only get the reload
	// script when /api/events is open.
	if rt.cfg.Auth.AuthEnabled() {
		r.Handle("/*", http.FileServer(http.Dir(rt.cfg.Site.Dir)))
	} else {
		r.Handle("/*", sse.SiteHandler(rt.cfg.Site.Dir))
	}
	return r
}

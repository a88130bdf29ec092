// Package internal provides the application initialization and runtime logic
// behind each CLI command.
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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/csaharvest/internal/api"
	"github.com/starford/csaharvest/internal/catalog"
	"github.com/starford/csaharvest/internal/fetch"
	"github.com/starford/csaharvest/internal/harvest"
	"github.com/starford/csaharvest/internal/index"
	"github.com/starford/csaharvest/internal/mcpserver"
	"github.com/starford/csaharvest/internal/messages"
	"github.com/starford/csaharvest/internal/sse"
	"github.com/starford/csaharvest/internal/storage"
)

// setup applies options, installs the JSON logger writing to logOut and opens
// the catalog directory.
func setup(opts []Option, logOut io.Writer) (*application, *slog.Logger, *storage.FS, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Catalog.Dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return app, logger, store, nil
}

// Scrape harvests every configured week and writes the hauls and recipes
// catalogs.
func Scrape(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("url_template", cfg.Source.URLTemplate),
		slog.Int("first_year", cfg.Source.FirstYear),
		slog.Int("last_year", cfg.Source.LastYear),
		slog.Int("max_weeks", cfg.Source.MaxWeeks),
		slog.String("catalog_dir", store.Root()))

	fetcher := app.fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(cfg.Source.FetchOptions())
	}

	h := harvest.New(fetcher, store, cfg.Source.Range(), cfg.AssembleOptions(), logger)
	if _, err := h.Run(ctx); err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	return nil
}

// Catalog builds the products and ingredients registries from the scraped
// catalogs. With resolve set it also writes copies of the catalogs with every
// item reference resolved.
func Catalog(ctx context.Context, resolve bool, opts ...Option) error {
	_, logger, store, err := setup(opts, os.Stdout)
	if err != nil {
		return err
	}

	hauls, err := catalog.LoadHauls(store)
	if err != nil {
		return fmt.Errorf("catalog: load hauls: %w", err)
	}
	recipes, err := catalog.LoadRecipes(store)
	if err != nil {
		return fmt.Errorf("catalog: load recipes: %w", err)
	}

	regs, err := catalog.BuildRegistries(ctx, store, hauls, recipes, logger)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if !resolve {
		return nil
	}

	resolvedHauls, resolvedRecipes := catalog.Resolve(hauls, recipes, regs)
	if err := catalog.SaveResolved(store, resolvedHauls, resolvedRecipes); err != nil {
		return err
	}
	logger.Info("catalog: resolved copies written",
		slog.String("hauls", catalog.ResolvedHaulsFile),
		slog.String("recipes", catalog.ResolvedRecipesFile))
	return nil
}

// Messages moves haul intro texts into the shared string table.
func Messages(_ context.Context, opts ...Option) error {
	_, logger, store, err := setup(opts, os.Stdout)
	if err != nil {
		return err
	}
	if _, err := messages.Extract(store, logger); err != nil {
		return err
	}
	return nil
}

// Serve indexes the catalogs, keeps the index in sync with the catalog
// directory and serves the read-only API until ctx is cancelled or a signal
// arrives.
func Serve(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_dir", store.Root()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := api.NewService(db)
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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, store, logger, broker.PublishCatalogEvent)
	})

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

// MCP indexes the catalogs and serves them to an MCP client over stdio.
// Logs go to stderr since stdout carries the protocol.
func MCP(ctx context.Context, opts ...Option) error {
	app, logger, store, err := setup(opts, os.Stderr)
	if err != nil {
		return err
	}

	db, err := index.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := index.Watch(watchCtx, db, store, logger, nil); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Serving MCP over stdio", slog.String("catalog_dir", store.Root()))
	return mcpserver.New(store, db).ServeStdio()
}

// errShutdown cancels the group so the watcher stops along with the server.
var errShutdown = errors.New("shutdown")

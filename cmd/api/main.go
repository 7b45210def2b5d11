// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

// Command api is the entry point for the Folio HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the reader-state key-value store (file, redis, or memory).
//  4. Load the library feed.
//  5. Wire the reader components and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhlq/folio/internal/api"
	"github.com/minhlq/folio/internal/catalog"
	"github.com/minhlq/folio/internal/platform/config"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/reader/progress"
	"github.com/minhlq/folio/internal/reader/session"
	"github.com/minhlq/folio/internal/reader/settings"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "folio"))
	slog.SetDefault(log)

	log.Info("[Folio] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "folio"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_backend", cfg.StoreBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Key-Value Store ────────────────────────────────────────────────
	store, err := openStore(startupCtx, cfg, log)
	must(log, err, "open key-value store")
	defer func() {
		log.Info("closing key-value store")
		if cerr := store.Close(); cerr != nil {
			log.Error("store close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Library Feed ───────────────────────────────────────────────────
	// A missing feed is not fatal: the reader still works with direct paths.
	library, err := catalog.Load(cfg.LibraryPath)
	if err != nil {
		log.Warn("library feed unavailable, starting with an empty catalog",
			slog.String("path", cfg.LibraryPath),
			slog.Any("error", err),
		)
		library = catalog.Empty()
	} else {
		log.Info("library_loaded", slog.Int("books", library.Len()))
	}

	// ── 5. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckStore: func() error {
			var probe struct{}
			return store.Set(context.Background(), "health_probe", probe)
		},
		CheckLibrary: func() error {
			if _, statErr := os.Stat(cfg.LibraryPath); statErr != nil {
				return statErr
			}
			return nil
		},
	}, log)

	// ── 6. Reader Wiring ──────────────────────────────────────────────────
	history := progress.NewHistory(store)
	settingsManager := settings.NewManager(startupCtx, store, log, nil)

	registry := session.NewRegistry(log)
	sessionHandler := session.NewHandler(registry, store, history, log,
		cfg.BooksDir, cfg.IdleThreshold, cfg.AutosaveInterval)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Catalog:   catalog.NewHandler(library),
		Sessions:  sessionHandler,
		Settings:  settings.NewHandler(settingsManager),
		History:   progress.NewHandler(history),
	}

	server := api.NewServer(context.Background(), cfg, log, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Flush every open reading session before the store closes.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	registry.CloseAll(shutdownCtx)
	shutdownCancel()

	log.Info("server stopped cleanly")
}

// openStore selects the key-value store backend from configuration.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (kvstore.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		return kvstore.NewRedisStore(ctx, cfg.RedisURL, log)
	case config.StoreBackendMemory:
		log.Warn("using the in-memory store, reader state will not survive restarts")
		return kvstore.NewMemoryStore(), nil
	default:
		return kvstore.NewFileStore(cfg.DataDir)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

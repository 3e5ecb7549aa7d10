// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/cache"
	"github.com/olegiv/lcms-go/internal/config"
	"github.com/olegiv/lcms-go/internal/handler"
	"github.com/olegiv/lcms-go/internal/logging"
	"github.com/olegiv/lcms-go/internal/middleware"
	"github.com/olegiv/lcms-go/internal/scheduler"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "lcms - Learning Content Management System API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_JWT_SECRET            Token signing secret (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_DB_PATH               SQLite database path (default: ./data/lcms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_SERVER_PORT           Server port (default: 5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_ENV                   Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_CORS_ORIGINS          Comma-separated allowed origins\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_REDIS_URL             Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_MAINTENANCE_SCHEDULE  Cron schedule for database maintenance (default: @daily, \"off\" disables)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_DO_SEED               Create the bootstrap admin on start (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LCMS_ADMIN_PASSWORD        Bootstrap admin password (required with LCMS_DO_SEED)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/lcms-go\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("lcms %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsDevelopment())
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	logger.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	logger.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready")

	if cfg.DoSeed {
		err := store.Seed(context.Background(), db, store.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminUsername: cfg.AdminUsername,
			AdminPassword: cfg.AdminPassword,
			SampleLesson:  cfg.SeedSampleLesson,
		})
		if err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	c, backend := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = c.Close() }()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenIssuer)
	if err != nil {
		return fmt.Errorf("creating token manager: %w", err)
	}

	jobs := scheduler.New(logger)
	if cfg.MaintenanceEnabled() {
		err := jobs.Add(scheduler.Job{
			Name:     "db-maintenance",
			Schedule: cfg.MaintenanceSchedule,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				return store.Maintain(ctx, db)
			},
		})
		if err != nil {
			return fmt.Errorf("LCMS_MAINTENANCE_SCHEDULE: %w", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer protection.Close()

	router := handler.NewRouter(handler.RouterConfig{
		DB:                       db,
		Cache:                    c,
		CacheBackend:             backend,
		LessonCacheTTL:           cfg.CacheTTL,
		Tokens:                   tokens,
		LoginProtection:          protection,
		Logger:                   logger,
		Version:                  versionInfo,
		Jobs:                     jobs,
		Development:              cfg.IsDevelopment(),
		CORSOrigins:              cfg.CORSOrigins,
		APIRateLimit:             cfg.APIRateLimit,
		ContactRateLimit:         cfg.ContactRateLimit,
		RequestTimeout:           cfg.RequestTimeout,
		LegacyPublicLessonCreate: cfg.LegacyPublicLessonCreate,
		LegacyPublicContactList:  cfg.LegacyPublicContactList,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

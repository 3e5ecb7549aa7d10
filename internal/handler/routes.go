// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/cache"
	"github.com/olegiv/lcms-go/internal/middleware"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/version"
)

// RouterConfig carries the dependencies and switches of the HTTP router.
// DB, Cache and Tokens are required.
type RouterConfig struct {
	DB              *sql.DB
	Cache           cache.Cache
	CacheBackend    string
	LessonCacheTTL  time.Duration
	Tokens          *auth.TokenManager
	LoginProtection *middleware.LoginProtection
	Logger          *slog.Logger
	Version         version.Info
	Jobs            JobRunner // optional; nil leaves the job routes unmounted

	Development      bool
	CORSOrigins      []string
	APIRateLimit     float64 // requests per second per IP, 0 disables
	ContactRateLimit int     // contact submissions per minute per IP, 0 disables
	RequestTimeout   time.Duration

	// LegacyPublicLessonCreate opens POST /api/lessons to anonymous callers.
	LegacyPublicLessonCreate bool
	// LegacyPublicContactList opens GET /api/contact to anonymous callers.
	LegacyPublicContactList bool
}

// NewRouter builds the complete API router.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queries := store.New(cfg.DB)
	lessonCache := cache.NewLessonCache(cfg.Cache, queries, cfg.LessonCacheTTL)

	lessonHandler := NewLessonHandler(queries, lessonCache, logger)
	contactHandler := NewContactHandler(queries, logger)
	adminHandler := NewAdminHandler(queries, cfg.Tokens, cfg.LoginProtection, logger)
	healthHandler := NewHealthHandler(cfg.DB, cfg.Cache, cfg.CacheBackend, cfg.Version, logger)

	requireAdmin := middleware.RequireAdmin(cfg.Tokens)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.Development)))
	// CORS runs before the limiter and the timeout so their 429 and 503
	// replies are readable by browser clients.
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.APIRateLimit > 0 {
		r.Use(middleware.NewGlobalRateLimiter(cfg.APIRateLimit, 0).Middleware())
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/lessons", func(r chi.Router) {
		r.Get("/", lessonHandler.List)
		if cfg.LegacyPublicLessonCreate {
			r.Post("/", lessonHandler.Create)
		} else {
			r.With(requireAdmin).Post("/", lessonHandler.Create)
		}
		r.Get("/{slug}", lessonHandler.Get)
		r.Get("/{slug}/sections/{anchor}", lessonHandler.Section)
		r.Post("/{slug}/quiz", lessonHandler.SubmitQuiz)
	})

	r.Route("/api/contact", func(r chi.Router) {
		if cfg.ContactRateLimit > 0 {
			r.With(middleware.ContactRateLimit(cfg.ContactRateLimit)).Post("/", contactHandler.Create)
		} else {
			r.Post("/", contactHandler.Create)
		}
		if cfg.LegacyPublicContactList {
			r.Get("/", contactHandler.LegacyList)
		} else {
			r.With(requireAdmin).Get("/", contactHandler.LegacyList)
		}
	})

	r.Route("/api/admin", func(r chi.Router) {
		if cfg.LoginProtection != nil {
			r.With(cfg.LoginProtection.Middleware()).Post("/login", adminHandler.Login)
		} else {
			r.Post("/login", adminHandler.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/profile", adminHandler.Profile)
			r.Put("/password", adminHandler.ChangePassword)
			r.Get("/dashboard/stats", adminHandler.Stats)

			r.Route("/lessons", func(r chi.Router) {
				r.Get("/", lessonHandler.AdminList)
				r.Post("/", lessonHandler.Create)
				r.Get("/{id}", lessonHandler.AdminGet)
				r.Put("/{id}", lessonHandler.Update)
				r.Delete("/{id}", lessonHandler.Delete)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.AdminList)
				r.Get("/{id}", contactHandler.AdminGet)
				r.Patch("/{id}", contactHandler.AdminUpdate)
			})

			if cfg.Jobs != nil {
				jobHandler := NewJobHandler(cfg.Jobs, logger)
				r.Get("/jobs", jobHandler.List)
				r.Post("/jobs/{name}/run", jobHandler.Run)
			}
		})
	})

	return r
}

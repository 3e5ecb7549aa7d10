// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/lcms-go/internal/cache"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/version"
)

// Health check states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	db           *sql.DB
	cache        cache.Cache
	cacheBackend string
	version      version.Info
	logger       *slog.Logger
	startTime    time.Time
}

// NewHealthHandler creates a new health handler. c may be nil.
func NewHealthHandler(db *sql.DB, c cache.Cache, cacheBackend string, info version.Info, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        c,
		cacheBackend: cacheBackend,
		version:      info,
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Check represents a single health check result.
type Check struct {
	Status  string       `json:"status"`
	Latency string       `json:"latency,omitempty"`
	Backend string       `json:"backend,omitempty"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Success   bool             `json:"success"`
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Health handles GET /health. The database is required; a failing cache
// only degrades the service because reads fall through to the store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	cacheCheck := h.checkCache(r.Context())

	status := StatusHealthy
	code := http.StatusOK
	switch {
	case dbCheck.Status != StatusHealthy:
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	case cacheCheck.Status != StatusHealthy:
		status = StatusDegraded
	}

	v := h.version.Version
	if v == "" {
		v = "dev"
	}

	writeJSON(w, code, HealthStatus{
		Success:   code == http.StatusOK,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   v,
		Checks: map[string]Check{
			"database": dbCheck,
			"cache":    cacheCheck,
		},
	})
}

// Liveness handles GET /health/live - the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "alive"})
}

// Readiness handles GET /health/ready - the database accepts queries.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.checkDatabase(r.Context()).Status != StatusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ready"})
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := store.Ping(ctx, h.db); err != nil {
		h.logger.WarnContext(ctx, "database health check failed", "error", err)
		return Check{Status: StatusUnhealthy}
	}
	return Check{Status: StatusHealthy, Latency: time.Since(start).String()}
}

// pinger is implemented by network-backed caches.
type pinger interface {
	Ping(ctx context.Context) error
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	if h.cache == nil {
		return Check{Status: StatusHealthy, Backend: "none"}
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	check := Check{Status: StatusHealthy, Backend: h.cacheBackend}
	if p, ok := h.cache.(pinger); ok {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "cache health check failed", "backend", h.cacheBackend, "error", err)
			check.Status = StatusUnhealthy
			return check
		}
		check.Latency = time.Since(start).String()
	}
	if sp, ok := h.cache.(cache.StatsProvider); ok {
		stats := sp.Stats(ctx)
		check.Stats = &stats
	}
	return check
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lcms-go/internal/cache"
	"github.com/olegiv/lcms-go/internal/testutil"
	"github.com/olegiv/lcms-go/internal/version"
)

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.public(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, StatusHealthy, body["status"])
	assert.Equal(t, "dev", body["version"])
	assert.Equal(t, StatusHealthy, field(t, body, "checks", "database", "status"))
	assert.Equal(t, cache.BackendMemory, field(t, body, "checks", "cache", "backend"))

	rec = env.public(http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decode(t, rec)["status"])

	rec = env.public(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestHealth_ReportsCacheStats(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateLesson(t, env.db, "HTML Basics", "html-basics")

	// A miss that fills the cache, then a hit.
	env.public(http.MethodGet, "/api/lessons", nil)
	env.public(http.MethodGet, "/api/lessons", nil)

	rec := env.public(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := field(t, decode(t, rec), "checks", "cache", "stats")
	assert.GreaterOrEqual(t, field(t, stats, "hits").(float64), float64(1))
	assert.GreaterOrEqual(t, field(t, stats, "misses").(float64), float64(1))
	assert.GreaterOrEqual(t, field(t, stats, "items").(float64), float64(1))
}

// failingCache is a memory cache whose Ping always fails.
type failingCache struct {
	*cache.MemoryCache
}

func (failingCache) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_Degradation(t *testing.T) {
	db := testutil.TestDB(t)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	h := NewHealthHandler(db, failingCache{mem}, cache.BackendRedis, version.Info{Version: "v1.2.3"}, testutil.TestLoggerSilent())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, StatusDegraded, body["status"])
	assert.Equal(t, "v1.2.3", body["version"])
	assert.Equal(t, StatusUnhealthy, field(t, body, "checks", "cache", "status"))
	assert.Nil(t, field(t, body, "checks", "cache", "stats"), "no stats from an unreachable cache")

	require.NoError(t, db.Close())

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, StatusUnhealthy, decode(t, rec)["status"])

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decode(t, rec)["status"])
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/cache"
	"github.com/olegiv/lcms-go/internal/middleware"
	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/testutil"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct-horse-battery-staple"
)

// testEnv is a full router over a temporary database with one admin.
type testEnv struct {
	t       *testing.T
	db      *sql.DB
	queries *store.Queries
	tokens  *auth.TokenManager
	router  http.Handler
	admin   model.Admin
	token   string
}

func newTestEnv(t *testing.T, configure ...func(*RouterConfig)) *testEnv {
	t.Helper()

	db := testutil.TestDB(t)
	tokens := testutil.TestTokenManager(t)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	protection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit: 1000,
		IPBurst:     1000,
	})
	t.Cleanup(protection.Close)

	cfg := RouterConfig{
		DB:              db,
		Cache:           mem,
		CacheBackend:    cache.BackendMemory,
		LessonCacheTTL:  time.Minute,
		Tokens:          tokens,
		LoginProtection: protection,
		Logger:          testutil.TestLoggerSilent(),
		Development:     true,
		CORSOrigins:     []string{"http://localhost:5173"},
		RequestTimeout:  5 * time.Second,
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	admin := testutil.CreateAdmin(t, db, testAdminEmail, testAdminPassword)
	token, _, err := tokens.Issue(admin.ID, admin.Email, admin.Role)
	require.NoError(t, err)

	return &testEnv{
		t:       t,
		db:      db,
		queries: store.New(db),
		tokens:  tokens,
		router:  NewRouter(cfg),
		admin:   admin,
		token:   token,
	}
}

// request sends method path with body to the router. A string body is
// sent verbatim, anything else is JSON-encoded.
func (e *testEnv) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.10:40000"

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) public(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.request(method, path, body, "")
}

func (e *testEnv) authed(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.request(method, path, body, e.token)
}

// decode parses the response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

// requireFailure asserts a failure envelope with status and message.
func requireFailure(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := decode(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, message, body["message"])
}

// field walks nested maps: field(body, "lesson", "slug").
func field(t *testing.T, v any, path ...string) any {
	t.Helper()
	for _, key := range path {
		m, ok := v.(map[string]any)
		require.True(t, ok, "expected object at %q, got %T", key, v)
		v = m[key]
	}
	return v
}

// sampleLessonBody is a valid create/update body with an enabled quiz in
// the "quiz-time" section.
func sampleLessonBody(topic, slug string) map[string]any {
	return map[string]any{
		"topic": topic,
		"slug":  slug,
		"sections": []map[string]any{
			{
				"title":   "Introduction",
				"content": "<p>Hello</p>",
				"anchor":  "introduction",
			},
			{
				"title":   "Quiz Time",
				"content": "<p>Check yourself</p>",
				"anchor":  "quiz-time",
				"quiz": map[string]any{
					"enabled":      true,
					"passingScore": 50,
					"questions": []map[string]any{
						{
							"id":          "q1",
							"question":    "Which tag makes a link?",
							"explanation": "The anchor element.",
							"options": []map[string]any{
								{"id": "a", "text": "<p>"},
								{"id": "b", "text": "<a>", "correct": true},
							},
						},
						{
							"id":       "q2",
							"question": "Which property sets text colour?",
							"options": []map[string]any{
								{"id": "c", "text": "color", "correct": true},
								{"id": "d", "text": "font"},
							},
						},
					},
				},
			},
		},
	}
}

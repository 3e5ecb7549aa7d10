// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lcms-go/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager(testSecret, time.Hour, "lcms")
	require.NoError(t, err)
	return tm
}

func TestRequireAdmin(t *testing.T) {
	tm := newTestTokenManager(t)
	valid, _, err := tm.Issue(42, "admin@learningcenter.com", "super-admin")
	require.NoError(t, err)

	other, err := auth.NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour, "lcms")
	require.NoError(t, err)
	forged, _, err := other.Issue(42, "admin@learningcenter.com", "admin")
	require.NoError(t, err)

	var gotClaims *auth.Claims
	var gotID int64
	protected := RequireAdmin(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = GetClaims(r)
		gotID = GetAdminID(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "other secret", header: "Bearer " + forged, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims, gotID = nil, 0

			req := httptest.NewRequest(http.MethodGet, "/api/admin/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusUnauthorized {
				require.NotNil(t, gotClaims)
				assert.Equal(t, int64(42), gotID)
				assert.Equal(t, "super-admin", gotClaims.Role)
				return
			}

			assert.Nil(t, gotClaims, "handler must not run")
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, MsgPleaseAuthenticate, body["message"])
		})
	}
}

func TestGetClaims_NoneInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetClaims(req))
	assert.Zero(t, GetAdminID(req))
}

func TestWithClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &auth.Claims{AdminID: 7}))
	assert.Equal(t, int64(7), GetAdminID(req))
}

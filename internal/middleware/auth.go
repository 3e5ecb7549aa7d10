// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/lcms-go/internal/auth"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyClaims holds the verified token claims of an authenticated admin.
const ContextKeyClaims ContextKey = "claims"

// MsgPleaseAuthenticate is the single 401 message. Missing, malformed,
// expired and forged tokens are indistinguishable to the caller.
const MsgPleaseAuthenticate = "Please authenticate"

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAdmin creates middleware that rejects requests without a valid
// admin token with 401. On success the claims are stored in the context.
func RequireAdmin(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, MsgPleaseAuthenticate)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				slog.Debug("rejected admin token", "path", r.URL.Path, "error", err)
				WriteError(w, http.StatusUnauthorized, MsgPleaseAuthenticate)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// GetClaims retrieves the admin claims from the request context.
// Returns nil on routes that are not behind RequireAdmin.
func GetClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*auth.Claims)
	return claims
}

// GetAdminID returns the authenticated admin's id, or 0.
func GetAdminID(r *http.Request) int64 {
	if claims := GetClaims(r); claims != nil {
		return claims.AdminID
	}
	return 0
}

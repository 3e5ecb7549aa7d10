// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides the HTTP middleware of the lcms API:
// bearer-token authentication, rate limiting, login protection, security
// headers, request timeouts, CORS, request logging and metrics.
package middleware

import (
	"net/http"

	"github.com/goccy/go-json"
)

// errorBody is the failure envelope shared with the handlers.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteError writes a {"success": false, "message": ...} JSON response.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Success: false, Message: message})
}

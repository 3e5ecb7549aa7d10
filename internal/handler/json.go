// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP controllers of the lcms API: public
// lesson reads and quiz scoring, contact intake, and the admin back office.
// Every response is a JSON object carrying a "success" flag; failures also
// carry a human-readable "message".
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/olegiv/lcms-go/internal/middleware"
	"github.com/olegiv/lcms-go/internal/validation"
)

// Messages shared across controllers.
const (
	MsgServerError      = "Server error"
	MsgInvalidJSON      = "Invalid JSON data"
	MsgValidationFailed = "Validation failed"
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInvalidID        = "Invalid id"
)

// maxBodyBytes caps request bodies. Lessons with many sections are the
// largest documents the API accepts.
const maxBodyBytes = 1 << 20

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSuccess writes {"success": true, ...fields}.
func writeSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, status, body)
}

// writeError writes {"success": false, "message": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	middleware.WriteError(w, status, message)
}

// writeValidationError writes a 400 with per-field messages under "errors".
func writeValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"message": MsgValidationFailed,
		"errors":  verr.Fields,
	})
}

// serverError logs err with the request context and answers 500 with a
// generic message. Details never reach the client.
func serverError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(r.Context(), msg, "error", err, "method", r.Method, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, MsgServerError)
}

// decodeJSON reads the request body into dst. Unknown fields, trailing
// data and oversized bodies are rejected. On failure a 400 "Invalid JSON
// data" has already been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	return true
}

// parseIDParam extracts the positive integer {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// requireID parses {id} or writes a 400 and returns false.
func requireID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidID)
		return 0, false
	}
	return id, true
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, MsgRouteNotFound)
}

// MethodNotAllowed answers a known path with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}

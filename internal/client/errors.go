// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	// Fields holds per-field validation messages, when the server sent any.
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lcms api: %d %s", e.Status, e.Message)
}

// newAPIError builds an APIError from the server's failure envelope. A body
// without a message falls back to the HTTP status text.
func newAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	_ = json.Unmarshal(body, &envelope)

	msg := envelope.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg, Fields: envelope.Errors}
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsRateLimited reports whether err is a 429 from the server.
func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

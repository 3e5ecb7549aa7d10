// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client is a Go client for the lcms HTTP API. Public calls live on
// Client.Lessons and Client.Contact; back-office calls on Client.Admin use
// the bearer token held by the client's Credentials.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without contacting the server while the
// circuit breaker is open after repeated server failures.
var ErrCircuitOpen = gobreaker.ErrOpenState

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxFailures  = 5
	defaultOpenTimeout  = 30 * time.Second
	maxResponseBytes    = 10 << 20
	requestIDHeader     = "X-Request-Id"
	defaultUserAgent    = "lcms-go-client"
	breakerNamePrefix   = "lcms-api "
	halfOpenMaxRequests = 1
)

// Client talks to one lcms server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	creds      *Credentials
	userAgent  string
	logger     *slog.Logger

	maxFailures uint32
	openTimeout time.Duration
	breaker     *gobreaker.CircuitBreaker[*response]

	Lessons *LessonsService
	Contact *ContactService
	Admin   *AdminService
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials shares creds with the client. Without it the client owns
// a private, initially empty Credentials.
func WithCredentials(creds *Credentials) Option {
	return func(c *Client) { c.creds = creds }
}

// WithHTTPClient replaces the default http.Client (15s timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for circuit breaker transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCircuitBreaker opens the circuit after maxFailures consecutive
// transport errors or 5xx responses, and tries again after openTimeout.
func WithCircuitBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		c.maxFailures = maxFailures
		c.openTimeout = openTimeout
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		userAgent:   defaultUserAgent,
		logger:      slog.Default(),
		maxFailures: defaultMaxFailures,
		openTimeout: defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.creds == nil {
		c.creds = &Credentials{}
	}

	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        breakerNamePrefix + u.Host,
		MaxRequests: halfOpenMaxRequests,
		Timeout:     c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	c.Lessons = &LessonsService{c: c}
	c.Contact = &ContactService{c: c}
	c.Admin = &AdminService{c: c}
	return c, nil
}

// Credentials returns the token holder used by the client.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// isBreakerSuccess counts client errors (4xx) and cancellations as
// successes: they say nothing about server health.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status < http.StatusInternalServerError
	}
	return false
}

type response struct {
	status int
	body   []byte
}

// do sends a JSON request and decodes a successful JSON response into out.
// Non-2xx responses become *APIError. A 401 on a request that carried a
// token clears that token from the credentials.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	token := c.creds.Token()

	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.send(ctx, method, u.String(), token, payload)
	})
	if err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr):
			if apiErr.Status == http.StatusUnauthorized && token != "" {
				c.creds.clearIf(token)
			}
			return apiErr
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return fmt.Errorf("%s %s: %w", method, path, ErrCircuitOpen)
		default:
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs one HTTP round trip. Non-2xx statuses are returned as
// *APIError so the breaker can classify them.
func (c *Client) send(ctx context.Context, method, rawURL, token string, payload []byte) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, newAPIError(httpResp.StatusCode, data)
	}
	return &response{status: httpResp.StatusCode, body: data}, nil
}

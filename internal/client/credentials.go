// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import "sync"

// Credentials holds the admin bearer token shared by the requests of one
// or more clients. It is safe for concurrent use. The zero value holds no
// token.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns credentials preloaded with token, which may be empty.
func NewCredentials(token string) *Credentials {
	return &Credentials{token: token}
}

// Token returns the current token, or "".
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set replaces the token.
func (c *Credentials) Set(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Clear forgets the token.
func (c *Credentials) Clear() {
	c.Set("")
}

// clearIf drops the token only if it is still the one a rejected request
// carried, so a concurrent re-login is not undone.
func (c *Credentials) clearIf(token string) {
	c.mu.Lock()
	if c.token == token {
		c.token = ""
	}
	c.mu.Unlock()
}

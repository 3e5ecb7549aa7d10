// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/olegiv/lcms-go/internal/metrics"
)

// TypedCache provides type-safe caching operations using generics.
// It wraps a Cache and handles JSON serialization. Lookups are counted
// under name in the cache_requests_total metric.
type TypedCache[T any] struct {
	cache      Cache
	name       string
	defaultTTL time.Duration
}

// NewTypedCache creates a new TypedCache wrapping the given cache implementation.
func NewTypedCache[T any](cache Cache, name string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		cache:      cache,
		name:       name,
		defaultTTL: defaultTTL,
	}
}

// Get returns the value and true if found. Backend errors and undecodable
// entries count as misses.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheMiss(c.name)
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		metrics.RecordCacheMiss(c.name)
		return nil, false
	}

	metrics.RecordCacheHit(c.name)
	return &value, true
}

// Set stores a value in the cache with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	return c.SetWithTTL(ctx, key, value, c.defaultTTL)
}

// SetWithTTL stores a value in the cache with a custom TTL.
func (c *TypedCache[T]) SetWithTTL(ctx context.Context, key string, value *T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.cache.Set(ctx, key, data, ttl)
}

// Delete removes a key from the cache.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// GetOrSet returns the cached value for key, or calls fn and caches its
// result. Errors from fn are returned and nothing is cached.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	// A failed write only costs a future miss.
	_ = c.Set(ctx, key, value)

	return value, nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testItem struct {
	ID   int64  `json:"id,string"`
	Name string `json:"name"`
}

func newTestTypedCache(t *testing.T) (*TypedCache[testItem], *MemoryCache) {
	t.Helper()
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = mem.Close() })
	return NewTypedCache[testItem](mem, "test", time.Hour), mem
}

func TestTypedCache_SetGet(t *testing.T) {
	cache, _ := newTestTypedCache(t)
	ctx := context.Background()

	item := &testItem{ID: 1, Name: "Alice"}
	if err := cache.Set(ctx, "item:1", item); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := cache.Get(ctx, "item:1")
	if !found {
		t.Fatal("expected to find item:1")
	}
	if *got != *item {
		t.Errorf("got %+v, want %+v", got, item)
	}

	if err := cache.Delete(ctx, "item:1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := cache.Get(ctx, "item:1"); found {
		t.Error("expected item:1 to be gone after Delete")
	}
}

func TestTypedCache_UndecodableIsMiss(t *testing.T) {
	cache, mem := newTestTypedCache(t)
	ctx := context.Background()

	_ = mem.Set(ctx, "bad", []byte("{not json"), 0)

	if _, found := cache.Get(ctx, "bad"); found {
		t.Error("corrupt entry should read as a miss")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	cache, _ := newTestTypedCache(t)
	ctx := context.Background()

	calls := 0
	load := func() (*testItem, error) {
		calls++
		return &testItem{ID: 7, Name: "loaded"}, nil
	}

	for range 3 {
		got, err := cache.GetOrSet(ctx, "item:7", load)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}
		if got.Name != "loaded" {
			t.Errorf("unexpected value %+v", got)
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestTypedCache_GetOrSetErrorNotCached(t *testing.T) {
	cache, _ := newTestTypedCache(t)
	ctx := context.Background()

	boom := errors.New("boom")
	if _, err := cache.GetOrSet(ctx, "k", func() (*testItem, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	got, err := cache.GetOrSet(ctx, "k", func() (*testItem, error) { return &testItem{ID: 2}, nil })
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if got.ID != 2 {
		t.Errorf("expected fresh load after an error, got %+v", got)
	}
}

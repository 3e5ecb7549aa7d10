// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/olegiv/lcms-go/internal/metrics"
	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/store"
)

const (
	lessonsCacheName = "lessons"
	lessonsKeyPrefix = "lessons:"
	lessonsListKey   = lessonsKeyPrefix + "list"
	lessonSlugPrefix = lessonsKeyPrefix + "slug:"
)

// LessonSource is the subset of the store read by the public lesson pages.
type LessonSource interface {
	ListLessons(ctx context.Context, order store.LessonOrder) ([]model.Lesson, error)
	GetLessonBySlug(ctx context.Context, slug string) (model.Lesson, error)
}

// LessonCache is a read-through cache for the public lesson endpoints.
// Misses and errors (including store.ErrNotFound) are never cached.
type LessonCache struct {
	source LessonSource
	list   *TypedCache[[]model.LessonSummary]
	bySlug *TypedCache[model.Lesson]
	cache  Cache
}

// NewLessonCache wraps source with c. ttl bounds how stale a lesson may be
// on another instance sharing the same Redis.
func NewLessonCache(c Cache, source LessonSource, ttl time.Duration) *LessonCache {
	return &LessonCache{
		source: source,
		list:   NewTypedCache[[]model.LessonSummary](c, lessonsCacheName, ttl),
		bySlug: NewTypedCache[model.Lesson](c, lessonsCacheName, ttl),
		cache:  c,
	}
}

// List returns every lesson in insertion order, projected for the public list.
func (lc *LessonCache) List(ctx context.Context) ([]model.LessonSummary, error) {
	summaries, err := lc.list.GetOrSet(ctx, lessonsListKey, func() (*[]model.LessonSummary, error) {
		lessons, err := lc.source.ListLessons(ctx, store.OldestFirst)
		if err != nil {
			return nil, err
		}
		out := make([]model.LessonSummary, 0, len(lessons))
		for i := range lessons {
			out = append(out, lessons[i].Summary())
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return *summaries, nil
}

// BySlug returns the lesson with the exact slug.
func (lc *LessonCache) BySlug(ctx context.Context, slug string) (model.Lesson, error) {
	lesson, err := lc.bySlug.GetOrSet(ctx, lessonSlugPrefix+slug, func() (*model.Lesson, error) {
		l, err := lc.source.GetLessonBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		return &l, nil
	})
	if err != nil {
		return model.Lesson{}, err
	}
	return *lesson, nil
}

// Invalidate drops every cached lesson read. Called after each admin mutation.
func (lc *LessonCache) Invalidate(ctx context.Context) error {
	metrics.RecordCacheInvalidation(lessonsCacheName)
	return lc.cache.DeleteByPrefix(ctx, lessonsKeyPrefix)
}

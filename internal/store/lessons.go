// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/olegiv/lcms-go/internal/model"
)

const lessonColumns = `id, topic, slug, sections, created_at, updated_at`

// LessonOrder selects the sort order of ListLessons.
type LessonOrder int

const (
	// OldestFirst is insertion order, used by the public catalogue.
	OldestFirst LessonOrder = iota
	// NewestFirst is used by the admin list.
	NewestFirst
)

// LessonParams holds the caller-supplied fields of a lesson.
type LessonParams struct {
	Topic    string
	Slug     string
	Sections []model.Section
}

func encodeSections(sections []model.Section) (string, error) {
	if sections == nil {
		sections = []model.Section{}
	}
	b, err := json.Marshal(sections)
	if err != nil {
		return "", fmt.Errorf("encoding sections: %w", err)
	}
	return string(b), nil
}

func scanLesson(row interface{ Scan(...any) error }) (model.Lesson, error) {
	var l model.Lesson
	var sections string
	if err := row.Scan(&l.ID, &l.Topic, &l.Slug, &sections, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return model.Lesson{}, err
	}
	if err := json.Unmarshal([]byte(sections), &l.Sections); err != nil {
		return model.Lesson{}, fmt.Errorf("decoding sections of lesson %d: %w", l.ID, err)
	}
	if l.Sections == nil {
		l.Sections = []model.Section{}
	}
	return l, nil
}

// CreateLesson inserts a lesson. A duplicate slug or topic yields
// ErrSlugExists or ErrTopicExists.
func (q *Queries) CreateLesson(ctx context.Context, arg LessonParams) (model.Lesson, error) {
	sections, err := encodeSections(arg.Sections)
	if err != nil {
		return model.Lesson{}, err
	}
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO lessons (topic, slug, sections, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		arg.Topic, arg.Slug, sections, now, now)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("creating lesson: %w", mapConstraintError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Lesson{}, fmt.Errorf("reading lesson id: %w", err)
	}
	return q.GetLessonByID(ctx, id)
}

// GetLessonByID returns the lesson with id.
func (q *Queries) GetLessonByID(ctx context.Context, id int64) (model.Lesson, error) {
	l, err := scanLesson(q.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id))
	if err != nil {
		return model.Lesson{}, notFound(err)
	}
	return l, nil
}

// GetLessonBySlug returns the lesson whose slug matches exactly.
func (q *Queries) GetLessonBySlug(ctx context.Context, slug string) (model.Lesson, error) {
	l, err := scanLesson(q.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE slug = ?`, slug))
	if err != nil {
		return model.Lesson{}, notFound(err)
	}
	return l, nil
}

// ListLessons returns every lesson in the requested order.
func (q *Queries) ListLessons(ctx context.Context, order LessonOrder) ([]model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons ORDER BY created_at ASC, id ASC`
	if order == NewestFirst {
		query = `SELECT ` + lessonColumns + ` FROM lessons ORDER BY created_at DESC, id DESC`
	}

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lessons := []model.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// UpdateLesson replaces topic, slug and sections wholesale.
func (q *Queries) UpdateLesson(ctx context.Context, id int64, arg LessonParams) (model.Lesson, error) {
	sections, err := encodeSections(arg.Sections)
	if err != nil {
		return model.Lesson{}, err
	}
	err = q.execOne(ctx,
		`UPDATE lessons SET topic = ?, slug = ?, sections = ?, updated_at = ? WHERE id = ?`,
		arg.Topic, arg.Slug, sections, q.now(), id)
	if err != nil {
		return model.Lesson{}, err
	}
	return q.GetLessonByID(ctx, id)
}

// DeleteLesson removes a lesson. Returns ErrNotFound when absent.
func (q *Queries) DeleteLesson(ctx context.Context, id int64) error {
	return q.execOne(ctx, `DELETE FROM lessons WHERE id = ?`, id)
}

// CountLessons returns the number of lessons.
func (q *Queries) CountLessons(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n)
	return n, err
}

// SlugTaken reports whether another lesson (id != excludeID) uses slug.
// Pass 0 to check against every lesson.
func (q *Queries) SlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return q.taken(ctx, `SELECT id FROM lessons WHERE slug = ? AND id != ?`, slug, excludeID)
}

// TopicTaken reports whether another lesson (id != excludeID) uses topic.
func (q *Queries) TopicTaken(ctx context.Context, topic string, excludeID int64) (bool, error) {
	return q.taken(ctx, `SELECT id FROM lessons WHERE topic = ? AND id != ?`, topic, excludeID)
}

func (q *Queries) taken(ctx context.Context, query, value string, excludeID int64) (bool, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, query, value, excludeID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/model"
)

// SeedOptions configures the bootstrap data.
type SeedOptions struct {
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	SampleLesson  bool
}

// Seed creates the bootstrap super-admin and, optionally, a sample lesson.
// Existing rows are left alone so Seed can run on every start.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	queries := New(db)

	if err := seedAdmin(ctx, queries, opts); err != nil {
		return err
	}
	if opts.SampleLesson {
		return seedSampleLesson(ctx, queries)
	}
	return nil
}

func seedAdmin(ctx context.Context, queries *Queries, opts SeedOptions) error {
	_, err := queries.GetAdminByEmail(ctx, opts.AdminEmail)
	if err == nil {
		slog.Info("admin already exists, skipping seed", "email", model.NormalizeEmail(opts.AdminEmail))
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking for admin: %w", err)
	}

	if opts.AdminPassword == "" {
		return errors.New("seeding admin: password is empty")
	}

	// Hash exactly once, here.
	passwordHash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	admin, err := queries.CreateAdmin(ctx, CreateAdminParams{
		Username:     opts.AdminUsername,
		Email:        opts.AdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleSuperAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	slog.Info("created bootstrap admin",
		"id", admin.ID,
		"email", admin.Email,
		"role", admin.Role,
	)
	return nil
}

func seedSampleLesson(ctx context.Context, queries *Queries) error {
	lesson := SampleLesson()

	taken, err := queries.SlugTaken(ctx, lesson.Slug, 0)
	if err != nil {
		return fmt.Errorf("checking sample lesson: %w", err)
	}
	if taken {
		slog.Info("sample lesson already exists, skipping seed", "slug", lesson.Slug)
		return nil
	}

	created, err := queries.CreateLesson(ctx, LessonParams{
		Topic:    lesson.Topic,
		Slug:     lesson.Slug,
		Sections: lesson.Sections,
	})
	if err != nil {
		return fmt.Errorf("creating sample lesson: %w", err)
	}

	slog.Info("created sample lesson", "id", created.ID, "slug", created.Slug, "sections", len(created.Sections))
	return nil
}

// SampleLesson returns a short CSS lesson that exercises playgrounds,
// quizzes and video.
func SampleLesson() model.Lesson {
	l := model.Lesson{
		Topic: "CSS",
		Slug:  "css",
		Sections: []model.Section{
			{
				Title:   "CSS Foundations",
				Anchor:  "css-foundations",
				Content: "<p>CSS describes how HTML elements are presented. Rules cascade by origin, specificity and source order.</p>",
				Quiz: &model.Quiz{
					Enabled:      true,
					PassingScore: model.DefaultPassingScore,
					ShowResults:  true,
					Questions: []model.Question{{
						ID:       "css-q1",
						Question: "Which selector has the highest specificity?",
						Options: []model.Option{
							{ID: "a", Text: "p"},
							{ID: "b", Text: ".intro"},
							{ID: "c", Text: "#main", Correct: true},
						},
						Explanation: "An id selector outranks class and type selectors.",
					}},
				},
			},
			{
				Title:         "Layout Systems",
				Anchor:        "layout-systems",
				Content:       "<p>Flexbox lays items out along one axis. Grid controls rows and columns together.</p>",
				HasPlayground: true,
				Playground: &model.Playground{
					HTML:         `<div class="row"><span>1</span><span>2</span><span>3</span></div>`,
					CSS:          `.row { display: flex; gap: 1rem; justify-content: space-between; }`,
					Instructions: "Change justify-content and watch the items move.",
				},
			},
			{
				Title:    "Responsiveness",
				Anchor:   "responsiveness",
				Content:  "<p>Media queries apply rules only when the viewport matches a condition.</p>",
				HasVideo: true,
				Video: &model.Video{
					YoutubeID: "srvUrASNj0s",
					Title:     "Responsive design in practice",
					StartTime: 0,
					EndTime:   300,
				},
			},
		},
	}
	l.Normalize()
	return l
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the lcms project.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/store"
)

// TestJWTSecret is a 32-byte secret accepted by auth.NewTokenManager.
const TestJWTSecret = "test-secret-0123456789-abcdefghij"

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database with migrations applied.
// The database is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "lcms-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// TestTokenManager returns a token manager using TestJWTSecret.
func TestTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager(TestJWTSecret, time.Hour, "lcms")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

// CreateAdmin inserts an admin with the given plaintext password.
func CreateAdmin(t *testing.T, db *sql.DB, email, password string) model.Admin {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin, err := store.New(db).CreateAdmin(context.Background(), store.CreateAdminParams{
		Username:     "admin-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

// CreateLesson inserts a lesson built from topic and slug with one section.
func CreateLesson(t *testing.T, db *sql.DB, topic, slug string) model.Lesson {
	t.Helper()

	lesson, err := store.New(db).CreateLesson(context.Background(), store.LessonParams{
		Topic: topic,
		Slug:  slug,
		Sections: []model.Section{{
			Title:   "Introduction",
			Content: "<p>Welcome to " + topic + "</p>",
			Anchor:  "introduction",
		}},
	})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	return lesson
}

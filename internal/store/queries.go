// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Sentinel errors returned by the query layer.
var (
	ErrNotFound    = errors.New("not found")
	ErrSlugExists  = errors.New("slug already exists")
	ErrTopicExists = errors.New("topic already exists")
	ErrEmailExists = errors.New("email already exists")
	ErrNameExists  = errors.New("username already exists")
	ErrInvalidRole = errors.New("unknown admin role")
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the application's SQL against a DBTX.
type Queries struct {
	db  DBTX
	now func() time.Time
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// uniqueViolations maps "table.column" in a SQLite UNIQUE failure to a sentinel.
var uniqueViolations = map[string]error{
	"lessons.slug":    ErrSlugExists,
	"lessons.topic":   ErrTopicExists,
	"admins.email":    ErrEmailExists,
	"admins.username": ErrNameExists,
}

// mapConstraintError turns a UNIQUE constraint failure into its sentinel so
// that a lost check-then-insert race reads the same as a detected conflict.
func mapConstraintError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	for column, sentinel := range uniqueViolations {
		if strings.Contains(msg, column) {
			return sentinel
		}
	}
	return err
}

// notFound converts sql.ErrNoRows into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

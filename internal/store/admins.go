// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/lcms-go/internal/model"
)

const adminColumns = `id, username, email, password_hash, role, last_login, created_at, updated_at`

// CreateAdminParams holds the fields for a new admin. PasswordHash must
// already be hashed.
type CreateAdminParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

func scanAdmin(row interface{ Scan(...any) error }) (model.Admin, error) {
	var a model.Admin
	var lastLogin sql.NullTime
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Admin{}, err
	}
	a.LastLogin = timePtr(lastLogin)
	return a, nil
}

// CreateAdmin inserts an admin and returns the stored row. An empty Role
// means model.RoleAdmin.
func (q *Queries) CreateAdmin(ctx context.Context, arg CreateAdminParams) (model.Admin, error) {
	role := arg.Role
	if role == "" {
		role = model.RoleAdmin
	}
	if !model.IsValidRole(role) {
		return model.Admin{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO admins (username, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Username, model.NormalizeEmail(arg.Email), arg.PasswordHash, role, now, now)
	if err != nil {
		return model.Admin{}, fmt.Errorf("creating admin: %w", mapConstraintError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Admin{}, fmt.Errorf("reading admin id: %w", err)
	}
	return q.GetAdminByID(ctx, id)
}

// GetAdminByEmail looks an admin up by (case-insensitive) email.
func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email = ?`, model.NormalizeEmail(email))
	a, err := scanAdmin(row)
	if err != nil {
		return model.Admin{}, notFound(err)
	}
	return a, nil
}

// GetAdminByID looks an admin up by id.
func (q *Queries) GetAdminByID(ctx context.Context, id int64) (model.Admin, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	a, err := scanAdmin(row)
	if err != nil {
		return model.Admin{}, notFound(err)
	}
	return a, nil
}

// UpdateAdminLastLogin stamps the admin's last successful login.
func (q *Queries) UpdateAdminLastLogin(ctx context.Context, id int64, at time.Time) error {
	return q.execOne(ctx, `UPDATE admins SET last_login = ?, updated_at = ? WHERE id = ?`, at.UTC(), q.now(), id)
}

// UpdateAdminPassword replaces the stored hash. The caller hashes.
func (q *Queries) UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error {
	return q.execOne(ctx, `UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, q.now(), id)
}

// CountAdmins returns the number of admins.
func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}

// execOne runs an UPDATE/DELETE and reports ErrNotFound when no row matched.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraintError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/olegiv/lcms-go/internal/model"
)

const contactColumns = `id, name, email, subject, message, status, admin_notes, replied_at, created_at, updated_at`

// CreateContactParams holds a validated contact form submission.
type CreateContactParams struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactFilter narrows ListContacts and CountContacts. Empty fields match
// everything.
type ContactFilter struct {
	Status string
	Search string // case-insensitive substring of name, email or subject
}

// UpdateContactParams is a partial update. Nil fields are left untouched.
type UpdateContactParams struct {
	Status     *string
	AdminNotes *string
}

func scanContact(row interface{ Scan(...any) error }) (model.Contact, error) {
	var c model.Contact
	var repliedAt sql.NullTime
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Status, &c.AdminNotes,
		&repliedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Contact{}, err
	}
	c.RepliedAt = timePtr(repliedAt)
	return c, nil
}

// CreateContact stores a submission with status "new".
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (model.Contact, error) {
	now := q.now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO contacts (name, email, subject, message, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.Subject, arg.Message, model.ContactStatusNew, now, now)
	if err != nil {
		return model.Contact{}, fmt.Errorf("creating contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("reading contact id: %w", err)
	}
	return q.GetContact(ctx, id)
}

// GetContact returns the contact with id.
func (q *Queries) GetContact(ctx context.Context, id int64) (model.Contact, error) {
	c, err := scanContact(q.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
	if err != nil {
		return model.Contact{}, notFound(err)
	}
	return c, nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (f ContactFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		conds = append(conds, `(name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR subject LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListContacts returns one page of contacts, newest first.
func (q *Queries) ListContacts(ctx context.Context, f ContactFilter, limit, offset int) ([]model.Contact, error) {
	where, args := f.where()
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// CountContacts counts contacts matching f.
func (q *Queries) CountContacts(ctx context.Context, f ContactFilter) (int64, error) {
	where, args := f.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`+where, args...).Scan(&n)
	return n, err
}

// UpdateContact applies a partial status/notes update. Moving to "replied"
// stamps replied_at; no other status clears it.
func (q *Queries) UpdateContact(ctx context.Context, id int64, arg UpdateContactParams) (model.Contact, error) {
	sets := []string{"updated_at = ?"}
	now := q.now()
	args := []any{now}

	if arg.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *arg.Status)
		if *arg.Status == model.ContactStatusReplied {
			sets = append(sets, "replied_at = ?")
			args = append(args, now)
		}
	}
	if arg.AdminNotes != nil {
		sets = append(sets, "admin_notes = ?")
		args = append(args, *arg.AdminNotes)
	}
	args = append(args, id)

	if err := q.execOne(ctx, `UPDATE contacts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return model.Contact{}, err
	}
	return q.GetContact(ctx, id)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the store, the HTTP
// handlers and the API client: Admin, Lesson with its embedded sections,
// and Contact.
package model

import (
	"strings"
	"time"
)

// Admin roles. The role is recorded and echoed back but grants nothing extra.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// Admin is a back-office account.
type Admin struct {
	ID           int64      `json:"id,string"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Role         string     `json:"role"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// AdminSummary is the public subset of an Admin returned on login.
type AdminSummary struct {
	ID       int64  `json:"id,string"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Summary returns the public fields of the admin.
func (a *Admin) Summary() AdminSummary {
	return AdminSummary{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role}
}

// IsValidRole reports whether role is one of the known admin roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"regexp"
	"time"
)

// Contact statuses. Any status may follow any other.
const (
	ContactStatusNew      = "new"
	ContactStatusRead     = "read"
	ContactStatusReplied  = "replied"
	ContactStatusArchived = "archived"
)

// ContactStatuses lists the valid statuses in their usual order.
var ContactStatuses = []string{
	ContactStatusNew,
	ContactStatusRead,
	ContactStatusReplied,
	ContactStatusArchived,
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID         int64      `json:"id,string"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Status     string     `json:"status"`
	AdminNotes string     `json:"adminNotes"`
	RepliedAt  *time.Time `json:"repliedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// IsValidContactStatus reports whether s is a known contact status.
func IsValidContactStatus(s string) bool {
	for _, status := range ContactStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidEmail applies the basic syntactic check used for contact intake.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

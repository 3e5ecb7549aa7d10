// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"net/http"
	"strconv"
)

// ContactService wraps the public contact form.
type ContactService struct {
	c *Client
}

// ContactForm is a contact form submission. Subject is optional.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// ContactReceipt is the server's acknowledgement of a submission.
type ContactReceipt struct {
	ID      int64
	Name    string
	Email   string
	Message string
}

// Submit sends the contact form.
func (s *ContactService) Submit(ctx context.Context, form ContactForm) (*ContactReceipt, error) {
	var out struct {
		Message string `json:"message"`
		Data    struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := s.c.do(ctx, http.MethodPost, "/api/contact", nil, form, &out); err != nil {
		return nil, err
	}

	id, _ := strconv.ParseInt(out.Data.ID, 10, 64)
	return &ContactReceipt{
		ID:      id,
		Name:    out.Data.Name,
		Email:   out.Data.Email,
		Message: out.Message,
	}, nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/lcms-go/internal/metrics"
	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/validation"
)

// Contact messages.
const (
	MsgContactRequired     = "Please provide name, email, and message"
	MsgContactInvalidEmail = "Please provide a valid email address"
	MsgContactThanks       = "Thank you for your message! We'll get back to you soon."
	MsgContactSaveFailed   = "Server error. Please try again later."
	MsgContactNotFound     = "Contact not found"
	MsgContactUpdated      = "Contact updated"
	MsgContactNoChanges    = "Please provide status or adminNotes"
	MsgInvalidStatus       = "Invalid status"
	MsgInvalidStatusFilter = "Invalid status filter"
)

// ContactHandler handles contact form intake and the admin inbox.
type ContactHandler struct {
	queries *store.Queries
	logger  *slog.Logger
	policy  *bluemonday.Policy
}

// NewContactHandler creates a contact handler.
func NewContactHandler(queries *store.Queries, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		queries: queries,
		logger:  logger,
		policy:  bluemonday.StrictPolicy(),
	}
}

// contactRequest is the public contact form.
type contactRequest struct {
	Name    string `json:"name" validate:"max=100"`
	Email   string `json:"email" validate:"max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"max=5000"`
}

// plainText strips every tag and trims the result. Entities that the
// policy escapes are decoded again so "Q&A" is stored as typed.
func (h *ContactHandler) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(h.policy.Sanitize(s)))
}

// Create handles POST /api/contact.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		metrics.RecordContactSubmission("invalid")
		return
	}

	req.Name = h.plainText(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = h.plainText(req.Subject)
	req.Message = h.plainText(req.Message)

	if req.Name == "" || req.Email == "" || req.Message == "" {
		metrics.RecordContactSubmission("invalid")
		writeError(w, http.StatusBadRequest, MsgContactRequired)
		return
	}
	if !model.IsValidEmail(req.Email) {
		metrics.RecordContactSubmission("invalid")
		writeError(w, http.StatusBadRequest, MsgContactInvalidEmail)
		return
	}
	if err := validation.Struct(&req); err != nil {
		metrics.RecordContactSubmission("invalid")
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
		} else {
			writeError(w, http.StatusBadRequest, MsgValidationFailed)
		}
		return
	}

	contact, err := h.queries.CreateContact(r.Context(), store.CreateContactParams{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		metrics.RecordContactSubmission("error")
		h.logger.ErrorContext(r.Context(), "failed to save contact", "error", err)
		writeError(w, http.StatusInternalServerError, MsgContactSaveFailed)
		return
	}

	metrics.RecordContactSubmission("accepted")
	h.logger.InfoContext(r.Context(), "contact received", "contact_id", contact.ID)

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": MsgContactThanks,
		"data": map[string]string{
			"id":    strconv.FormatInt(contact.ID, 10),
			"name":  contact.Name,
			"email": contact.Email,
		},
	})
}

// LegacyList handles GET /api/contact, the unpaginated newest-first dump.
func (h *ContactHandler) LegacyList(w http.ResponseWriter, r *http.Request) {
	// LIMIT -1 is "no limit" in SQLite.
	contacts, err := h.queries.ListContacts(r.Context(), store.ContactFilter{}, -1, 0)
	if err != nil {
		serverError(w, r, h.logger, "failed to list contacts", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"count": len(contacts),
		"data":  contacts,
	})
}

// AdminList handles GET /api/admin/contacts?status=&search=&page=&limit=.
func (h *ContactHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.ContactFilter{Search: strings.TrimSpace(q.Get("search"))}
	switch status := strings.TrimSpace(q.Get("status")); {
	case status == "" || status == "all":
	case model.IsValidContactStatus(status):
		filter.Status = status
	default:
		writeError(w, http.StatusBadRequest, MsgInvalidStatusFilter)
		return
	}

	page, limit := ParsePagination(q)

	total, err := h.queries.CountContacts(r.Context(), filter)
	if err != nil {
		serverError(w, r, h.logger, "failed to count contacts", err)
		return
	}
	pagination := NewPagination(page, limit, total)

	contacts, err := h.queries.ListContacts(r.Context(), filter, limit, pagination.Offset())
	if err != nil {
		serverError(w, r, h.logger, "failed to list contacts", err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"contacts":   contacts,
		"pagination": pagination,
	})
}

// AdminGet handles GET /api/admin/contacts/{id}.
func (h *ContactHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	contact, err := h.queries.GetContact(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgContactNotFound)
		} else {
			serverError(w, r, h.logger, "failed to get contact", err)
		}
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"contact": contact})
}

// contactUpdateRequest is a partial update; absent fields are untouched.
type contactUpdateRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// AdminUpdate handles PATCH /api/admin/contacts/{id}. Any status may follow
// any other; moving to "replied" stamps repliedAt.
func (h *ContactHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req contactUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == nil && req.AdminNotes == nil {
		writeError(w, http.StatusBadRequest, MsgContactNoChanges)
		return
	}
	if req.Status != nil && !model.IsValidContactStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, MsgInvalidStatus)
		return
	}
	if req.AdminNotes != nil {
		notes := strings.TrimSpace(*req.AdminNotes)
		req.AdminNotes = &notes
	}

	contact, err := h.queries.UpdateContact(r.Context(), id, store.UpdateContactParams{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgContactNotFound)
		} else {
			serverError(w, r, h.logger, "failed to update contact", err)
		}
		return
	}

	h.logger.InfoContext(r.Context(), "contact updated",
		"contact_id", id, "status", contact.Status, "admin_id", adminID(r))

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": MsgContactUpdated,
		"contact": contact,
	})
}

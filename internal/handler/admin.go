// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/metrics"
	"github.com/olegiv/lcms-go/internal/middleware"
	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/validation"
)

// Admin messages.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginSuccessful    = "Login successful"
	MsgLoginFieldsNeeded  = "Please provide email and password"
	MsgAdminNotFound      = "Admin not found"

	MsgPasswordFieldsNeeded = "Please provide currentPassword and newPassword"
	MsgPasswordIncorrect    = "Current password is incorrect"
	MsgPasswordUnchanged    = "New password must differ from the current one"
	MsgPasswordChanged      = "Password updated"
)

// AdminHandler handles admin login, the profile and dashboard statistics.
type AdminHandler struct {
	queries    *store.Queries
	tokens     *auth.TokenManager
	protection *middleware.LoginProtection
	logger     *slog.Logger
	now        func() time.Time
}

// NewAdminHandler creates an admin handler. protection may be nil, which
// disables account lockout.
func NewAdminHandler(queries *store.Queries, tokens *auth.TokenManager, protection *middleware.LoginProtection, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		queries:    queries,
		tokens:     tokens,
		protection: protection,
		logger:     logger,
		now:        time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login.
//
// An unknown email and a wrong password produce the same 401, and an
// unknown email still pays for one password hash so the two cases take
// comparable time. Repeated failures lock the email out with 429.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := model.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, MsgLoginFieldsNeeded)
		return
	}

	if h.protection != nil {
		if locked, remaining := h.protection.IsAccountLocked(email); locked {
			metrics.RecordLoginAttempt("locked")
			h.logger.WarnContext(r.Context(), "login attempt on locked account",
				"email", email, "remaining", remaining.Round(time.Second))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			writeError(w, http.StatusTooManyRequests, middleware.MsgAccountLocked)
			return
		}
	}

	admin, err := h.queries.GetAdminByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			serverError(w, r, h.logger, "failed to look up admin", err)
			return
		}
		auth.BurnPasswordCheck(req.Password)
		h.loginFailed(w, r, email)
		return
	}

	ok, err := auth.CheckPassword(req.Password, admin.PasswordHash)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stored password hash is unreadable",
			"admin_id", admin.ID, "error", err)
	}
	if !ok {
		h.loginFailed(w, r, email)
		return
	}

	token, expiresAt, err := h.tokens.Issue(admin.ID, admin.Email, admin.Role)
	if err != nil {
		serverError(w, r, h.logger, "failed to issue token", err)
		return
	}

	if h.protection != nil {
		h.protection.RecordSuccessfulLogin(email)
	}
	metrics.RecordLoginAttempt("success")

	now := h.now().UTC()
	if err := h.queries.UpdateAdminLastLogin(r.Context(), admin.ID, now); err != nil {
		h.logger.WarnContext(r.Context(), "failed to record last login", "admin_id", admin.ID, "error", err)
	} else {
		admin.LastLogin = &now
	}
	h.upgradeHash(r, &admin, req.Password)

	h.logger.InfoContext(r.Context(), "admin logged in", "admin_id", admin.ID)

	writeSuccess(w, http.StatusOK, map[string]any{
		"message":   MsgLoginSuccessful,
		"token":     token,
		"expiresAt": expiresAt,
		"admin":     admin.Summary(),
	})
}

func (h *AdminHandler) loginFailed(w http.ResponseWriter, r *http.Request, email string) {
	metrics.RecordLoginAttempt("failure")
	if h.protection != nil {
		h.protection.RecordFailedAttempt(email)
	}
	h.logger.InfoContext(r.Context(), "failed login", "email", email)
	writeError(w, http.StatusUnauthorized, MsgInvalidCredentials)
}

// upgradeHash re-hashes a password stored as bcrypt or with outdated
// argon2 parameters. Failures keep the old hash, which still verifies.
func (h *AdminHandler) upgradeHash(r *http.Request, admin *model.Admin, password string) {
	if !auth.NeedsRehash(admin.PasswordHash) {
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to rehash password", "admin_id", admin.ID, "error", err)
		return
	}
	if err := h.queries.UpdateAdminPassword(r.Context(), admin.ID, hash); err != nil {
		h.logger.WarnContext(r.Context(), "failed to store upgraded hash", "admin_id", admin.ID, "error", err)
		return
	}
	admin.PasswordHash = hash
	h.logger.InfoContext(r.Context(), "upgraded password hash", "admin_id", admin.ID)
}

// Profile handles GET /api/admin/profile.
func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	admin, err := h.queries.GetAdminByID(r.Context(), adminID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgAdminNotFound)
		} else {
			serverError(w, r, h.logger, "failed to get admin", err)
		}
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"admin": admin})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"min=8,max=128"`
}

// ChangePassword handles PUT /api/admin/password. A wrong current password
// is a 400, not a 401, so clients keep their still-valid token.
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, MsgPasswordFieldsNeeded)
		return
	}
	if err := validation.Struct(&req); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
		} else {
			writeError(w, http.StatusBadRequest, MsgValidationFailed)
		}
		return
	}
	if req.NewPassword == req.CurrentPassword {
		writeError(w, http.StatusBadRequest, MsgPasswordUnchanged)
		return
	}

	id := adminID(r)
	admin, err := h.queries.GetAdminByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgAdminNotFound)
		} else {
			serverError(w, r, h.logger, "failed to get admin", err)
		}
		return
	}

	ok, err := auth.CheckPassword(req.CurrentPassword, admin.PasswordHash)
	if err != nil {
		serverError(w, r, h.logger, "stored password hash is unreadable", err)
		return
	}
	if !ok {
		h.logger.InfoContext(r.Context(), "password change with wrong current password", "admin_id", id)
		writeError(w, http.StatusBadRequest, MsgPasswordIncorrect)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		serverError(w, r, h.logger, "failed to hash password", err)
		return
	}
	if err := h.queries.UpdateAdminPassword(r.Context(), id, hash); err != nil {
		serverError(w, r, h.logger, "failed to update password", err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin password changed", "admin_id", id)
	writeSuccess(w, http.StatusOK, map[string]any{"message": MsgPasswordChanged})
}

// DashboardStats is the body of GET /api/admin/dashboard/stats.
type DashboardStats struct {
	TotalLessons    int64 `json:"totalLessons"`
	TotalContacts   int64 `json:"totalContacts"`
	NewContacts     int64 `json:"newContacts"`
	RepliedContacts int64 `json:"repliedContacts"`
}

// Stats handles GET /api/admin/dashboard/stats. The four counts are
// independent and run concurrently.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var stats DashboardStats
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		n, err := h.queries.CountLessons(ctx)
		if err != nil {
			return fmt.Errorf("counting lessons: %w", err)
		}
		stats.TotalLessons = n
		return nil
	})
	g.Go(func() error {
		n, err := h.queries.CountContacts(ctx, store.ContactFilter{})
		if err != nil {
			return fmt.Errorf("counting contacts: %w", err)
		}
		stats.TotalContacts = n
		return nil
	})
	g.Go(func() error {
		n, err := h.queries.CountContacts(ctx, store.ContactFilter{Status: model.ContactStatusNew})
		if err != nil {
			return fmt.Errorf("counting new contacts: %w", err)
		}
		stats.NewContacts = n
		return nil
	})
	g.Go(func() error {
		n, err := h.queries.CountContacts(ctx, store.ContactFilter{Status: model.ContactStatusReplied})
		if err != nil {
			return fmt.Errorf("counting replied contacts: %w", err)
		}
		stats.RepliedContacts = n
		return nil
	})

	if err := g.Wait(); err != nil {
		serverError(w, r, h.logger, "failed to load dashboard stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"stats": stats})
}

// adminID returns the authenticated admin's id for logging, 0 on public routes.
func adminID(r *http.Request) int64 {
	return middleware.GetAdminID(r)
}

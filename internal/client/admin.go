// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/olegiv/lcms-go/internal/model"
)

// AdminService wraps the back-office endpoints. Every call except Login
// needs a token in the client's Credentials.
type AdminService struct {
	c *Client
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Admin     model.AdminSummary `json:"admin"`
}

// Stats are the dashboard counters.
type Stats struct {
	TotalLessons    int64 `json:"totalLessons"`
	TotalContacts   int64 `json:"totalContacts"`
	NewContacts     int64 `json:"newContacts"`
	RepliedContacts int64 `json:"repliedContacts"`
}

// LessonInput is the writable part of a lesson.
type LessonInput struct {
	Topic    string          `json:"topic"`
	Slug     string          `json:"slug"`
	Sections []model.Section `json:"sections"`
}

// ContactQuery filters the contact inbox. Zero values mean "any" and the
// server's default page.
type ContactQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

func (q ContactQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Pagination is the page metadata of a contact list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ContactPage is one page of the contact inbox.
type ContactPage struct {
	Contacts   []model.Contact `json:"contacts"`
	Pagination Pagination      `json:"pagination"`
}

// ContactUpdate is a partial contact update; nil fields are left alone.
type ContactUpdate struct {
	Status     *string `json:"status,omitempty"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// Job is a background job on the server. Times are nil until known.
type Job struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	LastRun  *time.Time `json:"lastRun"`
	NextRun  *time.Time `json:"nextRun"`
}

func adminLessonPath(id int64) string {
	return "/api/admin/lessons/" + strconv.FormatInt(id, 10)
}

func adminContactPath(id int64) string {
	return "/api/admin/contacts/" + strconv.FormatInt(id, 10)
}

// Login exchanges email and password for a token and stores it in the
// client's Credentials.
func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out LoginResult
	if err := s.c.do(ctx, http.MethodPost, "/api/admin/login", nil, in, &out); err != nil {
		return nil, err
	}
	s.c.creds.Set(out.Token)
	return &out, nil
}

// Logout forgets the token. Tokens are stateless, so the server is not told.
func (s *AdminService) Logout() {
	s.c.creds.Clear()
}

// Profile returns the logged-in admin.
func (s *AdminService) Profile(ctx context.Context) (*model.Admin, error) {
	var out struct {
		Admin model.Admin `json:"admin"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/admin/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Admin, nil
}

// ChangePassword replaces the logged-in admin's password. The current token
// stays valid.
func (s *AdminService) ChangePassword(ctx context.Context, current, next string) error {
	in := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{CurrentPassword: current, NewPassword: next}
	return s.c.do(ctx, http.MethodPut, "/api/admin/password", nil, in, nil)
}

// Stats returns the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var out struct {
		Stats Stats `json:"stats"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/admin/dashboard/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// ListLessons returns every lesson, newest first.
func (s *AdminService) ListLessons(ctx context.Context) ([]model.LessonSummary, error) {
	var out struct {
		Lessons []model.LessonSummary `json:"lessons"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/admin/lessons", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Lessons, nil
}

// GetLesson returns the lesson with id.
func (s *AdminService) GetLesson(ctx context.Context, id int64) (*model.Lesson, error) {
	var out struct {
		Lesson model.Lesson `json:"lesson"`
	}
	if err := s.c.do(ctx, http.MethodGet, adminLessonPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Lesson, nil
}

// CreateLesson stores a new lesson.
func (s *AdminService) CreateLesson(ctx context.Context, in LessonInput) (*model.Lesson, error) {
	return s.writeLesson(ctx, http.MethodPost, "/api/admin/lessons", in)
}

// UpdateLesson replaces the lesson with id.
func (s *AdminService) UpdateLesson(ctx context.Context, id int64, in LessonInput) (*model.Lesson, error) {
	return s.writeLesson(ctx, http.MethodPut, adminLessonPath(id), in)
}

func (s *AdminService) writeLesson(ctx context.Context, method, path string, in LessonInput) (*model.Lesson, error) {
	var out struct {
		Lesson model.Lesson `json:"lesson"`
	}
	if err := s.c.do(ctx, method, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Lesson, nil
}

// DeleteLesson removes the lesson with id.
func (s *AdminService) DeleteLesson(ctx context.Context, id int64) error {
	return s.c.do(ctx, http.MethodDelete, adminLessonPath(id), nil, nil, nil)
}

// ListContacts returns one page of the contact inbox.
func (s *AdminService) ListContacts(ctx context.Context, q ContactQuery) (*ContactPage, error) {
	var out ContactPage
	if err := s.c.do(ctx, http.MethodGet, "/api/admin/contacts", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContact returns the contact submission with id.
func (s *AdminService) GetContact(ctx context.Context, id int64) (*model.Contact, error) {
	var out struct {
		Contact model.Contact `json:"contact"`
	}
	if err := s.c.do(ctx, http.MethodGet, adminContactPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}

// UpdateContact changes the status or notes of a contact submission.
func (s *AdminService) UpdateContact(ctx context.Context, id int64, in ContactUpdate) (*model.Contact, error) {
	var out struct {
		Contact model.Contact `json:"contact"`
	}
	if err := s.c.do(ctx, http.MethodPatch, adminContactPath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}

// Jobs lists the server's background jobs.
func (s *AdminService) Jobs(ctx context.Context) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/admin/jobs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// RunJob runs the named job now and waits for it to finish.
func (s *AdminService) RunJob(ctx context.Context, name string) error {
	return s.c.do(ctx, http.MethodPost, "/api/admin/jobs/"+url.PathEscape(name)+"/run", nil, nil, nil)
}

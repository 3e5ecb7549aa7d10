// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lcms-go/internal/cache"
	"github.com/olegiv/lcms-go/internal/metrics"
	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/store"
	"github.com/olegiv/lcms-go/internal/validation"
)

// Lesson messages.
const (
	MsgLessonNotFound   = "Lesson not found"
	MsgSectionNotFound  = "Section not found"
	MsgSlugExists       = "Slug already exists"
	MsgTopicExists      = "Topic already exists"
	MsgLessonCreated    = "Lesson created"
	MsgLessonUpdated    = "Lesson updated"
	MsgLessonDeleted    = "Lesson deleted"
	MsgQuizNotEnabled   = "Quiz is not enabled for this section"
	MsgQuizAnchorNeeded = "Please provide a section anchor"
)

// LessonHandler serves the public lesson catalogue, quiz scoring and the
// admin lesson CRUD.
type LessonHandler struct {
	queries *store.Queries
	lessons *cache.LessonCache
	logger  *slog.Logger
}

// NewLessonHandler creates a lesson handler. Public reads go through
// lessons; admin reads and every write go to the store directly.
func NewLessonHandler(queries *store.Queries, lessons *cache.LessonCache, logger *slog.Logger) *LessonHandler {
	return &LessonHandler{
		queries: queries,
		lessons: lessons,
		logger:  logger,
	}
}

// lessonRequest is the body of create and update. Sections replace the
// stored list wholesale. The server-managed fields are accepted so a
// client can send back a document it fetched, and are ignored.
type lessonRequest struct {
	Topic     string          `json:"topic"`
	Slug      string          `json:"slug"`
	Sections  []model.Section `json:"sections"`
	ID        any             `json:"id,omitempty"`
	CreatedAt any             `json:"createdAt,omitempty"`
	UpdatedAt any             `json:"updatedAt,omitempty"`
}

// toLesson trims, normalizes and validates the request. It returns nil
// after writing a 400 when the document is invalid.
func (req *lessonRequest) toLesson(w http.ResponseWriter) *model.Lesson {
	lesson := &model.Lesson{
		Topic:    strings.TrimSpace(req.Topic),
		Slug:     strings.TrimSpace(req.Slug),
		Sections: req.Sections,
	}
	lesson.Normalize()

	if err := validation.Struct(lesson); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
		} else {
			writeError(w, http.StatusBadRequest, MsgValidationFailed)
		}
		return nil
	}
	return lesson
}

// List handles GET /api/lessons.
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.List(r.Context())
	if err != nil {
		serverError(w, r, h.logger, "failed to list lessons", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"lessons": lessons})
}

// Get handles GET /api/lessons/{slug}.
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.lessonBySlug(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"lesson": lesson})
}

// Section handles GET /api/lessons/{slug}/sections/{anchor}.
func (h *LessonHandler) Section(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.lessonBySlug(w, r)
	if !ok {
		return
	}
	section, found := lesson.Section(chi.URLParam(r, "anchor"))
	if !found {
		writeError(w, http.StatusNotFound, MsgSectionNotFound)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"lessonSlug": lesson.Slug,
		"section":    section,
	})
}

// QuizSubmission is the body of POST /api/lessons/{slug}/quiz. Answers map
// question ids to the selected option id.
type QuizSubmission struct {
	Anchor  string            `json:"anchor"`
	Answers map[string]string `json:"answers"`
}

// SubmitQuiz handles POST /api/lessons/{slug}/quiz.
func (h *LessonHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req QuizSubmission
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Anchor) == "" {
		writeError(w, http.StatusBadRequest, MsgQuizAnchorNeeded)
		return
	}

	lesson, ok := h.lessonBySlug(w, r)
	if !ok {
		return
	}
	section, found := lesson.Section(req.Anchor)
	if !found {
		writeError(w, http.StatusNotFound, MsgSectionNotFound)
		return
	}
	if section.Quiz == nil || !section.Quiz.Enabled {
		writeError(w, http.StatusBadRequest, MsgQuizNotEnabled)
		return
	}

	result := section.Quiz.Score(req.Answers)
	metrics.RecordQuizSubmission(result.Passed)

	writeSuccess(w, http.StatusOK, map[string]any{"result": result})
}

func (h *LessonHandler) lessonBySlug(w http.ResponseWriter, r *http.Request) (model.Lesson, bool) {
	lesson, err := h.lessons.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgLessonNotFound)
		} else {
			serverError(w, r, h.logger, "failed to get lesson", err)
		}
		return model.Lesson{}, false
	}
	return lesson, true
}

// AdminList handles GET /api/admin/lessons, newest first.
func (h *LessonHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.queries.ListLessons(r.Context(), store.NewestFirst)
	if err != nil {
		serverError(w, r, h.logger, "failed to list lessons", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"lessons": lessons})
}

// AdminGet handles GET /api/admin/lessons/{id}.
func (h *LessonHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	lesson, err := h.queries.GetLessonByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgLessonNotFound)
		} else {
			serverError(w, r, h.logger, "failed to get lesson", err)
		}
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"lesson": lesson})
}

// Create handles POST /api/admin/lessons.
func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lesson := req.toLesson(w)
	if lesson == nil {
		return
	}

	if !h.checkUnique(w, r, lesson, 0) {
		return
	}

	created, err := h.queries.CreateLesson(r.Context(), store.LessonParams{
		Topic:    lesson.Topic,
		Slug:     lesson.Slug,
		Sections: lesson.Sections,
	})
	if err != nil {
		h.writeWriteError(w, r, "failed to create lesson", err)
		return
	}

	h.invalidate(r.Context())
	h.logger.InfoContext(r.Context(), "lesson created",
		"lesson_id", created.ID, "slug", created.Slug, "admin_id", adminID(r))

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": MsgLessonCreated,
		"lesson":  created,
	})
}

// Update handles PUT /api/admin/lessons/{id}. The stored document is
// replaced wholesale.
func (h *LessonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	var req lessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lesson := req.toLesson(w)
	if lesson == nil {
		return
	}

	if _, err := h.queries.GetLessonByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgLessonNotFound)
		} else {
			serverError(w, r, h.logger, "failed to get lesson", err)
		}
		return
	}

	if !h.checkUnique(w, r, lesson, id) {
		return
	}

	updated, err := h.queries.UpdateLesson(r.Context(), id, store.LessonParams{
		Topic:    lesson.Topic,
		Slug:     lesson.Slug,
		Sections: lesson.Sections,
	})
	if err != nil {
		h.writeWriteError(w, r, "failed to update lesson", err)
		return
	}

	h.invalidate(r.Context())
	h.logger.InfoContext(r.Context(), "lesson updated",
		"lesson_id", updated.ID, "slug", updated.Slug, "admin_id", adminID(r))

	writeSuccess(w, http.StatusOK, map[string]any{
		"message": MsgLessonUpdated,
		"lesson":  updated,
	})
}

// Delete handles DELETE /api/admin/lessons/{id}.
func (h *LessonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteLesson(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgLessonNotFound)
		} else {
			serverError(w, r, h.logger, "failed to delete lesson", err)
		}
		return
	}

	h.invalidate(r.Context())
	h.logger.InfoContext(r.Context(), "lesson deleted", "lesson_id", id, "admin_id", adminID(r))

	writeSuccess(w, http.StatusOK, map[string]any{"message": MsgLessonDeleted})
}

// checkUnique rejects a slug or topic already used by a lesson other than
// excludeID. The UNIQUE indexes still catch a concurrent writer; see
// writeWriteError.
func (h *LessonHandler) checkUnique(w http.ResponseWriter, r *http.Request, lesson *model.Lesson, excludeID int64) bool {
	taken, err := h.queries.SlugTaken(r.Context(), lesson.Slug, excludeID)
	if err != nil {
		serverError(w, r, h.logger, "failed to check slug", err)
		return false
	}
	if taken {
		writeError(w, http.StatusBadRequest, MsgSlugExists)
		return false
	}

	taken, err = h.queries.TopicTaken(r.Context(), lesson.Topic, excludeID)
	if err != nil {
		serverError(w, r, h.logger, "failed to check topic", err)
		return false
	}
	if taken {
		writeError(w, http.StatusBadRequest, MsgTopicExists)
		return false
	}
	return true
}

func (h *LessonHandler) writeWriteError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrSlugExists):
		writeError(w, http.StatusBadRequest, MsgSlugExists)
	case errors.Is(err, store.ErrTopicExists):
		writeError(w, http.StatusBadRequest, MsgTopicExists)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, MsgLessonNotFound)
	default:
		serverError(w, r, h.logger, msg, err)
	}
}

// invalidate drops cached public reads. A failure only delays freshness
// until the TTL expires, so it is logged rather than returned.
func (h *LessonHandler) invalidate(ctx context.Context) {
	if err := h.lessons.Invalidate(ctx); err != nil {
		h.logger.WarnContext(ctx, "failed to invalidate lesson cache", "error", err)
	}
}

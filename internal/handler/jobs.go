// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lcms-go/internal/scheduler"
)

// Job messages.
const (
	MsgJobNotFound = "Job not found"
	MsgJobFailed   = "Job failed"
	MsgJobFinished = "Job finished"
)

// JobRunner lists and runs background jobs.
type JobRunner interface {
	List() []scheduler.JobInfo
	Trigger(ctx context.Context, name string) error
}

// JobHandler exposes the scheduler to admins.
type JobHandler struct {
	jobs   JobRunner
	logger *slog.Logger
}

// NewJobHandler creates a job handler.
func NewJobHandler(jobs JobRunner, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger}
}

// jobView is a job as the API returns it; times are null until known.
type jobView struct {
	Name     string     `json:"name"`
	Schedule string     `json:"schedule"`
	LastRun  *time.Time `json:"lastRun"`
	NextRun  *time.Time `json:"nextRun"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// List handles GET /api/admin/jobs.
func (h *JobHandler) List(w http.ResponseWriter, _ *http.Request) {
	infos := h.jobs.List()
	views := make([]jobView, 0, len(infos))
	for _, info := range infos {
		views = append(views, jobView{
			Name:     info.Name,
			Schedule: info.Schedule,
			LastRun:  optionalTime(info.LastRun),
			NextRun:  optionalTime(info.NextRun),
		})
	}
	writeSuccess(w, http.StatusOK, map[string]any{"jobs": views})
}

// Run handles POST /api/admin/jobs/{name}/run. The job runs in the request
// and the response reports how it went.
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	start := time.Now()
	err := h.jobs.Trigger(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeError(w, http.StatusNotFound, MsgJobNotFound)
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "manual job run failed", "job", name, "error", err)
		writeError(w, http.StatusInternalServerError, MsgJobFailed)
		return
	}

	h.logger.InfoContext(r.Context(), "job run by admin", "job", name, "admin_id", adminID(r))
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":  MsgJobFinished,
		"job":      name,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/olegiv/lcms-go/internal/model"
)

// LessonsService wraps the public lesson endpoints.
type LessonsService struct {
	c *Client
}

func lessonPath(slug string) string {
	return "/api/lessons/" + url.PathEscape(slug)
}

// List returns every lesson in catalogue order.
func (s *LessonsService) List(ctx context.Context) ([]model.LessonSummary, error) {
	var out struct {
		Lessons []model.LessonSummary `json:"lessons"`
	}
	if err := s.c.do(ctx, http.MethodGet, "/api/lessons", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Lessons, nil
}

// Get returns the lesson with slug.
func (s *LessonsService) Get(ctx context.Context, slug string) (*model.Lesson, error) {
	var out struct {
		Lesson model.Lesson `json:"lesson"`
	}
	if err := s.c.do(ctx, http.MethodGet, lessonPath(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Lesson, nil
}

// Section returns one section of a lesson by anchor.
func (s *LessonsService) Section(ctx context.Context, slug, anchor string) (*model.Section, error) {
	var out struct {
		Section model.Section `json:"section"`
	}
	path := lessonPath(slug) + "/sections/" + url.PathEscape(anchor)
	if err := s.c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Section, nil
}

// SubmitQuiz scores answers (question id to option id) against the quiz of
// the section with anchor.
func (s *LessonsService) SubmitQuiz(ctx context.Context, slug, anchor string, answers map[string]string) (*model.QuizResult, error) {
	in := struct {
		Anchor  string            `json:"anchor"`
		Answers map[string]string `json:"answers"`
	}{Anchor: anchor, Answers: answers}

	var out struct {
		Result model.QuizResult `json:"result"`
	}
	if err := s.c.do(ctx, http.MethodPost, lessonPath(slug)+"/quiz", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

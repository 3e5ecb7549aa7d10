// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lcms-go/internal/model"
)

func validLesson() model.Lesson {
	return model.Lesson{
		Topic: "CSS Basics",
		Slug:  "css-basics",
		Sections: []model.Section{
			{Title: "Intro", Content: "<p>Hello</p>", Anchor: "intro"},
			{Title: "Selectors", Content: "...", Anchor: "selectors", Quiz: &model.Quiz{
				Enabled:      true,
				PassingScore: 70,
				Questions: []model.Question{{
					ID:         "q1",
					Question:   "Which selector targets ids?",
					Type:       model.QuestionTypeChoice,
					Difficulty: "easy",
					Options: []model.Option{
						{ID: "a", Text: "#id", Correct: true},
						{ID: "b", Text: ".id"},
					},
				}},
			}},
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *RequestValidationError
	require.True(t, errors.As(err, &verr), "expected *RequestValidationError, got %v", err)
	return verr.Fields
}

func TestStruct_ValidLesson(t *testing.T) {
	l := validLesson()
	assert.NoError(t, Struct(&l))
}

func TestStruct_RequiredFields(t *testing.T) {
	l := validLesson()
	l.Topic = ""
	l.Sections[0].Content = ""

	fields := fieldsOf(t, Struct(&l))
	assert.Equal(t, "is required", fields["topic"])
	assert.Equal(t, "is required", fields["sections[0].content"])
}

func TestStruct_SlugAndAnchorFormat(t *testing.T) {
	l := validLesson()
	l.Slug = "Not A Slug"
	l.Sections[0].Anchor = "has space"

	fields := fieldsOf(t, Struct(&l))
	assert.Contains(t, fields, "slug")
	assert.Contains(t, fields, "sections[0].anchor")

	l = validLesson()
	l.Sections[0].Anchor = "box_model"
	assert.NoError(t, Struct(&l), "underscores are allowed in anchors")
}

func TestStruct_DuplicateAnchors(t *testing.T) {
	l := validLesson()
	l.Sections[1].Anchor = "intro"

	fields := fieldsOf(t, Struct(&l))
	assert.Equal(t, "duplicate anchor intro", fields["sections[1].anchor"])
}

func TestStruct_QuizRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *model.Quiz)
		wantMsg string
	}{
		{"single option", func(q *model.Quiz) {
			q.Questions[0].Options = q.Questions[0].Options[:1]
		}, "a question needs at least 2 options"},
		{"no correct option", func(q *model.Quiz) {
			q.Questions[0].Options[0].Correct = false
		}, "at least one option must be marked correct"},
		{"bad difficulty", func(q *model.Quiz) {
			q.Questions[0].Difficulty = "extreme"
		}, "must be one of"},
		{"passing score above 100", func(q *model.Quiz) {
			q.PassingScore = 120
		}, "must be at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLesson()
			tt.mutate(l.Sections[1].Quiz)
			err := Struct(&l)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantMsg), "error %q lacks %q", err, tt.wantMsg)
		})
	}
}

func TestStruct_DisabledQuizSkipsOptionRules(t *testing.T) {
	l := validLesson()
	l.Sections[1].Quiz.Enabled = false
	l.Sections[1].Quiz.Questions[0].Options = nil
	assert.NoError(t, Struct(&l))
}

func TestStruct_DisabledQuizAllowsBlankQuestions(t *testing.T) {
	l := validLesson()
	l.Sections[1].Quiz = &model.Quiz{
		Enabled:      false,
		PassingScore: 70,
		Questions: []model.Question{{
			Difficulty: "medium",
			Options:    []model.Option{{}, {}},
		}},
	}
	assert.NoError(t, Struct(&l))
}

func TestStruct_EnabledQuizNeedsQuestionText(t *testing.T) {
	l := validLesson()
	q := &l.Sections[1].Quiz.Questions[0]
	q.Question = "  "
	q.Options[1].Text = ""

	fields := fieldsOf(t, Struct(&l))
	assert.Equal(t, "is required", fields["sections[1].quiz.questions[0].question"])
	assert.Equal(t, "is required", fields["sections[1].quiz.questions[0].options[1].text"])
}

func TestStruct_VideoNeedsYoutubeID(t *testing.T) {
	l := validLesson()
	l.Sections[0].HasVideo = true
	assert.Error(t, Struct(&l))

	l.Sections[0].Video = &model.Video{YoutubeID: "dQw4w9WgXcQ", StartTime: 10, EndTime: 60}
	assert.NoError(t, Struct(&l))
}

func TestRequestValidationError_Error(t *testing.T) {
	err := &RequestValidationError{Fields: map[string]string{"b": "is required", "a": "is invalid"}}
	assert.Equal(t, "a: is invalid; b: is required", err.Error())
	assert.Equal(t, "validation failed", (&RequestValidationError{}).Error())
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation checks decoded request bodies against struct tags using
// go-playground/validator. It owns the singleton validator and the lesson
// rules that span several fields (anchor uniqueness, quiz rules). Quiz
// questions are only checked once the quiz is enabled, so drafts can be
// saved with blank questions.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/olegiv/lcms-go/internal/model"
	"github.com/olegiv/lcms-go/internal/util"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	anchorPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

// RequestValidationError collects field errors keyed by JSON path,
// e.g. "sections[1].quiz.questions[0].options".
type RequestValidationError struct {
	Fields map[string]string
}

// Error returns the field messages joined in a stable order.
func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(msgs, "; ")
}

// Get returns the singleton validator. It is safe for concurrent use.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names instead of Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return util.IsValidSlug(fl.Field().String())
		})
		_ = validate.RegisterValidation("anchor", func(fl validator.FieldLevel) bool {
			return anchorPattern.MatchString(fl.Field().String())
		})

		validate.RegisterStructValidation(lessonRules, model.Lesson{})
		validate.RegisterStructValidation(sectionRules, model.Section{})
		validate.RegisterStructValidation(quizRules, model.Quiz{})
	})

	return validate
}

// Struct validates s and returns nil or a *RequestValidationError.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldPath(fe.Namespace())
		if _, exists := fields[key]; !exists {
			fields[key] = message(fe)
		}
	}
	return &RequestValidationError{Fields: fields}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "slug":
		return "must contain only lowercase letters, digits, underscores and single hyphens"
	case "anchor":
		return "must contain only letters, numbers, hyphens, and underscores"
	case "unique_anchor":
		return "duplicate anchor " + fe.Param()
	case "correct_option":
		return "at least one option must be marked correct"
	case "min_options":
		return "a question needs at least 2 options"
	case "youtube_id":
		return "is required when the section has a video"
	default:
		return "is invalid"
	}
}

func lessonRules(sl validator.StructLevel) {
	lesson, ok := sl.Current().Interface().(model.Lesson)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(lesson.Sections))
	for i, s := range lesson.Sections {
		if s.Anchor == "" {
			continue
		}
		if seen[s.Anchor] {
			name := fmt.Sprintf("sections[%d].anchor", i)
			sl.ReportError(s.Anchor, name, name, "unique_anchor", s.Anchor)
		}
		seen[s.Anchor] = true
	}
}

func sectionRules(sl validator.StructLevel) {
	section, ok := sl.Current().Interface().(model.Section)
	if !ok {
		return
	}
	if section.HasVideo && (section.Video == nil || section.Video.YoutubeID == "") {
		sl.ReportError(section.Video, "video.youtubeId", "Video", "youtube_id", "")
	}
}

func quizRules(sl validator.StructLevel) {
	quiz, ok := sl.Current().Interface().(model.Quiz)
	if !ok || !quiz.Enabled {
		return
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if strings.TrimSpace(q.Question) == "" {
			text := fmt.Sprintf("questions[%d].question", i)
			sl.ReportError(q.Question, text, text, "required", "")
		}
		for j, o := range q.Options {
			if strings.TrimSpace(o.Text) == "" {
				text := fmt.Sprintf("questions[%d].options[%d].text", i, j)
				sl.ReportError(o.Text, text, text, "required", "")
			}
		}

		name := fmt.Sprintf("questions[%d].options", i)
		if len(q.Options) < 2 {
			sl.ReportError(q.Options, name, name, "min_options", "2")
			continue
		}
		if !q.HasCorrectOption() {
			sl.ReportError(q.Options, name, name, "correct_option", "")
		}
	}
}

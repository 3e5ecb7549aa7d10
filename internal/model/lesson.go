// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/olegiv/lcms-go/internal/util"
)

// Lesson is a tutorial made of ordered sections. Sections are stored and
// returned in exactly the order they were submitted.
type Lesson struct {
	ID        int64     `json:"id,string"`
	Topic     string    `json:"topic" validate:"required,max=200"`
	Slug      string    `json:"slug" validate:"required,max=200,slug"`
	Sections  []Section `json:"sections" validate:"dive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LessonSummary is the projection served by the public lesson list.
type LessonSummary struct {
	ID       int64     `json:"id,string"`
	Topic    string    `json:"topic"`
	Slug     string    `json:"slug"`
	Sections []Section `json:"sections"`
}

// Summary projects the lesson to its public list shape.
func (l *Lesson) Summary() LessonSummary {
	return LessonSummary{ID: l.ID, Topic: l.Topic, Slug: l.Slug, Sections: l.Sections}
}

// Section is one chapter of a lesson. It has no identity outside its lesson.
type Section struct {
	Title         string      `json:"title" validate:"required,max=300"`
	Content       string      `json:"content" validate:"required"`
	Anchor        string      `json:"anchor" validate:"required,max=200,anchor"`
	HasPlayground bool        `json:"hasPlayground"`
	Playground    *Playground `json:"playground,omitempty"`
	Quiz          *Quiz       `json:"quiz,omitempty"`
	HasVideo      bool        `json:"hasVideo"`
	Video         *Video      `json:"video,omitempty"`
}

// Playground is an HTML/CSS/JS snippet rendered in a sandboxed preview.
type Playground struct {
	HTML         string `json:"html"`
	CSS          string `json:"css"`
	JS           string `json:"js"`
	Instructions string `json:"instructions"`
}

// Video embeds a YouTube clip, optionally trimmed to [StartTime, EndTime] seconds.
type Video struct {
	YoutubeID   string `json:"youtubeId" validate:"max=32"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   int    `json:"startTime" validate:"min=0"`
	EndTime     int    `json:"endTime" validate:"min=0"`
}

// UnmarshalJSON accepts startTime and endTime as numbers, numeric strings,
// empty strings or null. The admin form posts "" for an untouched field,
// which reads as 0. Anything else that is not a whole number is rejected.
func (v *Video) UnmarshalJSON(data []byte) error {
	var raw struct {
		YoutubeID   string          `json:"youtubeId"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		StartTime   json.RawMessage `json:"startTime"`
		EndTime     json.RawMessage `json:"endTime"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	start, err := parseSeconds("startTime", raw.StartTime)
	if err != nil {
		return err
	}
	end, err := parseSeconds("endTime", raw.EndTime)
	if err != nil {
		return err
	}

	*v = Video{
		YoutubeID:   raw.YoutubeID,
		Title:       raw.Title,
		Description: raw.Description,
		StartTime:   start,
		EndTime:     end,
	}
	return nil
}

func parseSeconds(name string, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("video.%s: %w", name, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("video.%s: %q is not a whole number of seconds", name, s)
		}
		return n, nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("video.%s: %w", name, err)
	}
	return n, nil
}

// Section returns the section with the given anchor.
func (l *Lesson) Section(anchor string) (*Section, bool) {
	for i := range l.Sections {
		if l.Sections[i].Anchor == anchor {
			return &l.Sections[i], true
		}
	}
	return nil, false
}

// Normalize fills in derived and defaulted fields before validation:
// the slug from the topic, section anchors from titles, question types,
// difficulties and missing question/option ids.
func (l *Lesson) Normalize() {
	if l.Slug == "" {
		l.Slug = util.Slugify(l.Topic)
	}
	if l.Sections == nil {
		l.Sections = []Section{}
	}

	for i := range l.Sections {
		s := &l.Sections[i]
		if s.Anchor == "" {
			s.Anchor = util.Anchor(s.Title)
		}
		if s.Quiz != nil {
			s.Quiz.normalize()
		}
	}
}

func newID() string {
	return uuid.NewString()
}

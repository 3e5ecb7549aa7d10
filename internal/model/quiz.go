// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"math"

	"github.com/goccy/go-json"
)

// Quiz defaults applied when the fields are absent.
const (
	DefaultPassingScore = 70
	QuestionTypeChoice  = "multiple-choice"
	DifficultyMedium    = "medium"
)

// Quiz is the optional knowledge check attached to a section.
type Quiz struct {
	Enabled      bool       `json:"enabled"`
	Questions    []Question `json:"questions" validate:"dive"`
	PassingScore int        `json:"passingScore" validate:"min=0,max=100"`
	ShowResults  bool       `json:"showResults"`
}

// UnmarshalJSON applies the passingScore and showResults defaults when the
// fields are missing from the document.
func (q *Quiz) UnmarshalJSON(data []byte) error {
	type plain Quiz
	p := plain{PassingScore: DefaultPassingScore, ShowResults: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*q = Quiz(p)
	return nil
}

// Question is a single quiz item.
type Question struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Type        string   `json:"type"`
	Options     []Option `json:"options" validate:"dive"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty" validate:"oneof=easy medium hard"`
}

// Option is one answer choice.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// CorrectOptionID returns the id of the first option marked correct, or ""
// when none is.
func (q *Question) CorrectOptionID() string {
	if i := q.firstCorrectIndex(); i >= 0 {
		return q.Options[i].ID
	}
	return ""
}

// HasCorrectOption reports whether at least one option is marked correct.
func (q *Question) HasCorrectOption() bool {
	return q.firstCorrectIndex() >= 0
}

func (q *Question) firstCorrectIndex() int {
	for i, o := range q.Options {
		if o.Correct {
			return i
		}
	}
	return -1
}

func (q *Quiz) normalize() {
	if q.Questions == nil {
		q.Questions = []Question{}
	}
	for i := range q.Questions {
		qq := &q.Questions[i]
		if qq.ID == "" {
			qq.ID = newID()
		}
		if qq.Type == "" {
			qq.Type = QuestionTypeChoice
		}
		if qq.Difficulty == "" {
			qq.Difficulty = DifficultyMedium
		}
		for j := range qq.Options {
			if qq.Options[j].ID == "" {
				qq.Options[j].ID = newID()
			}
		}
	}
}

// QuizResult is the outcome of scoring a set of answers.
type QuizResult struct {
	Score        int              `json:"score"`
	Correct      int              `json:"correct"`
	Total        int              `json:"total"`
	PassingScore int              `json:"passingScore"`
	Passed       bool             `json:"passed"`
	Message      string           `json:"message"`
	Questions    []QuestionResult `json:"questions,omitempty"`
}

// QuestionResult is per-question feedback, included only when the quiz
// shows results.
type QuestionResult struct {
	QuestionID      string `json:"questionId"`
	SelectedID      string `json:"selectedOptionId"`
	Correct         bool   `json:"correct"`
	CorrectOptionID string `json:"correctOptionId"`
	Explanation     string `json:"explanation,omitempty"`
}

// Score grades answers, a map of question id to selected option id. An
// answer counts when it equals the question's first correct option. The
// score is the rounded percentage of correct answers, 0 for an empty quiz.
func (q *Quiz) Score(answers map[string]string) QuizResult {
	res := QuizResult{
		Total:        len(q.Questions),
		PassingScore: q.PassingScore,
	}

	for i := range q.Questions {
		question := &q.Questions[i]
		selected := answers[question.ID]
		correctID := question.CorrectOptionID()
		ok := selected != "" && selected == correctID
		if ok {
			res.Correct++
		}
		if q.ShowResults {
			res.Questions = append(res.Questions, QuestionResult{
				QuestionID:      question.ID,
				SelectedID:      selected,
				Correct:         ok,
				CorrectOptionID: correctID,
				Explanation:     question.Explanation,
			})
		}
	}

	if res.Total > 0 {
		res.Score = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	}
	res.Passed = res.Total > 0 && res.Score >= q.PassingScore
	res.Message = scoreMessage(res.Score)

	return res
}

func scoreMessage(score int) string {
	switch {
	case score >= 80:
		return "Excellent!"
	case score >= 60:
		return "Good job!"
	default:
		return "Keep practicing!"
	}
}

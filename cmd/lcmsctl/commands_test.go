// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lcms-go/internal/client"
	"github.com/olegiv/lcms-go/internal/model"
)

func init() {
	color.NoColor = true
}

func TestParseAnswers(t *testing.T) {
	answers, err := parseAnswers([]string{"q1=b", "q2=c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q1": "b", "q2": "c"}, answers)

	for _, bad := range []string{"q1", "=b", "q1="} {
		_, err := parseAnswers([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestPrintQuizResult(t *testing.T) {
	var buf bytes.Buffer
	printQuizResult(&buf, &model.QuizResult{
		Score:        50,
		Correct:      1,
		Total:        2,
		PassingScore: 70,
		Message:      "Keep practicing",
		Questions: []model.QuestionResult{
			{QuestionID: "q1", Correct: true, CorrectOptionID: "b"},
			{QuestionID: "q2", CorrectOptionID: "c", Explanation: "C is right"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "50% (1/2 correct, pass at 70%) Keep practicing")
	assert.Contains(t, out, "ok q1")
	assert.Contains(t, out, "x q2 answer: c - C is right")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	err := dispatch(t.Context(), "http://localhost:1", "nope", nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestRunLessons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"lessons":[{"id":"1","topic":"Go Basics","slug":"go-basics","sections":[]}]}`))
	}))
	defer srv.Close()

	api, err := client.New(srv.URL)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runLessons(t.Context(), &app{api: api, out: &buf}, nil))
	assert.Contains(t, buf.String(), "go-basics")
	assert.Contains(t, buf.String(), "Go Basics")
}

func TestWithFields(t *testing.T) {
	err := withFields(&client.APIError{
		Status:  400,
		Message: "Validation failed",
		Fields:  map[string]string{"name": "is required", "email": "is invalid"},
	})
	assert.EqualError(t, err, "lcms api: 400 Validation failed (email: is invalid; name: is required)")

	plain := &client.APIError{Status: 500, Message: "Server error"}
	assert.Same(t, error(plain), withFields(plain))
}

func TestRunJobs(t *testing.T) {
	var ran string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/jobs":
			_, _ = w.Write([]byte(`{"success":true,"jobs":[{"name":"db-maintenance","schedule":"@daily","lastRun":null,"nextRun":null}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/jobs/db-maintenance/run":
			ran = "db-maintenance"
			_, _ = w.Write([]byte(`{"success":true,"message":"Job finished"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"Job not found"}`))
		}
	}))
	defer srv.Close()

	api, err := client.New(srv.URL, client.WithCredentials(client.NewCredentials("token")))
	require.NoError(t, err)
	var buf bytes.Buffer
	a := &app{api: api, out: &buf}

	require.NoError(t, runJobs(t.Context(), a, nil))
	assert.Contains(t, buf.String(), "db-maintenance")
	assert.Contains(t, buf.String(), "last never, next never")

	buf.Reset()
	require.NoError(t, runJob(t.Context(), a, []string{"db-maintenance"}))
	assert.Equal(t, "db-maintenance", ran)
	assert.Contains(t, buf.String(), "db-maintenance finished")

	assert.True(t, client.IsNotFound(runJob(t.Context(), a, []string{"other"})))
	assert.ErrorIs(t, runJob(t.Context(), a, nil), errUsage)
}

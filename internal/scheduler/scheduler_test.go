// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lcms-go/internal/testutil"
)

func noop(context.Context) error { return nil }

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr  string
		valid bool
	}{
		{"@daily", true},
		{"@every 1h", true},
		{"0 3 * * *", true},
		{"*/5 * * * *", true},
		{"", false},
		{"not a schedule", false},
		{"0 0 3 * * *", false}, // seconds field is not accepted
		{"61 * * * *", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateSchedule(tt.expr)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	defer s.Stop()

	require.NoError(t, s.Add(Job{Name: "b-job", Schedule: "@hourly", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "a-job", Schedule: "@daily", Run: noop}))

	assert.Error(t, s.Add(Job{Name: "a-job", Schedule: "@daily", Run: noop}), "duplicate name")
	assert.Error(t, s.Add(Job{Name: "bad", Schedule: "whenever", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "", Schedule: "@daily", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "no-run", Schedule: "@daily"}))

	jobs := s.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a-job", jobs[0].Name)
	assert.Equal(t, "@daily", jobs[0].Schedule)
	assert.Equal(t, "b-job", jobs[1].Name)
}

func TestList_NextRunAfterStart(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	require.NoError(t, s.Add(Job{Name: "hourly", Schedule: "@hourly", Run: noop}))

	s.Start()
	defer s.Stop()

	jobs := s.List()
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].NextRun.After(time.Now()))
	assert.True(t, jobs[0].LastRun.IsZero())
}

func TestTrigger(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	defer s.Stop()

	var runs atomic.Int32
	require.NoError(t, s.Add(Job{Name: "count", Schedule: "@daily", Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))

	before := time.Now()
	require.NoError(t, s.Trigger(t.Context(), "count"))
	assert.Equal(t, int32(1), runs.Load())

	jobs := s.List()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].LastRun.Before(before), "manual runs update LastRun")

	err := s.Trigger(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestTrigger_ReturnsJobError(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	defer s.Stop()

	boom := errors.New("boom")
	require.NoError(t, s.Add(Job{Name: "fail", Schedule: "@daily", Run: func(context.Context) error {
		return boom
	}}))

	assert.ErrorIs(t, s.Trigger(t.Context(), "fail"), boom)
}

func TestTrigger_RecoversPanic(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	defer s.Stop()

	require.NoError(t, s.Add(Job{Name: "panics", Schedule: "@daily", Run: func(context.Context) error {
		panic("bad state")
	}}))

	err := s.Trigger(t.Context(), "panics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad state")
}

func TestTrigger_AppliesTimeout(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	defer s.Stop()

	require.NoError(t, s.Add(Job{
		Name:     "slow",
		Schedule: "@daily",
		Timeout:  20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	assert.ErrorIs(t, s.Trigger(t.Context(), "slow"), context.DeadlineExceeded)
}

func TestScheduledRun(t *testing.T) {
	s := New(testutil.TestLoggerSilent())

	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add(Job{Name: "tick", Schedule: "@every 1s", Run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}))

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run on its schedule")
	}
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New(testutil.TestLoggerSilent())

	started := make(chan struct{})
	var once sync.Once
	var cancelled atomic.Bool
	require.NoError(t, s.Add(Job{Name: "long", Schedule: "@every 1s", Run: func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	s.Stop()
	assert.True(t, cancelled.Load())
}

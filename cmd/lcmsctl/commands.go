// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/olegiv/lcms-go/internal/client"
	"github.com/olegiv/lcms-go/internal/model"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	faint   = color.New(color.Faint)
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runLessons(ctx context.Context, a *app, _ []string) error {
	lessons, err := a.api.Lessons.List(ctx)
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		_, _ = faint.Fprintln(a.out, "no lessons")
		return nil
	}
	for _, l := range lessons {
		_, _ = heading.Fprintf(a.out, "%-24s", l.Slug)
		_, _ = fmt.Fprintf(a.out, " %s ", l.Topic)
		_, _ = faint.Fprintf(a.out, "(%d sections)\n", len(l.Sections))
	}
	return nil
}

func runLesson(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("lesson needs a slug: %w", errUsage)
	}
	lesson, err := a.api.Lessons.Get(ctx, args[0])
	if err != nil {
		return err
	}
	printLesson(a.out, lesson)
	return nil
}

func printLesson(w io.Writer, lesson *model.Lesson) {
	_, _ = heading.Fprintf(w, "%s\n", lesson.Topic)
	_, _ = faint.Fprintf(w, "slug %s, updated %s\n", lesson.Slug, lesson.UpdatedAt.Format(time.DateTime))
	for i, s := range lesson.Sections {
		_, _ = fmt.Fprintf(w, "%2d. %s ", i+1, s.Title)
		_, _ = faint.Fprintf(w, "#%s", s.Anchor)
		var tags []string
		if s.HasPlayground {
			tags = append(tags, "playground")
		}
		if s.HasVideo {
			tags = append(tags, "video")
		}
		if s.Quiz != nil && s.Quiz.Enabled {
			tags = append(tags, fmt.Sprintf("quiz:%d", len(s.Quiz.Questions)))
		}
		if len(tags) > 0 {
			_, _ = success.Fprintf(w, " [%s]", strings.Join(tags, " "))
		}
		_, _ = fmt.Fprintln(w)
	}
}

// parseAnswers reads question=option pairs.
func parseAnswers(args []string) (map[string]string, error) {
	answers := make(map[string]string, len(args))
	for _, arg := range args {
		q, o, ok := strings.Cut(arg, "=")
		if !ok || q == "" || o == "" {
			return nil, fmt.Errorf("answer %q is not question=option", arg)
		}
		answers[q] = o
	}
	return answers, nil
}

func runQuiz(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("quiz needs a slug and an anchor: %w", errUsage)
	}
	answers, err := parseAnswers(args[2:])
	if err != nil {
		return err
	}
	result, err := a.api.Lessons.SubmitQuiz(ctx, args[0], args[1], answers)
	if err != nil {
		return err
	}
	printQuizResult(a.out, result)
	return nil
}

func printQuizResult(w io.Writer, r *model.QuizResult) {
	verdict := failure
	if r.Passed {
		verdict = success
	}
	_, _ = verdict.Fprintf(w, "%d%% ", r.Score)
	_, _ = fmt.Fprintf(w, "(%d/%d correct, pass at %d%%) %s\n", r.Correct, r.Total, r.PassingScore, r.Message)

	for _, q := range r.Questions {
		mark := failure.Sprint("x")
		if q.Correct {
			mark = success.Sprint("ok")
		}
		_, _ = fmt.Fprintf(w, "  %s %s", mark, q.QuestionID)
		if !q.Correct {
			_, _ = faint.Fprintf(w, " answer: %s", q.CorrectOptionID)
		}
		if q.Explanation != "" {
			_, _ = faint.Fprintf(w, " - %s", q.Explanation)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func runContact(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("contact")
	var form client.ContactForm
	fs.StringVar(&form.Name, "name", "", "Your name")
	fs.StringVar(&form.Email, "email", "", "Your email address")
	fs.StringVar(&form.Subject, "subject", "", "Subject (optional)")
	fs.StringVar(&form.Message, "message", "", "Message")
	if err := fs.Parse(args); err != nil {
		return err
	}

	receipt, err := a.api.Contact.Submit(ctx, form)
	if err != nil {
		return withFields(err)
	}
	_, _ = success.Fprintln(a.out, receipt.Message)
	_, _ = faint.Fprintf(a.out, "reference #%d\n", receipt.ID)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", os.Getenv("LCMS_ADMIN_EMAIL"), "Admin email")
	password := fs.String("password", os.Getenv("LCMS_ADMIN_PASSWORD"), "Admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.api.Admin.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	_, _ = success.Fprintf(os.Stderr, "logged in as %s (%s), token expires %s\n",
		res.Admin.Username, res.Admin.Email, res.ExpiresAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(a.out, "export LCMS_TOKEN=%s\n", res.Token)
	return nil
}

func runProfile(ctx context.Context, a *app, _ []string) error {
	admin, err := a.api.Admin.Profile(ctx)
	if err != nil {
		return loginHint(err)
	}
	_, _ = heading.Fprintln(a.out, admin.Username)
	_, _ = fmt.Fprintf(a.out, "email  %s\nrole   %s\n", admin.Email, admin.Role)
	if admin.LastLogin != nil {
		_, _ = fmt.Fprintf(a.out, "login  %s\n", admin.LastLogin.Local().Format(time.DateTime))
	}
	return nil
}

func runPasswd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("passwd")
	current := fs.String("current", os.Getenv("LCMS_ADMIN_PASSWORD"), "Current password")
	next := fs.String("new", "", "New password (at least 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.api.Admin.ChangePassword(ctx, *current, *next); err != nil {
		return loginHint(withFields(err))
	}
	_, _ = success.Fprintln(a.out, "password updated")
	return nil
}

func runStats(ctx context.Context, a *app, _ []string) error {
	stats, err := a.api.Admin.Stats(ctx)
	if err != nil {
		return loginHint(err)
	}
	_, _ = heading.Fprintln(a.out, "Dashboard")
	_, _ = fmt.Fprintf(a.out, "lessons   %d\n", stats.TotalLessons)
	_, _ = fmt.Fprintf(a.out, "contacts  %d ", stats.TotalContacts)
	_, _ = success.Fprintf(a.out, "(%d new, %d replied)\n", stats.NewContacts, stats.RepliedContacts)
	return nil
}

func runContacts(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("contacts")
	var q client.ContactQuery
	fs.StringVar(&q.Status, "status", "", "Filter by status: new|read|replied|archived")
	fs.StringVar(&q.Search, "search", "", "Search name, email, subject and message")
	fs.IntVar(&q.Page, "page", 1, "Page number")
	fs.IntVar(&q.Limit, "limit", 0, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.api.Admin.ListContacts(ctx, q)
	if err != nil {
		return loginHint(err)
	}
	for _, c := range page.Contacts {
		_, _ = fmt.Fprintf(a.out, "#%-5d %s  %-20s %-28s ", c.ID, c.CreatedAt.Local().Format(time.DateOnly), c.Name, c.Email)
		_, _ = statusColor(c.Status).Fprintln(a.out, c.Status)
		if c.Subject != "" {
			_, _ = faint.Fprintf(a.out, "       %s\n", c.Subject)
		}
	}
	p := page.Pagination
	_, _ = faint.Fprintf(a.out, "page %d of %d, %d total\n", p.Page, max(p.Pages, 1), p.Total)
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case model.ContactStatusNew:
		return color.New(color.FgYellow, color.Bold)
	case model.ContactStatusReplied:
		return success
	case model.ContactStatusArchived:
		return faint
	default:
		return color.New(color.FgBlue)
	}
}

func runReply(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("reply")
	status := fs.String("status", "", "New status: new|read|replied|archived")
	notes := fs.String("notes", "", "Admin notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("reply needs a contact id: %w", errUsage)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid contact id %q", fs.Arg(0))
	}

	var upd client.ContactUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "status":
			upd.Status = status
		case "notes":
			upd.AdminNotes = notes
		}
	})

	contact, err := a.api.Admin.UpdateContact(ctx, id, upd)
	if err != nil {
		return loginHint(withFields(err))
	}
	_, _ = success.Fprintf(a.out, "contact #%d is now ", contact.ID)
	_, _ = statusColor(contact.Status).Fprintln(a.out, contact.Status)
	return nil
}

func runJobs(ctx context.Context, a *app, _ []string) error {
	jobs, err := a.api.Admin.Jobs(ctx)
	if err != nil {
		return loginHint(err)
	}
	if len(jobs) == 0 {
		_, _ = faint.Fprintln(a.out, "no jobs")
		return nil
	}
	for _, j := range jobs {
		_, _ = heading.Fprintf(a.out, "%-20s", j.Name)
		_, _ = fmt.Fprintf(a.out, " %-12s ", j.Schedule)
		_, _ = faint.Fprintf(a.out, "last %s, next %s\n", jobTime(j.LastRun), jobTime(j.NextRun))
	}
	return nil
}

func jobTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func runJob(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("run-job needs a job name: %w", errUsage)
	}
	if err := a.api.Admin.RunJob(ctx, args[0]); err != nil {
		return loginHint(err)
	}
	_, _ = success.Fprintf(a.out, "%s finished\n", args[0])
	return nil
}

// loginHint points at the login command when the token was rejected.
func loginHint(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("%w (run 'lcmsctl login' and export LCMS_TOKEN)", err)
	}
	return err
}

// withFields appends per-field validation messages to err.
func withFields(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}
	parts := make([]string, 0, len(apiErr.Fields))
	for field, msg := range apiErr.Fields {
		parts = append(parts, field+": "+msg)
	}
	slices.Sort(parts)
	return fmt.Errorf("%w (%s)", err, strings.Join(parts, "; "))
}

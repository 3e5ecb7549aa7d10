// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/lcms-go/internal/auth"
	"github.com/olegiv/lcms-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "lcms-test.db")

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	return db
}

// steppingClock returns a clock that advances one second per call so that
// created_at ordering is deterministic.
func steppingClock() func() time.Time {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func testQueries(t *testing.T) *Queries {
	t.Helper()
	q := New(testDB(t))
	q.now = steppingClock()
	return q
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	admin, err := q.CreateAdmin(ctx, CreateAdminParams{
		Username:     "admin",
		Email:        "  Admin@LearningCenter.com ",
		PasswordHash: "hashed-password",
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	if admin.ID == 0 {
		t.Error("admin.ID should not be 0")
	}
	if admin.Email != "admin@learningcenter.com" {
		t.Errorf("Email = %q, want lowercased", admin.Email)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", admin.Role, model.RoleAdmin)
	}
	if admin.LastLogin != nil {
		t.Errorf("LastLogin = %v, want nil", admin.LastLogin)
	}

	found, err := q.GetAdminByEmail(ctx, "ADMIN@learningcenter.com")
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if found.ID != admin.ID || found.PasswordHash != "hashed-password" {
		t.Errorf("found = %+v", found)
	}

	_, err = q.CreateAdmin(ctx, CreateAdminParams{Username: "other", Email: "admin@learningcenter.com", PasswordHash: "x"})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate email error = %v, want ErrEmailExists", err)
	}
	_, err = q.CreateAdmin(ctx, CreateAdminParams{Username: "admin", Email: "new@learningcenter.com", PasswordHash: "x"})
	if !errors.Is(err, ErrNameExists) {
		t.Errorf("duplicate username error = %v, want ErrNameExists", err)
	}
}

func TestCreateAdmin_Roles(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	super, err := q.CreateAdmin(ctx, CreateAdminParams{
		Username:     "root",
		Email:        "root@learningcenter.com",
		PasswordHash: "x",
		Role:         model.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if super.Role != model.RoleSuperAdmin {
		t.Errorf("Role = %q, want %q", super.Role, model.RoleSuperAdmin)
	}

	_, err = q.CreateAdmin(ctx, CreateAdminParams{
		Username:     "owner",
		Email:        "owner@learningcenter.com",
		PasswordHash: "x",
		Role:         "owner",
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("unknown role error = %v, want ErrInvalidRole", err)
	}
	if _, err := q.GetAdminByEmail(ctx, "owner@learningcenter.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("admin with unknown role was stored: %v", err)
	}
}

func TestGetAdmin_NotFound(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	if _, err := q.GetAdminByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAdminByEmail error = %v, want ErrNotFound", err)
	}
	if _, err := q.GetAdminByID(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAdminByID error = %v, want ErrNotFound", err)
	}
	if err := q.UpdateAdminLastLogin(ctx, 99, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateAdminLastLogin error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAdminLastLoginAndPassword(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	admin, err := q.CreateAdmin(ctx, CreateAdminParams{Username: "a", Email: "a@b.co", PasswordHash: "old"})
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := q.UpdateAdminLastLogin(ctx, admin.ID, at); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	if err := q.UpdateAdminPassword(ctx, admin.ID, "new"); err != nil {
		t.Fatalf("UpdateAdminPassword: %v", err)
	}

	got, err := q.GetAdminByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetAdminByID: %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Errorf("LastLogin = %v, want %v", got.LastLogin, at)
	}
	if got.PasswordHash != "new" {
		t.Errorf("PasswordHash = %q, want new", got.PasswordHash)
	}
}

func TestLessonCRUD(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	sample := SampleLesson()
	created, err := q.CreateLesson(ctx, LessonParams{Topic: sample.Topic, Slug: sample.Slug, Sections: sample.Sections})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("lesson ID should not be 0")
	}

	got, err := q.GetLessonBySlug(ctx, "css")
	if err != nil {
		t.Fatalf("GetLessonBySlug: %v", err)
	}
	if len(got.Sections) != len(sample.Sections) {
		t.Fatalf("len(Sections) = %d, want %d", len(got.Sections), len(sample.Sections))
	}
	for i := range sample.Sections {
		if got.Sections[i].Anchor != sample.Sections[i].Anchor || got.Sections[i].Content != sample.Sections[i].Content {
			t.Errorf("section %d changed in round trip: %+v", i, got.Sections[i])
		}
	}
	quiz := got.Sections[0].Quiz
	if quiz == nil || !quiz.Enabled || quiz.Questions[0].CorrectOptionID() != "c" {
		t.Errorf("quiz not preserved: %+v", quiz)
	}
	if got.Sections[1].Playground == nil || !got.Sections[1].HasPlayground {
		t.Error("playground not preserved")
	}
	if got.Sections[2].Video == nil || got.Sections[2].Video.EndTime != 300 {
		t.Error("video not preserved")
	}

	updated, err := q.UpdateLesson(ctx, created.ID, LessonParams{
		Topic:    "CSS Deep Dive",
		Slug:     "css-deep-dive",
		Sections: []model.Section{{Title: "Only", Anchor: "only", Content: "x"}},
	})
	if err != nil {
		t.Fatalf("UpdateLesson: %v", err)
	}
	if updated.Slug != "css-deep-dive" || len(updated.Sections) != 1 {
		t.Errorf("update was not a whole replace: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", updated.UpdatedAt, updated.CreatedAt)
	}

	if _, err := q.GetLessonBySlug(ctx, "css"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old slug still resolves: %v", err)
	}

	if err := q.DeleteLesson(ctx, created.ID); err != nil {
		t.Fatalf("DeleteLesson: %v", err)
	}
	if err := q.DeleteLesson(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteLesson error = %v, want ErrNotFound", err)
	}
	if _, err := q.UpdateLesson(ctx, created.ID, LessonParams{Topic: "x", Slug: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateLesson on deleted id error = %v, want ErrNotFound", err)
	}
}

func TestLessonUniqueness(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	first, err := q.CreateLesson(ctx, LessonParams{Topic: "HTML", Slug: "html"})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	second, err := q.CreateLesson(ctx, LessonParams{Topic: "CSS", Slug: "css"})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}

	if _, err := q.CreateLesson(ctx, LessonParams{Topic: "Other", Slug: "html"}); !errors.Is(err, ErrSlugExists) {
		t.Errorf("duplicate slug error = %v, want ErrSlugExists", err)
	}
	if _, err := q.CreateLesson(ctx, LessonParams{Topic: "HTML", Slug: "html-2"}); !errors.Is(err, ErrTopicExists) {
		t.Errorf("duplicate topic error = %v, want ErrTopicExists", err)
	}
	if _, err := q.UpdateLesson(ctx, second.ID, LessonParams{Topic: "CSS", Slug: "html"}); !errors.Is(err, ErrSlugExists) {
		t.Errorf("update onto taken slug error = %v, want ErrSlugExists", err)
	}

	taken, err := q.SlugTaken(ctx, "html", 0)
	if err != nil || !taken {
		t.Errorf("SlugTaken(html, 0) = %v, %v", taken, err)
	}
	taken, err = q.SlugTaken(ctx, "html", first.ID)
	if err != nil || taken {
		t.Errorf("SlugTaken(html, own id) = %v, %v; want false", taken, err)
	}
	taken, err = q.TopicTaken(ctx, "CSS", first.ID)
	if err != nil || !taken {
		t.Errorf("TopicTaken(CSS) = %v, %v", taken, err)
	}

	n, err := q.CountLessons(ctx)
	if err != nil || n != 2 {
		t.Errorf("CountLessons = %d, %v; want 2", n, err)
	}
}

func TestListLessons_Order(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	for _, topic := range []string{"One", "Two", "Three"} {
		if _, err := q.CreateLesson(ctx, LessonParams{Topic: topic, Slug: "l-" + topic}); err != nil {
			t.Fatalf("CreateLesson: %v", err)
		}
	}

	oldest, err := q.ListLessons(ctx, OldestFirst)
	if err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	newest, err := q.ListLessons(ctx, NewestFirst)
	if err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	if len(oldest) != 3 || len(newest) != 3 {
		t.Fatalf("got %d and %d lessons, want 3", len(oldest), len(newest))
	}
	if oldest[0].Topic != "One" || oldest[2].Topic != "Three" {
		t.Errorf("oldest-first order = %s, %s, %s", oldest[0].Topic, oldest[1].Topic, oldest[2].Topic)
	}
	if newest[0].Topic != "Three" || newest[2].Topic != "One" {
		t.Errorf("newest-first order = %s, %s, %s", newest[0].Topic, newest[1].Topic, newest[2].Topic)
	}
	if oldest[0].Sections == nil {
		t.Error("Sections should decode to an empty slice")
	}
}

func createContacts(t *testing.T, q *Queries, n int) []model.Contact {
	t.Helper()
	out := make([]model.Contact, 0, n)
	for i := 1; i <= n; i++ {
		c, err := q.CreateContact(context.Background(), CreateContactParams{
			Name:    fmt.Sprintf("Person %d", i),
			Email:   fmt.Sprintf("person%d@example.com", i),
			Message: "hello",
		})
		if err != nil {
			t.Fatalf("CreateContact: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func TestCreateContact(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	c, err := q.CreateContact(ctx, CreateContactParams{Name: "Jane", Email: "jane@example.com", Message: "Hi"})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if c.Status != model.ContactStatusNew {
		t.Errorf("Status = %q, want new", c.Status)
	}
	if c.Subject != "" || c.AdminNotes != "" || c.RepliedAt != nil {
		t.Errorf("unexpected defaults: %+v", c)
	}

	if _, err := q.GetContact(ctx, c.ID+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetContact error = %v, want ErrNotFound", err)
	}
}

func TestListContacts_Pagination(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)
	created := createContacts(t, q, 45)

	page2, err := q.ListContacts(ctx, ContactFilter{}, 20, 20)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(page2) != 20 {
		t.Fatalf("len(page2) = %d, want 20", len(page2))
	}
	// Newest first: item 21 overall is the 25th created.
	if page2[0].ID != created[24].ID {
		t.Errorf("page2[0] = %s, want %s", page2[0].Name, created[24].Name)
	}

	page3, err := q.ListContacts(ctx, ContactFilter{}, 20, 40)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(page3) != 5 {
		t.Errorf("len(page3) = %d, want 5", len(page3))
	}

	total, err := q.CountContacts(ctx, ContactFilter{})
	if err != nil || total != 45 {
		t.Errorf("CountContacts = %d, %v; want 45", total, err)
	}
}

func TestListContacts_Filters(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)

	inputs := []CreateContactParams{
		{Name: "Alice Smith", Email: "alice@example.com", Subject: "Grid question", Message: "m"},
		{Name: "Bob", Email: "bob@SAMPLE.org", Subject: "Billing", Message: "m"},
		{Name: "Carol 100%", Email: "carol@example.com", Subject: "", Message: "m"},
	}
	var ids []int64
	for _, in := range inputs {
		c, err := q.CreateContact(ctx, in)
		if err != nil {
			t.Fatalf("CreateContact: %v", err)
		}
		ids = append(ids, c.ID)
	}
	replied := model.ContactStatusReplied
	if _, err := q.UpdateContact(ctx, ids[1], UpdateContactParams{Status: &replied}); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}

	tests := []struct {
		name   string
		filter ContactFilter
		want   int64
	}{
		{"no filter", ContactFilter{}, 3},
		{"status new", ContactFilter{Status: model.ContactStatusNew}, 2},
		{"status replied", ContactFilter{Status: model.ContactStatusReplied}, 1},
		{"search name case-insensitive", ContactFilter{Search: "ALICE"}, 1},
		{"search email", ContactFilter{Search: "sample.org"}, 1},
		{"search subject", ContactFilter{Search: "grid"}, 1},
		{"search shared domain", ContactFilter{Search: "example.com"}, 2},
		{"percent is literal", ContactFilter{Search: "100%"}, 1},
		{"underscore is literal", ContactFilter{Search: "_"}, 0},
		{"status and search", ContactFilter{Status: model.ContactStatusNew, Search: "bob"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := q.CountContacts(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountContacts: %v", err)
			}
			if n != tt.want {
				t.Errorf("CountContacts = %d, want %d", n, tt.want)
			}
			list, err := q.ListContacts(ctx, tt.filter, 20, 0)
			if err != nil {
				t.Fatalf("ListContacts: %v", err)
			}
			if int64(len(list)) != tt.want {
				t.Errorf("len(ListContacts) = %d, want %d", len(list), tt.want)
			}
		})
	}
}

func TestUpdateContact_RepliedAt(t *testing.T) {
	ctx := context.Background()
	q := testQueries(t)
	c := createContacts(t, q, 1)[0]

	read := model.ContactStatusRead
	got, err := q.UpdateContact(ctx, c.ID, UpdateContactParams{Status: &read})
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if got.Status != read || got.RepliedAt != nil {
		t.Errorf("after read: status=%q repliedAt=%v", got.Status, got.RepliedAt)
	}

	replied := model.ContactStatusReplied
	got, err = q.UpdateContact(ctx, c.ID, UpdateContactParams{Status: &replied})
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if got.RepliedAt == nil {
		t.Fatal("RepliedAt not set on replied")
	}
	stamped := *got.RepliedAt

	archived := model.ContactStatusArchived
	notes := "answered by phone"
	got, err = q.UpdateContact(ctx, c.ID, UpdateContactParams{Status: &archived, AdminNotes: &notes})
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if got.RepliedAt == nil || !got.RepliedAt.Equal(stamped) {
		t.Errorf("RepliedAt = %v, want unchanged %v", got.RepliedAt, stamped)
	}
	if got.AdminNotes != notes || got.Status != archived {
		t.Errorf("got = %+v", got)
	}

	// Notes-only update leaves status alone.
	empty := ""
	got, err = q.UpdateContact(ctx, c.ID, UpdateContactParams{AdminNotes: &empty})
	if err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if got.Status != archived || got.AdminNotes != "" {
		t.Errorf("notes-only update: %+v", got)
	}

	if _, err := q.UpdateContact(ctx, c.ID+1, UpdateContactParams{Status: &read}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateContact missing id error = %v, want ErrNotFound", err)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	opts := SeedOptions{
		AdminEmail:    "admin@learningcenter.com",
		AdminUsername: "admin",
		AdminPassword: "s3cret-Password",
		SampleLesson:  true,
	}

	if err := Seed(ctx, db, opts); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Idempotent
	if err := Seed(ctx, db, opts); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	q := New(db)
	admin, err := q.GetAdminByEmail(ctx, opts.AdminEmail)
	if err != nil {
		t.Fatalf("GetAdminByEmail: %v", err)
	}
	if admin.Role != model.RoleSuperAdmin {
		t.Errorf("Role = %q, want super-admin", admin.Role)
	}
	if admin.PasswordHash == opts.AdminPassword {
		t.Fatal("password stored in plaintext")
	}
	ok, err := auth.CheckPassword(opts.AdminPassword, admin.PasswordHash)
	if err != nil || !ok {
		t.Errorf("seeded hash does not verify: %v, %v", ok, err)
	}

	if n, _ := q.CountAdmins(ctx); n != 1 {
		t.Errorf("CountAdmins = %d, want 1", n)
	}
	if n, _ := q.CountLessons(ctx); n != 1 {
		t.Errorf("CountLessons = %d, want 1", n)
	}

	if err := Seed(ctx, testDB(t), SeedOptions{AdminEmail: "x@y.zz", AdminUsername: "x"}); err == nil {
		t.Error("Seed with empty password should fail")
	}
}

func TestMaintain(t *testing.T) {
	db := testDB(t)
	queries := New(db)

	_, err := queries.CreateContact(t.Context(), CreateContactParams{
		Name:    "Ada",
		Email:   "ada@example.com",
		Message: "Hello",
	})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	if err := Maintain(t.Context(), db); err != nil {
		t.Fatalf("Maintain: %v", err)
	}

	n, err := queries.CountContacts(t.Context(), ContactFilter{})
	if err != nil {
		t.Fatalf("CountContacts: %v", err)
	}
	if n != 1 {
		t.Errorf("CountContacts = %d, want 1", n)
	}
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/config"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// testDBSemaphore serializes DuckDB tests. Concurrent CGO connections can
// hang under CI resource pressure, so each test holds it until cleanup.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates a migrated in-memory DuckDB database.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{
		Driver:      config.DriverDuckDB,
		Path:        ":memory:",
		MaxMemory:   "512MB",
		Threads:     1,
		AutoMigrate: true,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		db, err := New(cfg)
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() { closeWithLog(res.db, "test database") })
		return res.db
	case <-time.After(60 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 60s")
		return nil
	}
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return baseTime.Add(time.Duration(n) * 24 * time.Hour)
}

func insertItems(t *testing.T, db *DB, items ...models.Item) {
	t.Helper()
	for _, item := range items {
		if err := db.InsertItem(context.Background(), item); err != nil {
			t.Fatalf("InsertItem(%d) error = %v", item.ID, err)
		}
	}
}

func itemIDs(items []models.Item) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestNew_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := New(&config.DatabaseConfig{Driver: "sqlite"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestGetItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItems(t, db, models.Item{
		ID: 1, Title: "Sky Racer", Slug: "sky-racer",
		Tags: []string{" Racing ", "3D", "racing"}, Categories: []int64{3, 1, 3},
		PlayCount: 7, Featured: true, Published: true, CreatedAt: day(0),
	})

	got, err := db.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got.Title != "Sky Racer" || got.PlayCount != 7 || !got.Featured || !got.Published {
		t.Errorf("GetItem() = %+v", got)
	}
	if !got.CreatedAt.Equal(day(0)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, day(0))
	}
	if want := []string{"racing", "3d"}; !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %v, want %v", got.Tags, want)
	}
	if want := []int64{1, 3}; !reflect.DeepEqual(got.Categories, want) {
		t.Errorf("Categories = %v, want %v", got.Categories, want)
	}

	_, err = db.GetItem(ctx, 404)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetItem(404) error = %v, want ErrNotFound", err)
	}
}

func TestListCandidates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItems(t, db,
		models.Item{ID: 1, Title: "src", Slug: "src", Tags: []string{"puzzle"}, Categories: []int64{2}, Published: true, CreatedAt: day(0)},
		models.Item{ID: 2, Title: "old", Slug: "old", Tags: []string{"puzzle"}, Published: true, CreatedAt: day(1)},
		models.Item{ID: 3, Title: "new", Slug: "new", Tags: []string{"cards"}, Categories: []int64{2}, Published: true, CreatedAt: day(5)},
		models.Item{ID: 4, Title: "feat", Slug: "feat", Tags: []string{"Puzzle"}, Featured: true, Published: true, CreatedAt: day(2)},
		models.Item{ID: 5, Title: "draft", Slug: "draft", Tags: []string{"puzzle"}, Published: false, CreatedAt: day(9)},
		models.Item{ID: 6, Title: "other", Slug: "other", Tags: []string{"racing"}, Categories: []int64{3}, Published: true, CreatedAt: day(9)},
		models.Item{ID: 7, Title: "tie", Slug: "tie", Tags: []string{"puzzle"}, Published: true, CreatedAt: day(1)},
	)

	tests := []struct {
		name  string
		query store.CandidateQuery
		want  []int64
	}{
		{
			name:  "tags or categories, featured then recency then id",
			query: store.CandidateQuery{Tags: []string{"puzzle"}, Categories: []int64{2}, ExcludeID: 1},
			want:  []int64{4, 3, 7, 2},
		},
		{
			name:  "tags only, case-insensitive",
			query: store.CandidateQuery{Tags: []string{"PUZZLE"}, ExcludeID: 1},
			want:  []int64{4, 7, 2},
		},
		{
			name:  "categories only",
			query: store.CandidateQuery{Categories: []int64{2, 3}, ExcludeID: 1},
			want:  []int64{6, 3},
		},
		{
			name:  "limit",
			query: store.CandidateQuery{Tags: []string{"puzzle"}, Categories: []int64{2}, ExcludeID: 1, Limit: 2},
			want:  []int64{4, 3},
		},
		{
			name:  "empty query",
			query: store.CandidateQuery{ExcludeID: 1},
			want:  []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListCandidates(ctx, tt.query)
			if err != nil {
				t.Fatalf("ListCandidates() error = %v", err)
			}
			if ids := itemIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("ListCandidates() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestPopularAndItemsByIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItems(t, db,
		models.Item{ID: 1, Title: "a", Slug: "a", PlayCount: 50, Published: true, CreatedAt: day(0)},
		models.Item{ID: 2, Title: "b", Slug: "b", PlayCount: 10, Featured: true, Published: true, CreatedAt: day(0)},
		models.Item{ID: 3, Title: "c", Slug: "c", PlayCount: 50, Published: true, CreatedAt: day(3)},
		models.Item{ID: 4, Title: "d", Slug: "d", PlayCount: 999, Published: false, CreatedAt: day(3)},
	)

	popular, err := db.PopularItems(ctx, 0)
	if err != nil {
		t.Fatalf("PopularItems() error = %v", err)
	}
	if ids := itemIDs(popular); !reflect.DeepEqual(ids, []int64{2, 3, 1}) {
		t.Errorf("PopularItems() = %v, want [2 3 1]", ids)
	}

	limited, err := db.PopularItems(ctx, 1)
	if err != nil {
		t.Fatalf("PopularItems(1) error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("PopularItems(1) returned %d items", len(limited))
	}

	byID, err := db.ItemsByIDs(ctx, []int64{4, 1, 77})
	if err != nil {
		t.Fatalf("ItemsByIDs() error = %v", err)
	}
	if len(byID) != 2 {
		t.Errorf("ItemsByIDs() returned %d items, want 2 (unpublished included, missing skipped)", len(byID))
	}

	empty, err := db.ItemsByIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ItemsByIDs(nil) = %v, %v", empty, err)
	}
}

func TestVotes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, found, err := db.FindVote(ctx, 1, 10); err != nil || found {
		t.Fatalf("FindVote() on empty table = found %v, err %v", found, err)
	}

	if err := db.CreateVote(ctx, models.Vote{UserID: 1, ItemID: 10, Approve: true, CreatedAt: day(0), UpdatedAt: day(0)}); err != nil {
		t.Fatalf("CreateVote() error = %v", err)
	}
	if err := db.CreateVote(ctx, models.Vote{UserID: 2, ItemID: 10, Approve: false, CreatedAt: day(0), UpdatedAt: day(0)}); err != nil {
		t.Fatalf("CreateVote() error = %v", err)
	}

	// A duplicate insert overwrites the existing row.
	if err := db.CreateVote(ctx, models.Vote{UserID: 2, ItemID: 10, Approve: true, CreatedAt: day(1), UpdatedAt: day(1)}); err != nil {
		t.Fatalf("duplicate CreateVote() error = %v", err)
	}
	v, found, err := db.FindVote(ctx, 2, 10)
	if err != nil || !found {
		t.Fatalf("FindVote() = found %v, err %v", found, err)
	}
	if !v.Approve || !v.UpdatedAt.Equal(day(1)) || !v.CreatedAt.Equal(day(0)) {
		t.Errorf("vote after duplicate insert = %+v", v)
	}

	tally, err := db.TallyVotes(ctx, 10)
	if err != nil {
		t.Fatalf("TallyVotes() error = %v", err)
	}
	if tally.Approve != 2 || tally.Total != 2 {
		t.Errorf("TallyVotes() = %+v, want 2/2", tally)
	}

	if err := db.UpdateVote(ctx, 1, 10, false, day(2)); err != nil {
		t.Fatalf("UpdateVote() error = %v", err)
	}
	if err := db.UpdateVote(ctx, 9, 10, true, day(2)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateVote() on missing vote error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteVote(ctx, 2, 10); err != nil {
		t.Fatalf("DeleteVote() error = %v", err)
	}
	if err := db.DeleteVote(ctx, 2, 10); err != nil {
		t.Errorf("second DeleteVote() error = %v, want nil", err)
	}

	tally, err = db.TallyVotes(ctx, 10)
	if err != nil {
		t.Fatalf("TallyVotes() error = %v", err)
	}
	if tally.Approve != 0 || tally.Total != 1 {
		t.Errorf("TallyVotes() = %+v, want 0/1", tally)
	}

	empty, err := db.TallyVotes(ctx, 99)
	if err != nil || empty.Total != 0 || empty.Approve != 0 {
		t.Errorf("TallyVotes(99) = %+v, %v", empty, err)
	}
}

func TestSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	insertItems(t, db,
		models.Item{ID: 1, Title: "a", Slug: "a", Published: true, CreatedAt: day(0)},
		models.Item{ID: 2, Title: "b", Slug: "b", Published: true, CreatedAt: day(0)},
	)

	s1, err := db.StartSession(ctx, 7, 1, day(1))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	s2, err := db.StartSession(ctx, 7, 2, day(2))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if s1.ID == s2.ID || s1.ID <= 0 {
		t.Errorf("session ids = %d, %d, want distinct positive", s1.ID, s2.ID)
	}

	item, err := db.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if item.PlayCount != 1 {
		t.Errorf("PlayCount = %d, want 1", item.PlayCount)
	}

	if _, err := db.StartSession(ctx, 7, 404, day(1)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("StartSession() on missing item error = %v, want ErrNotFound", err)
	}

	recent, err := db.RecentSessions(ctx, 7, 10)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(recent) != 2 || recent[0].ID != s2.ID {
		t.Errorf("RecentSessions() = %+v, want newest first", recent)
	}

	// Ending before the start is clamped, and a second end keeps the first.
	ended, err := db.EndSession(ctx, s1.ID, day(0))
	if err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if ended.EndedAt == nil || !ended.EndedAt.Equal(day(1)) {
		t.Errorf("EndedAt = %v, want clamped to %v", ended.EndedAt, day(1))
	}
	again, err := db.EndSession(ctx, s1.ID, day(5))
	if err != nil {
		t.Fatalf("second EndSession() error = %v", err)
	}
	if !again.EndedAt.Equal(day(1)) {
		t.Errorf("second EndSession() EndedAt = %v, want %v", again.EndedAt, day(1))
	}

	if _, err := db.EndSession(ctx, 9999, day(1)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("EndSession() on missing session error = %v, want ErrNotFound", err)
	}

	active, err := db.ActiveSessions(ctx, []int64{1, 2}, day(2))
	if err != nil {
		t.Fatalf("ActiveSessions() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != s2.ID {
		t.Errorf("ActiveSessions() = %+v, want only the open session", active)
	}

	active, err = db.ActiveSessions(ctx, []int64{1}, day(1))
	if err != nil {
		t.Fatalf("ActiveSessions() error = %v", err)
	}
	if len(active) != 1 {
		t.Errorf("ActiveSessions() with end on the boundary = %d sessions, want 1", len(active))
	}
}

func TestSeedDemoData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n, err := db.SeedDemoData(ctx, baseTime)
	if err != nil {
		t.Fatalf("SeedDemoData() error = %v", err)
	}
	if want := len(store.DemoCatalog(baseTime)); n != want {
		t.Errorf("SeedDemoData() inserted %d, want %d", n, want)
	}

	n, err = db.SeedDemoData(ctx, baseTime)
	if err != nil || n != 0 {
		t.Errorf("second SeedDemoData() = %d, %v, want 0, nil", n, err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

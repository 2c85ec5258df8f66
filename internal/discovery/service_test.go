// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

var outage = models.Unavailable("test", errors.New("connection refused"))

func newTestService(t *testing.T, opts Options) (*Service, *store.MemoryStore) {
	t.Helper()
	m := store.NewMemoryStore()
	m.PutItem(models.Item{ID: 1, Title: "Gravity Blocks", Tags: []string{"puzzle", "physics"}, Published: true})
	m.PutItem(models.Item{ID: 2, Title: "Tile Twist", Tags: []string{"puzzle"}, Published: true})
	m.PutItem(models.Item{ID: 3, Title: "Drift King", Tags: []string{"racing"}, Published: true})
	m.PutVote(models.Vote{UserID: 10, ItemID: 1, Approve: true})
	m.PutVote(models.Vote{UserID: 11, ItemID: 1, Approve: false})
	m.PutVote(models.Vote{UserID: 12, ItemID: 1, Approve: true})
	m.PutSession(models.Session{UserID: 10, ItemID: 1, StartedAt: time.Now()})

	c := cache.New(cache.Config{Name: "discovery-test", SingleFlight: true})
	svc, err := Assemble(m, c, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	return svc, m
}

func TestItemDetail(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()

	detail, degraded, err := svc.ItemDetail(ctx, 1)
	if err != nil || degraded {
		t.Fatalf("ItemDetail() = degraded %v, error %v", degraded, err)
	}
	if detail.Title != "Gravity Blocks" {
		t.Errorf("Title = %q", detail.Title)
	}
	want := models.RatingSummary{ApproveCount: 2, DisapproveCount: 1, Percentage: 67, TotalVotes: 3}
	if detail.RatingSummary != want {
		t.Errorf("RatingSummary = %+v, want %+v", detail.RatingSummary, want)
	}
	if detail.ActiveCount != 1 {
		t.Errorf("ActiveCount = %d, want 1", detail.ActiveCount)
	}

	calls := m.TotalCalls()
	if _, _, err := svc.ItemDetail(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if m.TotalCalls() != calls {
		t.Error("second detail read should be served from cache")
	}
}

func TestItemDetail_Errors(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()

	if _, _, err := svc.ItemDetail(ctx, 404); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing item error = %v, want ErrNotFound", err)
	}
	if _, _, err := svc.ItemDetail(ctx, 0); !errors.Is(err, models.ErrInvalidArgument) {
		t.Errorf("zero id error = %v, want ErrInvalidArgument", err)
	}

	m.FailWith(store.OpGetItem, outage)
	if _, _, err := svc.ItemDetail(ctx, 2); !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("unreadable item error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestItemDetail_DegradedIsNotCached(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.DegradedResponses.WithLabelValues("item_detail"))

	m.FailWith(store.OpTallyVotes, outage)
	detail, degraded, err := svc.ItemDetail(ctx, 1)
	if err != nil || !degraded {
		t.Fatalf("ItemDetail() = degraded %v, error %v; want degraded", degraded, err)
	}
	if detail.TotalVotes != 0 || detail.Percentage != 0 || detail.Title != "Gravity Blocks" {
		t.Errorf("degraded detail = %+v", detail)
	}
	if detail.ActiveCount != 1 {
		t.Errorf("presence should still be attached, got %d", detail.ActiveCount)
	}
	if got := testutil.ToFloat64(metrics.DegradedResponses.WithLabelValues("item_detail")) - before; got < 1 {
		t.Error("degraded response was not counted")
	}

	m.FailWith(store.OpTallyVotes, nil)
	detail, degraded, _ = svc.ItemDetail(ctx, 1)
	if degraded || detail.TotalVotes != 3 {
		t.Errorf("after recovery detail = %+v degraded %v", detail.RatingSummary, degraded)
	}
}

func TestSimilar(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()

	items, degraded, err := svc.Similar(ctx, 1, 0)
	if err != nil || degraded || len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("Similar() = %v, %v, %v", items, degraded, err)
	}

	if _, _, err := svc.Similar(ctx, 404, 0); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing source error = %v, want ErrNotFound", err)
	}

	m.FailWith(store.OpListCandidates, outage)
	items, degraded, err = svc.Similar(ctx, 3, 0)
	if err != nil || !degraded || items == nil || len(items) != 0 {
		t.Errorf("outage Similar() = %v, %v, %v; want empty degraded", items, degraded, err)
	}
}

func TestSimilar_CancelledContextIsNotDegraded(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, degraded, err := svc.Similar(ctx, 1, 0)
	if !errors.Is(err, context.Canceled) || degraded {
		t.Errorf("Similar() = degraded %v, error %v; want context.Canceled", degraded, err)
	}
}

func TestRecommend_Degraded(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()

	recs, degraded, err := svc.Recommend(ctx, 0, 2)
	if err != nil || degraded || len(recs.Items) != 2 {
		t.Fatalf("Recommend() = %+v, %v, %v", recs, degraded, err)
	}

	m.FailWith(store.OpRecentSessions, outage)
	recs, degraded, err = svc.Recommend(ctx, 10, 2)
	if err != nil || !degraded {
		t.Fatalf("Recommend() = degraded %v, error %v", degraded, err)
	}
	if recs.Items == nil || len(recs.Items) != 0 || recs.SeedTags == nil || recs.SeedCategories == nil {
		t.Errorf("degraded recommendations = %+v, want empty non-nil fields", recs)
	}
}

func TestPartialAggregatesAreDegradedAndNotCached(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()
	beforeSimilar := testutil.ToFloat64(metrics.DegradedResponses.WithLabelValues("similar"))
	beforeRecommend := testutil.ToFloat64(metrics.DegradedResponses.WithLabelValues("recommend"))

	m.FailWith(store.OpTallyVotes, outage)
	items, degraded, err := svc.Similar(ctx, 2, 0)
	if err != nil || !degraded || len(items) != 1 || items[0].ApproveCount != 0 {
		t.Fatalf("partial Similar() = %+v, %v, %v; want item 1 zeroed and degraded", items, degraded, err)
	}
	recs, degraded, err := svc.Recommend(ctx, 0, 3)
	if err != nil || !degraded || len(recs.Items) != 3 {
		t.Fatalf("partial Recommend() = %+v, %v, %v; want three degraded items", recs, degraded, err)
	}
	if got := testutil.ToFloat64(metrics.DegradedResponses.WithLabelValues("similar")) - beforeSimilar; got < 1 {
		t.Error("partial similar response was not counted as degraded")
	}
	if got := testutil.ToFloat64(metrics.DegradedResponses.WithLabelValues("recommend")) - beforeRecommend; got < 1 {
		t.Error("partial recommend response was not counted as degraded")
	}

	m.FailWith(store.OpTallyVotes, nil)
	items, degraded, err = svc.Similar(ctx, 2, 0)
	if err != nil || degraded || items[0].ApproveCount != 2 {
		t.Errorf("Similar() after recovery = %+v, %v, %v; want fresh approvals", items, degraded, err)
	}
	recs, degraded, err = svc.Recommend(ctx, 0, 3)
	if err != nil || degraded {
		t.Fatalf("Recommend() after recovery = degraded %v, error %v", degraded, err)
	}
	for _, it := range recs.Items {
		if it.ID == 1 && it.ApproveCount != 2 {
			t.Errorf("recommended item 1 = %+v, want fresh approvals", it)
		}
	}
}

func TestCastVote_Invalidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		invalidate bool
		wantTotal  int64
	}{
		{"stale until expiry by default", false, 3},
		{"invalidated on vote", true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultOptions()
			opts.Service.InvalidateOnVote = tt.invalidate
			svc, _ := newTestService(t, opts)
			ctx := context.Background()

			if _, _, err := svc.ItemDetail(ctx, 1); err != nil {
				t.Fatal(err)
			}
			result, err := svc.CastVote(ctx, 20, 1, true)
			if err != nil {
				t.Fatalf("CastVote() error = %v", err)
			}
			if result.TotalVotes != 4 || result.EffectiveVote != models.EffectiveVoteApprove {
				t.Errorf("CastVote() = %+v", result)
			}

			detail, _, _ := svc.ItemDetail(ctx, 1)
			if detail.TotalVotes != tt.wantTotal {
				t.Errorf("detail TotalVotes = %d, want %d", detail.TotalVotes, tt.wantTotal)
			}
		})
	}
}

func TestCastVote_Errors(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())
	ctx := context.Background()

	if _, err := svc.CastVote(ctx, 0, 1, true); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("anonymous vote error = %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.CastVote(ctx, 5, 404, true); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("vote on missing item error = %v, want ErrNotFound", err)
	}

	m.FailWith(store.OpCreateVote, outage)
	if _, err := svc.CastVote(ctx, 5, 1, true); !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Errorf("vote during outage error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestSessions(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, DefaultOptions())
	ctx := context.Background()

	if _, err := svc.StartSession(ctx, 0, 1); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("anonymous start error = %v", err)
	}
	if _, err := svc.StartSession(ctx, 5, 404); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("start on missing item error = %v", err)
	}

	s, err := svc.StartSession(ctx, 5, 2)
	if err != nil || s.ID == 0 || !s.Open() {
		t.Fatalf("StartSession() = %+v, %v", s, err)
	}
	ended, err := svc.EndSession(ctx, s.ID)
	if err != nil || ended.Open() {
		t.Fatalf("EndSession() = %+v, %v", ended, err)
	}
	again, _ := svc.EndSession(ctx, s.ID)
	if !again.EndedAt.Equal(*ended.EndedAt) {
		t.Error("second end should keep the first end time")
	}
	if _, err := svc.EndSession(ctx, 9999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("end of missing session error = %v", err)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()
	svc, m := newTestService(t, DefaultOptions())

	if err := svc.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
	m.FailWith(store.OpPing, outage)
	if err := svc.Ready(context.Background()); err == nil {
		t.Error("Ready() should fail when the store does not answer")
	}
}

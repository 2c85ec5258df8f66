// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/discovery"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type testServer struct {
	handler http.Handler
	store   *store.MemoryStore
}

func newTestServer(t *testing.T, cfg *ChiMiddlewareConfig) *testServer {
	t.Helper()

	m := store.NewMemoryStore()
	now := time.Now()
	m.PutItem(models.Item{ID: 1, Title: "Gravity Blocks", Slug: "gravity-blocks", Tags: []string{"puzzle", "physics"}, Categories: []int64{2}, Published: true, CreatedAt: now.Add(-72 * time.Hour)})
	m.PutItem(models.Item{ID: 2, Title: "Tile Twist", Slug: "tile-twist", Tags: []string{"puzzle"}, Published: true, CreatedAt: now.Add(-48 * time.Hour)})
	m.PutItem(models.Item{ID: 3, Title: "Drift King", Slug: "drift-king", Tags: []string{"racing"}, PlayCount: 90, Published: true, CreatedAt: now.Add(-24 * time.Hour)})
	m.PutVote(models.Vote{UserID: 10, ItemID: 1, Approve: true})
	m.PutVote(models.Vote{UserID: 11, ItemID: 1, Approve: false})

	c := cache.New(cache.Config{Name: "api-test", SingleFlight: true})
	svc, err := discovery.Assemble(m, c, discovery.DefaultOptions(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
	}
	return &testServer{handler: NewRouter(svc, cfg).SetupChi(), store: m}
}

func (s *testServer) do(t *testing.T, method, path, user, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestItemDetailHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "found", path: "/api/v1/items/1", wantStatus: http.StatusOK},
		{name: "missing item", path: "/api/v1/items/404", wantStatus: http.StatusNotFound, wantCode: ErrCodeNotFound},
		{name: "non-numeric id", path: "/api/v1/items/abc", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "zero id", path: "/api/v1/items/0", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
	}

	srv := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := srv.do(t, http.MethodGet, tt.path, "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error envelope = %+v, want code %s", env.Error, tt.wantCode)
				}
				return
			}

			var detail models.ItemDetail
			if err := json.Unmarshal(env.Data, &detail); err != nil {
				t.Fatalf("decode detail: %v", err)
			}
			if env.Status != "success" || env.Metadata.Degraded {
				t.Errorf("envelope = %+v", env)
			}
			if detail.ApproveCount != 1 || detail.TotalVotes != 2 || detail.Percentage != 50 {
				t.Errorf("rating = %+v, want 1 of 2 (50%%)", detail.RatingSummary)
			}
		})
	}
}

func TestItemDetailHandler_Degraded(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.store.FailWith(store.OpTallyVotes, store.ErrInjected)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/items/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Metadata.Degraded {
		t.Error("expected metadata.degraded = true")
	}

	var detail models.ItemDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Title != "Gravity Blocks" || detail.TotalVotes != 0 {
		t.Errorf("degraded detail = %+v, want item with zeroed rating", detail)
	}

	// The item itself unreadable is a 503, not a degraded body.
	srv.store.FailWith(store.OpGetItem, store.ErrInjected)
	rec, _ = srv.do(t, http.MethodGet, "/api/v1/items/2", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status with item unreadable = %d, want 503", rec.Code)
	}
}

func TestSimilarHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/items/1/similar?limit=5", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var items []models.ScoredItem
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("similar = %+v, want only item 2", items)
	}

	rec, _ = srv.do(t, http.MethodGet, "/api/v1/items/1/similar?limit=ten", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for bad limit = %d, want 400", rec.Code)
	}
	rec, _ = srv.do(t, http.MethodGet, "/api/v1/items/1/similar?limit=-1", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for negative limit = %d, want 400", rec.Code)
	}
}

func TestSimilarHandler_DegradedIsEmptyList(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.store.FailWith(store.OpListCandidates, store.ErrInjected)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/items/1/similar", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Metadata.Degraded || string(env.Data) != "[]" {
		t.Errorf("degraded = %v, data = %s, want true and []", env.Metadata.Degraded, env.Data)
	}
}

func TestSimilarHandler_PartialAggregatesAreDegraded(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.store.FailWith(store.OpTallyVotes, store.ErrInjected)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/items/2/similar", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var items []models.ScoredItem
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatal(err)
	}
	if !env.Metadata.Degraded || len(items) != 1 || items[0].TotalVotes != 0 {
		t.Errorf("degraded = %v, items = %+v; want item 1 with zeroed votes", env.Metadata.Degraded, items)
	}

	srv.store.FailWith(store.OpTallyVotes, nil)
	_, env = srv.do(t, http.MethodGet, "/api/v1/items/2/similar", "", "")
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatal(err)
	}
	if env.Metadata.Degraded || items[0].TotalVotes != 2 {
		t.Errorf("after recovery degraded = %v, items = %+v; want fresh votes", env.Metadata.Degraded, items)
	}
}

// deadlineDiscovery records whether each engine call carried a deadline.
type deadlineDiscovery struct {
	Discovery
	remaining chan time.Duration
}

func (d *deadlineDiscovery) record(ctx context.Context) {
	dl, ok := ctx.Deadline()
	if !ok {
		d.remaining <- 0
		return
	}
	d.remaining <- time.Until(dl)
}

func (d *deadlineDiscovery) ItemDetail(ctx context.Context, _ int64) (models.ItemDetail, bool, error) {
	d.record(ctx)
	return models.ItemDetail{}, false, nil
}

func (d *deadlineDiscovery) Similar(ctx context.Context, _ int64, _ int) ([]models.ScoredItem, bool, error) {
	d.record(ctx)
	return []models.ScoredItem{}, false, nil
}

func (d *deadlineDiscovery) Recommend(ctx context.Context, _ int64, _ int) (models.Recommendations, bool, error) {
	d.record(ctx)
	return models.Recommendations{}, false, nil
}

func (d *deadlineDiscovery) CastVote(ctx context.Context, _, _ int64, _ bool) (models.VoteResult, error) {
	d.record(ctx)
	return models.VoteResult{}, nil
}

func (d *deadlineDiscovery) StartSession(ctx context.Context, _, _ int64) (models.Session, error) {
	d.record(ctx)
	return models.Session{}, nil
}

func (d *deadlineDiscovery) EndSession(ctx context.Context, _ int64) (models.Session, error) {
	d.record(ctx)
	return models.Session{}, nil
}

func TestHandlers_BoundEngineCallsWithTimeout(t *testing.T) {
	t.Parallel()
	svc := &deadlineDiscovery{remaining: make(chan time.Duration, 1)}
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	handler := NewRouter(svc, cfg).SetupChi()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"item detail", http.MethodGet, "/api/v1/items/1", ""},
		{"similar", http.MethodGet, "/api/v1/items/1/similar", ""},
		{"recommendations", http.MethodGet, "/api/v1/recommendations", ""},
		{"vote", http.MethodPost, "/api/v1/items/1/vote", `{"approve":true}`},
		{"start session", http.MethodPost, "/api/v1/items/1/sessions", ""},
		{"end session", http.MethodPost, "/api/v1/sessions/1/end", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("X-User-ID", "5")
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			select {
			case remaining := <-svc.remaining:
				if remaining <= 0 || remaining > requestTimeout {
					t.Errorf("engine call deadline in %v, want within %v", remaining, requestTimeout)
				}
			default:
				t.Fatalf("engine was not called, status %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRecommendationsHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.store.PutSession(models.Session{UserID: 42, ItemID: 1, StartedAt: time.Now().Add(-time.Hour)})

	tests := []struct {
		name             string
		user             string
		wantPersonalized bool
		wantFirst        int64
	}{
		{name: "anonymous gets popular", user: "", wantPersonalized: false, wantFirst: 3},
		{name: "malformed header is anonymous", user: "nope", wantPersonalized: false, wantFirst: 3},
		{name: "history seeds personalization", user: "42", wantPersonalized: true, wantFirst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := srv.do(t, http.MethodGet, "/api/v1/recommendations", tt.user, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var recs models.Recommendations
			if err := json.Unmarshal(env.Data, &recs); err != nil {
				t.Fatal(err)
			}
			if recs.Personalized != tt.wantPersonalized {
				t.Errorf("Personalized = %v, want %v", recs.Personalized, tt.wantPersonalized)
			}
			if len(recs.Items) == 0 || recs.Items[0].ID != tt.wantFirst {
				t.Errorf("items = %+v, want first id %d", recs.Items, tt.wantFirst)
			}
		})
	}
}

func TestRecommendationsHandler_Degraded(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.store.FailWith("", store.ErrInjected)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/recommendations", "7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Metadata.Degraded {
		t.Error("expected degraded response")
	}
}

func TestVoteHandler(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		path       string
		user       string
		body       string
		wantStatus int
		wantVote   models.EffectiveVote
		wantTotal  int64
	}{
		{name: "no identity", path: "/api/v1/items/2/vote", body: `{"approve":true}`, wantStatus: http.StatusUnauthorized},
		{name: "missing approve", path: "/api/v1/items/2/vote", user: "5", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "empty body", path: "/api/v1/items/2/vote", user: "5", wantStatus: http.StatusBadRequest},
		{name: "not json", path: "/api/v1/items/2/vote", user: "5", body: `approve`, wantStatus: http.StatusBadRequest},
		{name: "unknown item", path: "/api/v1/items/404/vote", user: "5", body: `{"approve":true}`, wantStatus: http.StatusNotFound},
		{name: "first approve", path: "/api/v1/items/2/vote", user: "5", body: `{"approve":true}`, wantStatus: http.StatusOK, wantVote: models.EffectiveVoteApprove, wantTotal: 1},
		{name: "flip", path: "/api/v1/items/2/vote", user: "5", body: `{"approve":false}`, wantStatus: http.StatusOK, wantVote: models.EffectiveVoteDisapprove, wantTotal: 1},
		{name: "repeat retracts", path: "/api/v1/items/2/vote", user: "5", body: `{"approve":false}`, wantStatus: http.StatusOK, wantVote: models.EffectiveVoteNone, wantTotal: 0},
	}

	// Subtests run in order; the last three build on each other.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := srv.do(t, http.MethodPost, tt.path, tt.user, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var result models.VoteResult
			if err := json.Unmarshal(env.Data, &result); err != nil {
				t.Fatal(err)
			}
			if result.EffectiveVote != tt.wantVote || result.TotalVotes != tt.wantTotal {
				t.Errorf("result = %+v, want %s with %d votes", result, tt.wantVote, tt.wantTotal)
			}
		})
	}
}

func TestVoteHandler_StoreFailureIs503(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)
	srv.store.FailWith(store.OpFindVote, store.ErrInjected)

	rec, env := srv.do(t, http.MethodPost, "/api/v1/items/2/vote", "5", `{"approve":true}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestSessionHandlers(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	rec, _ := srv.do(t, http.MethodPost, "/api/v1/items/2/sessions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous start status = %d, want 401", rec.Code)
	}

	rec, env := srv.do(t, http.MethodPost, "/api/v1/items/2/sessions", "8", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var session models.Session
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatal(err)
	}
	if session.ID <= 0 || session.ItemID != 2 || session.EndedAt != nil {
		t.Errorf("started session = %+v", session)
	}

	rec, env = srv.do(t, http.MethodPost, "/api/v1/sessions/"+itoa(session.ID)+"/end", "8", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d: %s", rec.Code, rec.Body.String())
	}
	var ended models.Session
	if err := json.Unmarshal(env.Data, &ended); err != nil {
		t.Fatal(err)
	}
	if ended.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}

	rec, _ = srv.do(t, http.MethodPost, "/api/v1/sessions/9999/end", "8", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("end missing session status = %d, want 404", rec.Code)
	}
}

func TestHealthHandlers(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil)

	if rec, _ := srv.do(t, http.MethodGet, "/api/v1/health/live", "", ""); rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
	if rec, _ := srv.do(t, http.MethodGet, "/api/v1/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	srv.store.FailWith(store.OpPing, store.ErrInjected)
	if rec, _ := srv.do(t, http.MethodGet, "/api/v1/health/ready", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status with failing store = %d, want 503", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

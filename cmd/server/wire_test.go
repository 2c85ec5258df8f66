// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package main

import (
	"context"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/config"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/discovery"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:       config.DriverMemory,
			SeedDemoData: true,
			QueryTimeout: time.Second,
		},
		Cache: config.CacheConfig{
			Enabled:       true,
			MaxEntries:    100,
			SweepInterval: time.Minute,
			DetailTTL:     time.Minute,
			SimilarTTL:    time.Minute,
			RecommendTTL:  time.Minute,
			PresenceTTL:   time.Minute,
		},
		Discovery: config.DiscoveryConfig{
			PresenceWindow:        5 * time.Minute,
			SimilarDefaultLimit:   4,
			SimilarMaxLimit:       10,
			RecommendDefaultLimit: 6,
			RecommendMaxLimit:     20,
			CandidatePrefetch:     50,
			SeedSessions:          10,
			SeedMaxTags:           5,
			SeedMaxCategories:     3,
			EnrichConcurrency:     2,
		},
		Breaker: config.BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Timeout:          time.Second,
			FailureThreshold: 3,
		},
		Security: config.SecurityConfig{
			UserHeader:      "X-Player-ID",
			CORSOrigins:     []string{"https://games.example"},
			RateLimitReqs:   50,
			RateLimitWindow: 30 * time.Second,
			VoteRateLimit:   5,
		},
	}
}

func TestOpenStore_MemoryWithBreaker(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	st, err := openStore(context.Background(), cfg, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer st.Close()

	if _, ok := st.(*store.Resilient); !ok {
		t.Errorf("openStore() = %T, want *store.Resilient", st)
	}
	items, err := st.PopularItems(context.Background(), 100)
	if err != nil {
		t.Fatalf("PopularItems() error = %v", err)
	}
	if len(items) == 0 {
		t.Error("expected the demo catalog to be seeded")
	}
}

func TestOpenStore_BreakerDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Breaker.Enabled = false
	cfg.Database.SeedDemoData = false

	st, err := openStore(context.Background(), cfg, time.Now())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	r, ok := st.(*store.Resilient)
	if !ok {
		t.Fatalf("openStore() = %T, want *store.Resilient so the query timeout still applies", st)
	}
	if r.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", r.State())
	}
}

func TestResilientConfig_BreakerToggle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		enabled     bool
		wantDisable bool
	}{
		{"enabled", true, false},
		{"disabled", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Breaker.Enabled = tt.enabled
			cfg.Database.QueryTimeout = 750 * time.Millisecond

			rc := resilientConfig(cfg)
			if rc.DisableBreaker != tt.wantDisable {
				t.Errorf("DisableBreaker = %v, want %v", rc.DisableBreaker, tt.wantDisable)
			}
			if rc.QueryTimeout != 750*time.Millisecond {
				t.Errorf("QueryTimeout = %v, want 750ms regardless of the breaker", rc.QueryTimeout)
			}
		})
	}
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Database.Driver = "sqlite"
	if _, err := openStore(context.Background(), cfg, time.Now()); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestBuildCache(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	c := buildCache(&cfg.Cache)
	if _, ok := c.(*cache.Cache); !ok {
		t.Fatalf("buildCache() = %T, want *cache.Cache", c)
	}
	if sweeperFor(c) == nil {
		t.Error("expected the TTL cache to be swept")
	}

	cfg.Cache.Enabled = false
	c = buildCache(&cfg.Cache)
	if _, ok := c.(*cache.NoopCache); !ok {
		t.Fatalf("buildCache() = %T, want *cache.NoopCache", c)
	}
	if sweeperFor(c) != nil {
		t.Error("the no-op cache needs no sweeper")
	}
}

func TestDiscoveryOptions(t *testing.T) {
	t.Parallel()

	opts := discoveryOptions(testConfig())

	if opts.Similarity.DefaultLimit != 4 || opts.Similarity.MaxLimit != 10 || opts.Similarity.Prefetch != 50 {
		t.Errorf("similarity options = %+v", opts.Similarity)
	}
	if opts.Recommend.DefaultLimit != 6 || opts.Recommend.MaxSeedTags != 5 || opts.Recommend.CacheTTL != time.Minute {
		t.Errorf("recommend options = %+v", opts.Recommend)
	}
	if opts.Presence.Window != 5*time.Minute || opts.Presence.CacheTTL != time.Minute {
		t.Errorf("presence options = %+v", opts.Presence)
	}
	if opts.EnrichConcurrency != 2 {
		t.Errorf("EnrichConcurrency = %d, want 2", opts.EnrichConcurrency)
	}

	st := store.NewMemoryStore()
	if _, err := discovery.Assemble(st, cache.NewNoop(), opts, logging.NewNopLogger()); err != nil {
		t.Errorf("Assemble() with mapped options error = %v", err)
	}
}

func TestMiddlewareConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	mw := middlewareConfig(&cfg.Security)

	if mw.UserHeader != "X-Player-ID" {
		t.Errorf("UserHeader = %q", mw.UserHeader)
	}
	if mw.RateLimitRequests != 50 || mw.RateLimitWindow != 30*time.Second || mw.VoteRateLimit != 5 {
		t.Errorf("rate limits = %d/%v vote %d", mw.RateLimitRequests, mw.RateLimitWindow, mw.VoteRateLimit)
	}
	found := false
	for _, h := range mw.CORSAllowedHeaders {
		if h == "X-Player-ID" {
			found = true
		}
	}
	if !found {
		t.Errorf("CORSAllowedHeaders = %v, want the user header included", mw.CORSAllowedHeaders)
	}
}

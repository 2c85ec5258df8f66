// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/api"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/config"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/database"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/discovery"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/presence"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/recommend"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/similarity"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/supervisor/services"
)

// openStore opens the configured backend and seeds it when asked. Every
// backend is wrapped in store.Resilient; the breaker part of it is skipped
// when disabled.
func openStore(ctx context.Context, cfg *config.Config, now time.Time) (store.Store, error) {
	var st store.Store

	switch cfg.Database.Driver {
	case config.DriverMemory:
		mem := store.NewMemoryStore()
		if cfg.Database.SeedDemoData {
			store.SeedMemory(mem, now)
			logging.Info().Msg("Seeded in-memory store with demo catalog")
		}
		st = mem

	default:
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open signal store: %w", err)
		}
		if cfg.Database.SeedDemoData {
			n, err := db.SeedDemoData(ctx, now)
			if err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to seed demo data: %w", err)
			}
			logging.Info().Int("items", n).Msg("Demo data seeding finished")
		}
		st = db
	}

	// The query timeout and rate limit apply whether or not the breaker is on.
	return store.NewResilient(st, resilientConfig(cfg), logging.Logger()), nil
}

func resilientConfig(cfg *config.Config) store.ResilientConfig {
	rc := store.DefaultResilientConfig()
	rc.Name = "signal-store-" + cfg.Database.Driver
	rc.MaxRequests = cfg.Breaker.MaxRequests
	rc.Interval = cfg.Breaker.Interval
	rc.Timeout = cfg.Breaker.Timeout
	rc.FailureThreshold = cfg.Breaker.FailureThreshold
	rc.QueryTimeout = cfg.Database.QueryTimeout
	rc.MaxQueriesPerSecond = cfg.Database.MaxQueriesPerSecond
	rc.Burst = cfg.Database.Burst
	rc.DisableBreaker = !cfg.Breaker.Enabled
	return rc
}

// buildCache returns the shared cache, or a no-op cache when caching is off.
func buildCache(cfg *config.CacheConfig) cache.Cacher {
	if !cfg.Enabled {
		logging.Info().Msg("Caching disabled, every read is computed")
		return cache.NewNoop()
	}
	return cache.New(cache.Config{
		Name:         "discovery",
		DefaultTTL:   cfg.DetailTTL,
		MaxEntries:   cfg.MaxEntries,
		SingleFlight: cfg.SingleFlight,
	})
}

// sweeperFor returns nil for caches that hold nothing.
func sweeperFor(c cache.Cacher) services.Sweeper {
	if s, ok := c.(services.Sweeper); ok {
		return s
	}
	return nil
}

func discoveryOptions(cfg *config.Config) discovery.Options {
	opts := discovery.DefaultOptions()

	opts.Service = discovery.Config{
		DetailTTL:        cfg.Cache.DetailTTL,
		InvalidateOnVote: cfg.Cache.InvalidateOnVote,
	}
	opts.Presence = presence.Config{
		Window:        cfg.Discovery.PresenceWindow,
		MaxSessionAge: cfg.Discovery.MaxSessionAge,
		CacheTTL:      cfg.Cache.PresenceTTL,
	}
	opts.Similarity = similarity.Config{
		DefaultLimit: cfg.Discovery.SimilarDefaultLimit,
		MaxLimit:     cfg.Discovery.SimilarMaxLimit,
		Prefetch:     cfg.Discovery.CandidatePrefetch,
		CacheTTL:     cfg.Cache.SimilarTTL,
	}
	opts.Recommend = recommend.Config{
		DefaultLimit:      cfg.Discovery.RecommendDefaultLimit,
		MaxLimit:          cfg.Discovery.RecommendMaxLimit,
		SeedSessions:      cfg.Discovery.SeedSessions,
		MaxSeedTags:       cfg.Discovery.SeedMaxTags,
		MaxSeedCategories: cfg.Discovery.SeedMaxCategories,
		CacheTTL:          cfg.Cache.RecommendTTL,
	}
	if cfg.Discovery.EnrichConcurrency > 0 {
		opts.EnrichConcurrency = cfg.Discovery.EnrichConcurrency
	}
	return opts
}

func middlewareConfig(cfg *config.SecurityConfig) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.CORSOrigins
	mw.RateLimitDisabled = cfg.RateLimitDisabled
	if cfg.RateLimitReqs > 0 {
		mw.RateLimitRequests = cfg.RateLimitReqs
	}
	if cfg.RateLimitWindow > 0 {
		mw.RateLimitWindow = cfg.RateLimitWindow
	}
	if cfg.VoteRateLimit > 0 {
		mw.VoteRateLimit = cfg.VoteRateLimit
	}
	if cfg.UserHeader != "" {
		mw.UserHeader = cfg.UserHeader
		mw.CORSAllowedHeaders = append(mw.CORSAllowedHeaders, cfg.UserHeader)
	}
	return mw
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package presence estimates how many distinct users are active on an item
// right now from raw session rows, using a sliding time window.
package presence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// Config controls the presence computation.
type Config struct {
	// Window is the sliding window after a session end. Default: 5m
	Window time.Duration

	// MaxSessionAge expires sessions that were never closed. Zero keeps them
	// active indefinitely, which is the default.
	MaxSessionAge time.Duration

	// CacheTTL is the lifetime of cached batch counts. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultConfig returns the default presence configuration.
func DefaultConfig() Config {
	return Config{
		Window:   DefaultWindow,
		CacheTTL: 3 * time.Minute,
	}
}

// Tracker computes active-user counts.
type Tracker struct {
	sessions store.SessionStore
	cache    cache.Cacher
	cfg      Config
	now      func() time.Time
	logger   zerolog.Logger
}

// NewTracker creates a Tracker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(sessions store.SessionStore, c cache.Cacher, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxSessionAge < 0 {
		cfg.MaxSessionAge = 0
	}
	return &Tracker{
		sessions: sessions,
		cache:    c,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With().Str("component", "presence").Logger(),
	}
}

// ActiveCount returns the distinct active users of one item at asOf.
func (t *Tracker) ActiveCount(ctx context.Context, itemID int64, asOf time.Time) (int, error) {
	counts, err := t.ActiveCounts(ctx, []int64{itemID}, asOf)
	if err != nil {
		return 0, err
	}
	return counts[itemID], nil
}

// ActiveCounts returns the distinct active users of each item at asOf.
// Every requested id is present in the result, with 0 for idle items.
func (t *Tracker) ActiveCounts(ctx context.Context, itemIDs []int64, asOf time.Time) (map[int64]int, error) {
	ids := uniqueSorted(itemIDs)
	if len(ids) == 0 {
		return map[int64]int{}, nil
	}

	sessions, err := t.sessions.ActiveSessions(ctx, ids, WindowStart(asOf, t.cfg.Window))
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	return CountDistinctUsers(sessions, ids, asOf, t.cfg.Window, t.cfg.MaxSessionAge), nil
}

// CurrentCounts is ActiveCounts at the current time, cached per item set so
// that a list view reuses one batch result for the cache lifetime.
func (t *Tracker) CurrentCounts(ctx context.Context, itemIDs []int64) (map[int64]int, error) {
	ids := uniqueSorted(itemIDs)
	if len(ids) == 0 {
		return map[int64]int{}, nil
	}

	key := cache.GenerateKey(cache.KeyPresence, ids)
	counts, err := cache.Load(ctx, t.cache, key, t.cfg.CacheTTL, func(ctx context.Context) (map[int64]int, error) {
		return t.ActiveCounts(ctx, ids, t.now())
	})
	if err != nil {
		return nil, err
	}

	// Cached maps are shared; hand out a copy.
	out := make(map[int64]int, len(counts))
	for id, n := range counts {
		out[id] = n
	}
	return out, nil
}

func uniqueSorted(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

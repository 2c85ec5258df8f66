// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package similarity ranks catalog items that resemble a source item by a
// weighted blend of tag overlap, category overlap and popularity.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// RatingSource supplies approval aggregates for a batch of items.
type RatingSource interface {
	Summaries(ctx context.Context, itemIDs []int64) (map[int64]models.RatingSummary, error)
}

// PresenceSource supplies current active-user counts for a batch of items.
type PresenceSource interface {
	CurrentCounts(ctx context.Context, itemIDs []int64) (map[int64]int, error)
}

// Config controls the scorer.
type Config struct {
	// DefaultLimit applies when the caller passes no limit. Default: 8
	DefaultLimit int

	// MaxLimit caps the caller's limit. Default: 50
	MaxLimit int

	// Prefetch bounds the candidate pool scored per request. Default: 200
	Prefetch int

	// CacheTTL is the lifetime of cached similar lists. Default: 5m
	CacheTTL time.Duration
}

// DefaultConfig returns the default scorer configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 8,
		MaxLimit:     50,
		Prefetch:     200,
		CacheTTL:     5 * time.Minute,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("similarity default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("similarity max limit %d is below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.Prefetch < c.MaxLimit {
		return fmt.Errorf("similarity prefetch %d is below max limit %d", c.Prefetch, c.MaxLimit)
	}
	return nil
}

// Scorer ranks similar items.
type Scorer struct {
	items    store.ItemReader
	ratings  RatingSource
	presence PresenceSource
	cache    cache.Cacher
	cfg      Config
	logger   zerolog.Logger
}

// NewScorer creates a Scorer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScorer(items store.ItemReader, ratings RatingSource, presence PresenceSource, c cache.Cacher, cfg Config, logger zerolog.Logger) *Scorer {
	defaults := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = defaults.Prefetch
	}
	return &Scorer{
		items:    items,
		ratings:  ratings,
		presence: presence,
		cache:    c,
		cfg:      cfg,
		logger:   logger.With().Str("component", "similarity").Logger(),
	}
}

type similarKey struct {
	ItemID int64 `json:"item_id"`
	Limit  int   `json:"limit"`
}

// partialRanking carries a ranked list with zeroed aggregates out of the
// cache loader as an error, so the list is returned but never stored.
type partialRanking struct {
	items []models.ScoredItem
	err   error
}

func (p *partialRanking) Error() string { return p.err.Error() }
func (p *partialRanking) Unwrap() error { return p.err }

// SimilarTo returns up to limit items similar to itemID, best first.
// Results are cached per (itemID, limit). models.ErrNotFound is returned
// when the source item does not exist. When some aggregates could not be
// read the list is returned with an error matching models.ErrPartial and
// is not cached.
func (s *Scorer) SimilarTo(ctx context.Context, itemID int64, limit int) ([]models.ScoredItem, error) {
	limit = ClampLimit(limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	key := cache.GenerateKey(cache.KeySimilar, similarKey{ItemID: itemID, Limit: limit})

	items, err := cache.Load(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) ([]models.ScoredItem, error) {
		start := time.Now()

		source, err := s.items.GetItem(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("similar to %d: %w", itemID, err)
		}

		ranked, err := s.RankFor(ctx, SourceFromItem(source), limit)
		if models.IsPartial(err) {
			return nil, &partialRanking{items: ranked, err: fmt.Errorf("similar to %d: %w", itemID, err)}
		}
		if err != nil {
			return nil, fmt.Errorf("similar to %d: %w", itemID, err)
		}

		logging.Ctx(ctx).Debug().
			Int64("item_id", itemID).
			Int("limit", limit).
			Int("results", len(ranked)).
			Dur("duration", time.Since(start)).
			Msg("Computed similar items")
		return ranked, nil
	})

	var partial *partialRanking
	if errors.As(err, &partial) {
		return partial.items, partial.err
	}
	return items, err
}

// RankFor prefetches candidates matching src, ranks them and returns the
// top limit with rating and presence aggregates attached. It does not
// consult the cache. If some aggregates were zeroed the ranked list is
// still returned, with an error matching models.ErrPartial.
func (s *Scorer) RankFor(ctx context.Context, src Source, limit int) ([]models.ScoredItem, error) {
	if src.Empty() {
		return []models.ScoredItem{}, nil
	}

	candidates, err := s.items.ListCandidates(ctx, src.Query(s.cfg.Prefetch))
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	ratings, partial := s.ratings.Summaries(ctx, ids)
	if partial != nil && !models.IsPartial(partial) {
		return nil, fmt.Errorf("rate candidates: %w", partial)
	}

	ranked := Rank(candidates, ratings, src)
	metrics.ScoredCandidates.WithLabelValues("similar").Observe(float64(len(ranked)))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if err := s.AttachPresence(ctx, ranked); err != nil {
		if !models.IsPartial(err) {
			return nil, err
		}
		partial = errors.Join(partial, err)
	}
	return ranked, partial
}

// AttachPresence fills ActiveCount on each item in place. A presence
// failure leaves the counts at zero and returns an error matching
// models.ErrPartial. Context cancellation is returned as is.
func (s *Scorer) AttachPresence(ctx context.Context, items []models.ScoredItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	counts, err := s.presence.CurrentCounts(ctx, ids)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn().Err(err).Int("items", len(ids)).Msg("Presence lookup failed, substituting zero active counts")
		return models.Partial(fmt.Errorf("presence: %w", err))
	}
	for i := range items {
		items[i].ActiveCount = counts[items[i].ID]
	}
	return nil
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/similarity"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// DataProvider is the slice of the signal store the engine reads.
type DataProvider interface {
	// RecentSessions returns the user's sessions, newest first.
	RecentSessions(ctx context.Context, userID int64, limit int) ([]models.Session, error)

	// ItemsByIDs returns the items that exist among ids.
	ItemsByIDs(ctx context.Context, ids []int64) ([]models.Item, error)

	// PopularItems returns published items in popularity order.
	PopularItems(ctx context.Context, limit int) ([]models.Item, error)
}

// Ranker ranks candidates against a seed profile and attaches presence.
// Both methods report zeroed aggregates with an error matching
// models.ErrPartial. It is implemented by *similarity.Scorer.
type Ranker interface {
	RankFor(ctx context.Context, src similarity.Source, limit int) ([]models.ScoredItem, error)
	AttachPresence(ctx context.Context, items []models.ScoredItem) error
}

// Request is a recommendation request.
type Request struct {
	// UserID identifies the user. Zero or negative means anonymous.
	UserID int64

	// Limit is the maximum number of items. Zero applies the default.
	Limit int
}

// Anonymous reports whether the request carries no user.
func (r Request) Anonymous() bool {
	return r.UserID <= 0
}

// Source labels for the recommendations_served_total metric.
const (
	SourcePersonalized = "personalized"
	SourcePopular      = "popular"
)

// Engine produces recommendation lists. It is safe for concurrent use.
type Engine struct {
	data    DataProvider
	ratings similarity.RatingSource
	ranker  Ranker
	cache   cache.Cacher
	config  Config
	logger  zerolog.Logger
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(data DataProvider, ratings similarity.RatingSource, ranker Ranker, c cache.Cacher, cfg Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c == nil {
		c = cache.NewNoop()
	}
	return &Engine{
		data:    data,
		ratings: ratings,
		ranker:  ranker,
		cache:   c,
		config:  cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}, nil
}

type recommendKey struct {
	User  string `json:"user"`
	Limit int    `json:"limit"`
}

// seed is a user's taste profile.
type seed struct {
	tags       []string
	categories []int64
}

func (s seed) empty() bool {
	return len(s.tags) == 0 && len(s.categories) == 0
}

// partialRecommendations carries recommendations with zeroed aggregates out
// of the cache loader as an error, so they are served but never stored.
type partialRecommendations struct {
	recs models.Recommendations
	err  error
}

func (p *partialRecommendations) Error() string { return p.err.Error() }
func (p *partialRecommendations) Unwrap() error { return p.err }

// Recommend returns up to req.Limit items for the user. Results are cached
// per (user, limit); anonymous requests share one entry per limit. When some
// aggregates could not be read the recommendations are returned uncached
// with an error matching models.ErrPartial.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (models.Recommendations, error) {
	req = e.prepareRequest(req)
	logger := e.createRequestLogger(ctx, req)

	key := cache.GenerateKey(cache.KeyRecommendations, recommendKey{User: cacheUser(req), Limit: req.Limit})
	recs, err := cache.Load(ctx, e.cache, key, e.config.CacheTTL, func(ctx context.Context) (models.Recommendations, error) {
		recs, err := e.compute(ctx, req, logger)
		if models.IsPartial(err) {
			return models.Recommendations{}, &partialRecommendations{recs: recs, err: err}
		}
		return recs, err
	})

	var partial *partialRecommendations
	if errors.As(err, &partial) {
		recs, err = partial.recs, partial.err
	}
	if err != nil && !models.IsPartial(err) {
		return models.Recommendations{}, err
	}

	source := SourcePopular
	if recs.Personalized {
		source = SourcePersonalized
	}
	metrics.RecommendationsServed.WithLabelValues(source).Inc()
	return recs, err
}

// prepareRequest applies the default limit and caps it.
func (e *Engine) prepareRequest(req Request) Request {
	req.Limit = similarity.ClampLimit(req.Limit, e.config.DefaultLimit, e.config.MaxLimit)
	if req.UserID < 0 {
		req.UserID = 0
	}
	return req
}

// createRequestLogger creates a logger with request context.
func (e *Engine) createRequestLogger(ctx context.Context, req Request) zerolog.Logger {
	lc := e.logger.With().Int64("user_id", req.UserID).Int("limit", req.Limit)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	return lc.Logger()
}

func cacheUser(req Request) string {
	if req.Anonymous() {
		return "anonymous"
	}
	return strconv.FormatInt(req.UserID, 10)
}

// compute builds the recommendations. A result with zeroed aggregates is
// returned together with an error matching models.ErrPartial.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) compute(ctx context.Context, req Request, logger zerolog.Logger) (models.Recommendations, error) {
	start := time.Now()

	s, err := e.buildSeed(ctx, req)
	if err != nil {
		return models.Recommendations{}, fmt.Errorf("build seed: %w", err)
	}

	var partial error
	if !s.empty() {
		ranked, err := e.ranker.RankFor(ctx, similarity.NewSource(0, s.tags, s.categories), req.Limit)
		if err != nil && !models.IsPartial(err) {
			return models.Recommendations{}, fmt.Errorf("rank seed: %w", err)
		}
		if len(ranked) > 0 {
			logger.Debug().
				Int("seed_tags", len(s.tags)).
				Int("seed_categories", len(s.categories)).
				Int("returned", len(ranked)).
				Bool("partial", err != nil).
				Dur("duration", time.Since(start)).
				Msg("Computed personalized recommendations")
			return models.Recommendations{
				Items:          ranked,
				Personalized:   true,
				SeedTags:       s.tags,
				SeedCategories: s.categories,
			}, err
		}
		partial = err
		logger.Debug().Msg("Seed matched no candidates, falling back to popular items")
	}

	items, err := e.popular(ctx, req.Limit)
	if err != nil && !models.IsPartial(err) {
		return models.Recommendations{}, fmt.Errorf("popular items: %w", err)
	}
	partial = errors.Join(partial, err)

	logger.Debug().
		Int("returned", len(items)).
		Bool("partial", partial != nil).
		Dur("duration", time.Since(start)).
		Msg("Computed popular recommendations")
	return models.Recommendations{
		Items:          items,
		Personalized:   false,
		SeedTags:       s.tags,
		SeedCategories: s.categories,
	}, partial
}

// buildSeed collects the user's taste profile from their recent sessions.
// Anonymous requests get an empty seed without touching the store.
func (e *Engine) buildSeed(ctx context.Context, req Request) (seed, error) {
	s := seed{tags: []string{}, categories: []int64{}}
	if req.Anonymous() {
		return s, nil
	}

	sessions, err := e.data.RecentSessions(ctx, req.UserID, e.config.SeedSessions)
	if err != nil {
		return s, err
	}
	if len(sessions) == 0 {
		return s, nil
	}

	ids := make([]int64, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ItemID)
	}
	items, err := e.data.ItemsByIDs(ctx, ids)
	if err != nil {
		return s, err
	}
	byID := make(map[int64]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	seenTags := make(map[string]struct{})
	seenCats := make(map[int64]struct{})
	for _, sess := range sessions {
		item, ok := byID[sess.ItemID]
		if !ok {
			continue
		}
		for _, t := range item.Tags {
			if len(s.tags) >= e.config.MaxSeedTags {
				break
			}
			n := store.NormalizeTag(t)
			if _, dup := seenTags[n]; dup || n == "" {
				continue
			}
			seenTags[n] = struct{}{}
			s.tags = append(s.tags, n)
		}
		for _, c := range item.Categories {
			if len(s.categories) >= e.config.MaxSeedCategories {
				break
			}
			if _, dup := seenCats[c]; dup {
				continue
			}
			seenCats[c] = struct{}{}
			s.categories = append(s.categories, c)
		}
	}
	return s, nil
}

// popular returns popular published items with aggregates attached, in
// store order. The score carries the popularity terms only. Zeroed
// aggregates are reported with an error matching models.ErrPartial.
func (e *Engine) popular(ctx context.Context, limit int) ([]models.ScoredItem, error) {
	items, err := e.data.PopularItems(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	ratings, partial := e.ratings.Summaries(ctx, ids)
	if partial != nil && !models.IsPartial(partial) {
		return nil, partial
	}

	out := make([]models.ScoredItem, 0, len(items))
	for _, it := range items {
		summary := ratings[it.ID]
		out = append(out, models.ScoredItem{
			Item:          it.Clone(),
			RatingSummary: summary,
			Score:         similarity.Score(0, 0, summary.ApproveCount, it.PlayCount),
		})
	}

	if err := e.ranker.AttachPresence(ctx, out); err != nil {
		if !models.IsPartial(err) {
			return nil, err
		}
		partial = errors.Join(partial, err)
	}
	return out, partial
}

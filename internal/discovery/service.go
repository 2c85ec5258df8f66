// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package discovery is the read and write surface the HTTP layer calls. It
// composes the rating, presence, similarity and recommendation components
// and turns signal store outages on read paths into degraded results.
package discovery

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
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/recommend"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// Ratings is the rating aggregator surface used by the service.
type Ratings interface {
	CastVote(ctx context.Context, userID, itemID int64, approve bool) (models.VoteResult, error)
	Summary(ctx context.Context, itemID int64) (models.RatingSummary, error)
}

// Presence is the presence tracker surface used by the service.
type Presence interface {
	CurrentCounts(ctx context.Context, itemIDs []int64) (map[int64]int, error)
}

// Similar ranks items similar to a source item.
type Similar interface {
	SimilarTo(ctx context.Context, itemID int64, limit int) ([]models.ScoredItem, error)
}

// Recommender produces recommendation lists.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (models.Recommendations, error)
}

// Config controls the service.
type Config struct {
	// DetailTTL is the lifetime of a cached item detail. Default: 5m
	DetailTTL time.Duration

	// InvalidateOnVote drops the cached detail of an item after a vote on
	// it. When false, vote counts on detail pages may lag by up to DetailTTL.
	InvalidateOnVote bool
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{DetailTTL: 5 * time.Minute}
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Items       store.ItemReader
	Sessions    store.SessionStore
	Pinger      interface{ Ping(ctx context.Context) error }
	Ratings     Ratings
	Presence    Presence
	Similar     Similar
	Recommender Recommender
	Cache       cache.Cacher
}

// Service is safe for concurrent use.
type Service struct {
	deps   Deps
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a Service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(deps Deps, cfg Config, logger zerolog.Logger) *Service {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoop()
	}
	if cfg.DetailTTL < 0 {
		cfg.DetailTTL = 0
	}
	return &Service{
		deps:   deps,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With().Str("component", "discovery").Logger(),
	}
}

type detailKey struct {
	ItemID int64 `json:"item_id"`
}

func itemDetailKey(itemID int64) string {
	return cache.GenerateKey(cache.KeyItemDetail, detailKey{ItemID: itemID})
}

// degradedDetail carries a partial detail out of a cache loader so that the
// cache does not store it.
type degradedDetail struct {
	detail models.ItemDetail
	cause  error
}

func (d *degradedDetail) Error() string { return "degraded item detail: " + d.cause.Error() }
func (d *degradedDetail) Unwrap() error { return d.cause }

// ItemDetail returns an item with its rating summary and active-user count.
// Aggregates that cannot be read are zeroed and the result is flagged
// degraded and left uncached. When the item itself cannot be read the
// error is returned.
func (s *Service) ItemDetail(ctx context.Context, itemID int64) (models.ItemDetail, bool, error) {
	if itemID <= 0 {
		return models.ItemDetail{}, false, fmt.Errorf("item id %d: %w", itemID, models.ErrInvalidArgument)
	}

	detail, err := cache.Load(ctx, s.deps.Cache, itemDetailKey(itemID), s.cfg.DetailTTL, func(ctx context.Context) (models.ItemDetail, error) {
		return s.loadDetail(ctx, itemID)
	})

	var partial *degradedDetail
	if errors.As(err, &partial) {
		s.degraded(ctx, "item_detail", partial.cause)
		return partial.detail, true, nil
	}
	if err != nil {
		return models.ItemDetail{}, false, err
	}
	return detail, false, nil
}

func (s *Service) loadDetail(ctx context.Context, itemID int64) (models.ItemDetail, error) {
	item, err := s.deps.Items.GetItem(ctx, itemID)
	if err != nil {
		return models.ItemDetail{}, err
	}
	detail := models.ItemDetail{Item: item.Clone()}

	var cause error
	if summary, err := s.deps.Ratings.Summary(ctx, itemID); err != nil {
		cause = err
	} else {
		detail.RatingSummary = summary
	}
	if counts, err := s.deps.Presence.CurrentCounts(ctx, []int64{itemID}); err != nil {
		cause = errors.Join(cause, err)
	} else {
		detail.ActiveCount = counts[itemID]
	}

	if cause != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.ItemDetail{}, ctxErr
		}
		return models.ItemDetail{}, &degradedDetail{detail: detail, cause: cause}
	}
	return detail, nil
}

// Similar returns items similar to itemID. A store outage yields an empty,
// degraded list; a missing source item yields models.ErrNotFound. A list
// whose aggregates were partly zeroed is served as is and marked degraded.
func (s *Service) Similar(ctx context.Context, itemID int64, limit int) ([]models.ScoredItem, bool, error) {
	if itemID <= 0 {
		return nil, false, fmt.Errorf("item id %d: %w", itemID, models.ErrInvalidArgument)
	}
	items, err := s.deps.Similar.SimilarTo(ctx, itemID, limit)
	if models.IsPartial(err) {
		s.degraded(ctx, "similar", err)
		return items, true, nil
	}
	if err != nil {
		if !s.degradable(ctx, err) {
			return nil, false, err
		}
		s.degraded(ctx, "similar", err)
		return []models.ScoredItem{}, true, nil
	}
	return items, false, nil
}

// Recommend returns recommendations for the user. A store outage yields an
// empty, degraded list. Recommendations with partly zeroed aggregates are
// served as they are and marked degraded.
func (s *Service) Recommend(ctx context.Context, userID int64, limit int) (models.Recommendations, bool, error) {
	recs, err := s.deps.Recommender.Recommend(ctx, recommend.Request{UserID: userID, Limit: limit})
	if models.IsPartial(err) {
		s.degraded(ctx, "recommend", err)
		return recs, true, nil
	}
	if err != nil {
		if !s.degradable(ctx, err) {
			return models.Recommendations{}, false, err
		}
		s.degraded(ctx, "recommend", err)
		return models.Recommendations{
			Items:          []models.ScoredItem{},
			SeedTags:       []string{},
			SeedCategories: []int64{},
		}, true, nil
	}
	return recs, false, nil
}

// CastVote records a vote. Errors are returned as they are; votes never
// degrade.
func (s *Service) CastVote(ctx context.Context, userID, itemID int64, approve bool) (models.VoteResult, error) {
	if itemID <= 0 {
		return models.VoteResult{}, fmt.Errorf("item id %d: %w", itemID, models.ErrInvalidArgument)
	}
	result, err := s.deps.Ratings.CastVote(ctx, userID, itemID, approve)
	if err != nil {
		return models.VoteResult{}, err
	}
	if s.cfg.InvalidateOnVote {
		s.deps.Cache.Delete(itemDetailKey(itemID))
	}
	return result, nil
}

// StartSession records that userID began playing itemID.
func (s *Service) StartSession(ctx context.Context, userID, itemID int64) (models.Session, error) {
	if userID <= 0 {
		return models.Session{}, fmt.Errorf("start session: %w", models.ErrUnauthenticated)
	}
	if itemID <= 0 {
		return models.Session{}, fmt.Errorf("item id %d: %w", itemID, models.ErrInvalidArgument)
	}
	return s.deps.Sessions.StartSession(ctx, userID, itemID, s.now().UTC())
}

// EndSession closes a session. Ending an already ended session keeps the
// first end time.
func (s *Service) EndSession(ctx context.Context, sessionID int64) (models.Session, error) {
	if sessionID <= 0 {
		return models.Session{}, fmt.Errorf("session id %d: %w", sessionID, models.ErrInvalidArgument)
	}
	return s.deps.Sessions.EndSession(ctx, sessionID, s.now().UTC())
}

// Ready reports whether the signal store answers.
func (s *Service) Ready(ctx context.Context) error {
	if s.deps.Pinger == nil {
		return nil
	}
	return s.deps.Pinger.Ping(ctx)
}

// degradable reports whether a read error should become a degraded result
// rather than an error response. A caller that went away is not degraded.
func (s *Service) degradable(ctx context.Context, err error) bool {
	return ctx.Err() == nil && models.IsUpstreamFailure(err)
}

func (s *Service) degraded(ctx context.Context, operation string, err error) {
	metrics.DegradedResponses.WithLabelValues(operation).Inc()
	event := s.logger.Warn().Err(err).Str("operation", operation)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		event = event.Str("request_id", id)
	}
	event.Msg("Signal store unavailable, serving degraded response")
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package discovery

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/cache"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/presence"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/rating"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/recommend"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/similarity"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// Options configures every component Assemble builds.
type Options struct {
	Service    Config
	Presence   presence.Config
	Similarity similarity.Config
	Recommend  recommend.Config

	// EnrichConcurrency bounds concurrent per-item vote tallies.
	EnrichConcurrency int
}

// DefaultOptions returns defaults for every component.
func DefaultOptions() Options {
	return Options{
		Service:           DefaultConfig(),
		Presence:          presence.DefaultConfig(),
		Similarity:        similarity.DefaultConfig(),
		Recommend:         recommend.DefaultConfig(),
		EnrichConcurrency: 8,
	}
}

// Assemble wires the rating aggregator, presence tracker, similarity scorer
// and recommendation engine over one store and one shared cache.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Assemble(st store.Store, c cache.Cacher, opts Options, logger zerolog.Logger) (*Service, error) {
	if c == nil {
		c = cache.NewNoop()
	}
	if err := opts.Similarity.Validate(); err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	ratings := rating.NewAggregator(st, st, opts.EnrichConcurrency, logger)
	tracker := presence.NewTracker(st, c, opts.Presence, logger)
	scorer := similarity.NewScorer(st, ratings, tracker, c, opts.Similarity, logger)
	engine, err := recommend.NewEngine(st, ratings, scorer, c, opts.Recommend, logger)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	return NewService(Deps{
		Items:       st,
		Sessions:    st,
		Pinger:      st,
		Ratings:     ratings,
		Presence:    tracker,
		Similar:     scorer,
		Recommender: engine,
		Cache:       c,
	}, opts.Service, logger), nil
}

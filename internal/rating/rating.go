// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package rating implements approval voting with toggle semantics and the
// per-item approval aggregates derived from it.
//
// Casting the same polarity twice retracts the vote; casting the opposite
// polarity flips it in place. After every write the aggregates are
// recomputed from a full scan of the item's votes, so the returned summary
// is exactly what a fresh tally would report.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// ItemLookup is the catalog access needed to reject votes on unknown items.
type ItemLookup interface {
	GetItem(ctx context.Context, id int64) (models.Item, error)
}

// Action is the write a vote cast resolved to.
type Action string

const (
	ActionCreated   Action = "created"
	ActionRetracted Action = "retracted"
	ActionFlipped   Action = "flipped"
)

// Aggregator casts votes and computes approval summaries.
type Aggregator struct {
	votes       store.VoteStore
	items       ItemLookup
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewAggregator creates an Aggregator. concurrency bounds the fan-out of
// Summaries; values below 1 mean sequential.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAggregator(votes store.VoteStore, items ItemLookup, concurrency int, logger zerolog.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		votes:       votes,
		items:       items,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger.With().Str("component", "rating").Logger(),
	}
}

// Percentage returns approve/total*100 rounded half up, or 0 when total is 0.
func Percentage(approve, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(approve)*100/float64(total) + 0.5))
}

// SummaryFromTally converts a raw tally into an always-populated summary.
func SummaryFromTally(t models.VoteTally) models.RatingSummary {
	approve, total := t.Approve, t.Total
	if approve < 0 {
		approve = 0
	}
	if total < approve {
		total = approve
	}
	return models.RatingSummary{
		ApproveCount:    approve,
		DisapproveCount: total - approve,
		Percentage:      Percentage(approve, total),
		TotalVotes:      total,
	}
}

// decide resolves the toggle rule for an incoming vote.
func decide(existing *models.Vote, approve bool) (Action, models.EffectiveVote) {
	switch {
	case existing == nil:
		return ActionCreated, models.EffectiveVoteFor(approve)
	case existing.Approve == approve:
		return ActionRetracted, models.EffectiveVoteNone
	default:
		return ActionFlipped, models.EffectiveVoteFor(approve)
	}
}

// CastVote applies the user's vote and returns the recomputed aggregates.
//
// Errors:
//   - models.ErrUnauthenticated when userID is not a resolvable identity
//   - models.ErrNotFound when the item does not exist
//   - any store failure, propagated as-is so a vote is never silently lost
func (a *Aggregator) CastVote(ctx context.Context, userID, itemID int64, approve bool) (models.VoteResult, error) {
	if userID <= 0 {
		return models.VoteResult{}, fmt.Errorf("cast vote: %w", models.ErrUnauthenticated)
	}
	if itemID <= 0 {
		return models.VoteResult{}, fmt.Errorf("cast vote: item %d: %w", itemID, models.ErrNotFound)
	}

	if _, err := a.items.GetItem(ctx, itemID); err != nil {
		return models.VoteResult{}, fmt.Errorf("cast vote: %w", err)
	}

	existing, found, err := a.votes.FindVote(ctx, userID, itemID)
	if err != nil {
		return models.VoteResult{}, fmt.Errorf("cast vote: find vote: %w", err)
	}
	var prior *models.Vote
	if found {
		prior = &existing
	}

	action, effective := decide(prior, approve)
	now := a.now()
	switch action {
	case ActionCreated:
		err = a.votes.CreateVote(ctx, models.Vote{
			UserID:    userID,
			ItemID:    itemID,
			Approve:   approve,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case ActionRetracted:
		err = a.votes.DeleteVote(ctx, userID, itemID)
	case ActionFlipped:
		err = a.votes.UpdateVote(ctx, userID, itemID, approve, now)
	}
	if err != nil {
		return models.VoteResult{}, fmt.Errorf("cast vote: %s: %w", action, err)
	}
	metrics.VotesCast.WithLabelValues(string(action)).Inc()

	summary, err := a.Summary(ctx, itemID)
	if err != nil {
		return models.VoteResult{}, fmt.Errorf("cast vote: tally: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Int64("item_id", itemID).
		Str("action", string(action)).
		Int64("total_votes", summary.TotalVotes).
		Msg("Vote cast")

	return models.VoteResult{ItemID: itemID, RatingSummary: summary, EffectiveVote: effective}, nil
}

// Summary tallies every vote of itemID.
func (a *Aggregator) Summary(ctx context.Context, itemID int64) (models.RatingSummary, error) {
	tally, err := a.votes.TallyVotes(ctx, itemID)
	if err != nil {
		return models.RatingSummary{}, err
	}
	return SummaryFromTally(tally), nil
}

// Summaries tallies several items concurrently. An item whose tally fails
// gets a zero summary and the failure is logged. The full map is always
// returned. When some tallies failed the error matches models.ErrPartial,
// and when ctx is done it is ctx.Err().
func (a *Aggregator) Summaries(ctx context.Context, itemIDs []int64) (map[int64]models.RatingSummary, error) {
	out := make(map[int64]models.RatingSummary, len(itemIDs))
	var (
		mu     sync.Mutex
		failed []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, id := range itemIDs {
		mu.Lock()
		_, dup := out[id]
		out[id] = models.RatingSummary{}
		mu.Unlock()
		if dup {
			continue
		}

		g.Go(func() error {
			summary, err := a.Summary(gctx, id)
			if err != nil {
				if gctx.Err() == nil {
					a.logger.Warn().Err(err).Int64("item_id", id).Msg("Vote tally failed, substituting zeroed aggregates")
					mu.Lock()
					failed = append(failed, fmt.Errorf("item %d: %w", id, err))
					mu.Unlock()
				}
				return nil
			}
			mu.Lock()
			out[id] = summary
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, models.Partial(errors.Join(failed...))
}

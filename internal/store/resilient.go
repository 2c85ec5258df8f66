// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/metrics"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

// ResilientConfig configures the Resilient decorator.
type ResilientConfig struct {
	// Name labels the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before letting trial calls through.
	Timeout time.Duration

	// FailureThreshold is the consecutive failure count that opens the breaker.
	FailureThreshold uint32

	// QueryTimeout bounds each store call. Zero disables the per-call deadline.
	QueryTimeout time.Duration

	// MaxQueriesPerSecond bounds the store call rate. Zero disables limiting.
	MaxQueriesPerSecond float64

	// Burst is the limiter bucket size. Default: 1 when limiting is enabled.
	Burst int

	// DisableBreaker keeps the per-call timeout and the rate limiter but
	// never trips.
	DisableBreaker bool
}

// DefaultResilientConfig returns production defaults.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Name:             "signal-store",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		QueryTimeout:     5 * time.Second,
	}
}

// Resilient wraps a Store with a circuit breaker, an optional query rate
// limiter and a per-call timeout. Failures surface as errors matching
// models.ErrUpstreamUnavailable; models.ErrNotFound passes through untouched
// and never counts against the breaker. Neither does a call whose caller's
// context ended first, since that says nothing about the store.
type Resilient struct {
	next    Store
	cb      *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	timeout time.Duration
	name    string
}

// NewResilient decorates next.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResilient(next Store, cfg ResilientConfig, logger zerolog.Logger) *Resilient {
	if cfg.Name == "" {
		cfg.Name = "signal-store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	logger = logger.With().Str("component", "store").Str("breaker", cfg.Name).Logger()

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from, to)
			event := logger.Info()
			if to == gobreaker.StateOpen {
				event = logger.Warn()
			}
			event.Str("from", from.String()).Str("to", to.String()).Msg("Signal store circuit breaker state changed")
		},
		IsSuccessful: isBreakerSuccess,
		IsExcluded:   isCallerGone,
	}

	r := &Resilient{
		next:    next,
		timeout: cfg.QueryTimeout,
		name:    cfg.Name,
	}
	if !cfg.DisableBreaker {
		r.cb = gobreaker.NewCircuitBreaker[any](settings)
		metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	}
	if cfg.MaxQueriesPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.MaxQueriesPerSecond), burst)
	}
	return r
}

// State returns the breaker state, for health reporting. A disabled breaker
// reports closed.
func (r *Resilient) State() gobreaker.State {
	if r.cb == nil {
		return gobreaker.StateClosed
	}
	return r.cb.State()
}

// isBreakerSuccess treats missing rows as a healthy outcome so that they
// cannot open the breaker.
func isBreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, models.ErrNotFound)
}

// callerGone marks a failure that happened after the caller's own context
// ended, by deadline or cancellation. Expiry of the per-call QueryTimeout is
// not a callerGone, so a slow store still trips the breaker.
type callerGone struct{ err error }

func (e *callerGone) Error() string { return e.err.Error() }
func (e *callerGone) Unwrap() error { return e.err }

func isCallerGone(err error) bool {
	var gone *callerGone
	return errors.As(err, &gone)
}

func call[T any](ctx context.Context, r *Resilient, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, models.Unavailable(op, err)
		}
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if r.cb == nil {
		res, err := fn(callCtx)
		if err != nil {
			return zero, wrapStoreError(op, err)
		}
		return res, nil
	}

	res, err := r.cb.Execute(func() (any, error) {
		v, err := fn(callCtx)
		if err != nil && ctx.Err() != nil {
			return v, &callerGone{err: err}
		}
		return v, err
	})
	var gone *callerGone
	switch {
	case errors.As(err, &gone):
		metrics.RecordBreakerExcluded(r.name)
		err = gone.err
	case isBreakerSuccess(err):
		metrics.RecordBreakerResult(r.name, nil)
	default:
		metrics.RecordBreakerResult(r.name, err)
	}

	if err != nil {
		return zero, wrapStoreError(op, err)
	}
	typed, _ := res.(T)
	return typed, nil
}

func wrapStoreError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrUpstreamUnavailable) {
		return err
	}
	return models.Unavailable(op, err)
}

func exec(ctx context.Context, r *Resilient, op string, fn func(context.Context) error) error {
	_, err := call(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// GetItem implements ItemReader.
func (r *Resilient) GetItem(ctx context.Context, id int64) (models.Item, error) {
	return call(ctx, r, OpGetItem, func(ctx context.Context) (models.Item, error) {
		return r.next.GetItem(ctx, id)
	})
}

// ListCandidates implements ItemReader.
func (r *Resilient) ListCandidates(ctx context.Context, q CandidateQuery) ([]models.Item, error) {
	return call(ctx, r, OpListCandidates, func(ctx context.Context) ([]models.Item, error) {
		return r.next.ListCandidates(ctx, q)
	})
}

// PopularItems implements ItemReader.
func (r *Resilient) PopularItems(ctx context.Context, limit int) ([]models.Item, error) {
	return call(ctx, r, OpPopularItems, func(ctx context.Context) ([]models.Item, error) {
		return r.next.PopularItems(ctx, limit)
	})
}

// ItemsByIDs implements ItemReader.
func (r *Resilient) ItemsByIDs(ctx context.Context, ids []int64) ([]models.Item, error) {
	return call(ctx, r, OpItemsByIDs, func(ctx context.Context) ([]models.Item, error) {
		return r.next.ItemsByIDs(ctx, ids)
	})
}

type foundVote struct {
	vote  models.Vote
	found bool
}

// FindVote implements VoteStore.
func (r *Resilient) FindVote(ctx context.Context, userID, itemID int64) (models.Vote, bool, error) {
	res, err := call(ctx, r, OpFindVote, func(ctx context.Context) (foundVote, error) {
		v, ok, err := r.next.FindVote(ctx, userID, itemID)
		return foundVote{vote: v, found: ok}, err
	})
	return res.vote, res.found, err
}

// CreateVote implements VoteStore.
func (r *Resilient) CreateVote(ctx context.Context, vote models.Vote) error {
	return exec(ctx, r, OpCreateVote, func(ctx context.Context) error {
		return r.next.CreateVote(ctx, vote)
	})
}

// UpdateVote implements VoteStore.
func (r *Resilient) UpdateVote(ctx context.Context, userID, itemID int64, approve bool, at time.Time) error {
	return exec(ctx, r, OpUpdateVote, func(ctx context.Context) error {
		return r.next.UpdateVote(ctx, userID, itemID, approve, at)
	})
}

// DeleteVote implements VoteStore.
func (r *Resilient) DeleteVote(ctx context.Context, userID, itemID int64) error {
	return exec(ctx, r, OpDeleteVote, func(ctx context.Context) error {
		return r.next.DeleteVote(ctx, userID, itemID)
	})
}

// TallyVotes implements VoteStore.
func (r *Resilient) TallyVotes(ctx context.Context, itemID int64) (models.VoteTally, error) {
	return call(ctx, r, OpTallyVotes, func(ctx context.Context) (models.VoteTally, error) {
		return r.next.TallyVotes(ctx, itemID)
	})
}

// ActiveSessions implements SessionStore.
func (r *Resilient) ActiveSessions(ctx context.Context, itemIDs []int64, endedSince time.Time) ([]models.Session, error) {
	return call(ctx, r, OpActiveSessions, func(ctx context.Context) ([]models.Session, error) {
		return r.next.ActiveSessions(ctx, itemIDs, endedSince)
	})
}

// RecentSessions implements SessionStore.
func (r *Resilient) RecentSessions(ctx context.Context, userID int64, limit int) ([]models.Session, error) {
	return call(ctx, r, OpRecentSessions, func(ctx context.Context) ([]models.Session, error) {
		return r.next.RecentSessions(ctx, userID, limit)
	})
}

// StartSession implements SessionStore.
func (r *Resilient) StartSession(ctx context.Context, userID, itemID int64, at time.Time) (models.Session, error) {
	return call(ctx, r, OpStartSession, func(ctx context.Context) (models.Session, error) {
		return r.next.StartSession(ctx, userID, itemID, at)
	})
}

// EndSession implements SessionStore.
func (r *Resilient) EndSession(ctx context.Context, sessionID int64, at time.Time) (models.Session, error) {
	return call(ctx, r, OpEndSession, func(ctx context.Context) (models.Session, error) {
		return r.next.EndSession(ctx, sessionID, at)
	})
}

// Ping bypasses the breaker so readiness reflects the store itself.
func (r *Resilient) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// Close closes the wrapped store.
func (r *Resilient) Close() error {
	return r.next.Close()
}

var _ Store = (*Resilient)(nil)

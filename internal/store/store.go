// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package store defines the signal store contract the discovery engine reads
// votes, sessions and items through, together with an in-memory
// implementation and a resilience decorator.
//
// Implementations return models.ErrNotFound for missing rows. Any other error
// is treated by the engine as the store being unavailable.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

// CandidateQuery selects published items sharing at least one tag or one
// category with a source. Tags must already be normalized (see NormalizeTag).
type CandidateQuery struct {
	Tags       []string
	Categories []int64
	ExcludeID  int64
	Limit      int
}

// Empty reports whether the query has nothing to match on.
func (q CandidateQuery) Empty() bool {
	return len(q.Tags) == 0 && len(q.Categories) == 0
}

// ItemReader gives read access to the catalog.
type ItemReader interface {
	// GetItem returns models.ErrNotFound when the item does not exist.
	GetItem(ctx context.Context, id int64) (models.Item, error)

	// ListCandidates returns at most q.Limit matching items ordered by
	// featured desc, created_at desc, id desc.
	ListCandidates(ctx context.Context, q CandidateQuery) ([]models.Item, error)

	// PopularItems returns published items ordered by featured desc,
	// play_count desc, created_at desc, id desc.
	PopularItems(ctx context.Context, limit int) ([]models.Item, error)

	// ItemsByIDs returns the items that exist among ids, in no particular order.
	ItemsByIDs(ctx context.Context, ids []int64) ([]models.Item, error)
}

// VoteStore persists approval votes. At most one vote exists per (user, item).
type VoteStore interface {
	// FindVote reports whether a vote exists for (userID, itemID).
	FindVote(ctx context.Context, userID, itemID int64) (models.Vote, bool, error)
	CreateVote(ctx context.Context, vote models.Vote) error
	UpdateVote(ctx context.Context, userID, itemID int64, approve bool, at time.Time) error
	DeleteVote(ctx context.Context, userID, itemID int64) error

	// TallyVotes scans every vote of itemID.
	TallyVotes(ctx context.Context, itemID int64) (models.VoteTally, error)
}

// SessionStore reads and records play sessions.
type SessionStore interface {
	// ActiveSessions returns sessions of itemIDs that are open or ended at
	// or after endedSince.
	ActiveSessions(ctx context.Context, itemIDs []int64, endedSince time.Time) ([]models.Session, error)

	// RecentSessions returns the user's latest sessions, most recent first.
	RecentSessions(ctx context.Context, userID int64, limit int) ([]models.Session, error)

	// StartSession opens a session and increments the item's play count.
	StartSession(ctx context.Context, userID, itemID int64, at time.Time) (models.Session, error)

	// EndSession closes a session. Closing an already closed session keeps
	// the first end time. An end time before the start is clamped to it.
	EndSession(ctx context.Context, sessionID int64, at time.Time) (models.Session, error)
}

// Store is the full signal store.
type Store interface {
	ItemReader
	VoteStore
	SessionStore

	Ping(ctx context.Context) error
	Close() error
}

// NormalizeTag lowercases and trims a tag so overlap is case-insensitive.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags normalizes and de-duplicates tags, keeping first appearance
// order and dropping empty values.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

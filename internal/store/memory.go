// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

// Operation names used by MemoryStore call counting and failure injection.
const (
	OpGetItem        = "GetItem"
	OpListCandidates = "ListCandidates"
	OpPopularItems   = "PopularItems"
	OpItemsByIDs     = "ItemsByIDs"
	OpFindVote       = "FindVote"
	OpCreateVote     = "CreateVote"
	OpUpdateVote     = "UpdateVote"
	OpDeleteVote     = "DeleteVote"
	OpTallyVotes     = "TallyVotes"
	OpActiveSessions = "ActiveSessions"
	OpRecentSessions = "RecentSessions"
	OpStartSession   = "StartSession"
	OpEndSession     = "EndSession"
	OpPing           = "Ping"
)

type voteKey struct {
	userID int64
	itemID int64
}

// MemoryStore is an in-process Store. It backs the "memory" database
// driver and doubles as a call-counting stub in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[int64]models.Item
	votes    map[voteKey]models.Vote
	sessions []models.Session
	nextSess int64

	callsMu sync.Mutex
	calls   map[string]int
	fail    map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[int64]models.Item),
		votes:    make(map[voteKey]models.Vote),
		nextSess: 1,
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
}

// PutItem inserts or replaces an item. Tags are normalized on the way in.
func (m *MemoryStore) PutItem(item models.Item) {
	item = item.Clone()
	item.Tags = NormalizeTags(item.Tags)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

// PutVote inserts or replaces a vote without any toggle logic.
func (m *MemoryStore) PutVote(vote models.Vote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes[voteKey{vote.UserID, vote.ItemID}] = vote
}

// PutSession records a session as-is and returns it with its assigned id.
func (m *MemoryStore) PutSession(s models.Session) models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextSess
	m.nextSess++
	m.sessions = append(m.sessions, s)
	return s
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of store invocations across all operations.
func (m *MemoryStore) TotalCalls() int {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// FailWith makes op return err until cleared with a nil err. An empty op
// applies to every operation.
func (m *MemoryStore) FailWith(op string, err error) {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func (m *MemoryStore) enter(ctx context.Context, op string) error {
	m.callsMu.Lock()
	m.calls[op]++
	err, ok := m.fail[op]
	if !ok {
		err = m.fail[""]
	}
	m.callsMu.Unlock()

	if err != nil {
		return err
	}
	return ctx.Err()
}

// GetItem implements ItemReader.
func (m *MemoryStore) GetItem(ctx context.Context, id int64) (models.Item, error) {
	if err := m.enter(ctx, OpGetItem); err != nil {
		return models.Item{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return models.Item{}, fmt.Errorf("item %d: %w", id, models.ErrNotFound)
	}
	return item.Clone(), nil
}

// ListCandidates implements ItemReader.
func (m *MemoryStore) ListCandidates(ctx context.Context, q CandidateQuery) ([]models.Item, error) {
	if err := m.enter(ctx, OpListCandidates); err != nil {
		return nil, err
	}
	if q.Empty() {
		return []models.Item{}, nil
	}

	tags := make(map[string]struct{}, len(q.Tags))
	for _, t := range q.Tags {
		tags[NormalizeTag(t)] = struct{}{}
	}
	cats := make(map[int64]struct{}, len(q.Categories))
	for _, c := range q.Categories {
		cats[c] = struct{}{}
	}

	m.mu.RLock()
	out := make([]models.Item, 0)
	for _, item := range m.items {
		if !item.Published || item.ID == q.ExcludeID {
			continue
		}
		if sharesTag(item, tags) || sharesCategory(item, cats) {
			out = append(out, item.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return truncate(out, q.Limit), nil
}

// PopularItems implements ItemReader.
func (m *MemoryStore) PopularItems(ctx context.Context, limit int) ([]models.Item, error) {
	if err := m.enter(ctx, OpPopularItems); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]models.Item, 0, len(m.items))
	for _, item := range m.items {
		if item.Published {
			out = append(out, item.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		if a.PlayCount != b.PlayCount {
			return a.PlayCount > b.PlayCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return truncate(out, limit), nil
}

// ItemsByIDs implements ItemReader.
func (m *MemoryStore) ItemsByIDs(ctx context.Context, ids []int64) ([]models.Item, error) {
	if err := m.enter(ctx, OpItemsByIDs); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Item, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := m.items[id]; ok {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

// FindVote implements VoteStore.
func (m *MemoryStore) FindVote(ctx context.Context, userID, itemID int64) (models.Vote, bool, error) {
	if err := m.enter(ctx, OpFindVote); err != nil {
		return models.Vote{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.votes[voteKey{userID, itemID}]
	return v, ok, nil
}

// CreateVote implements VoteStore. A concurrent insert of the same
// (user, item) pair overwrites, matching last-write-wins on the row.
func (m *MemoryStore) CreateVote(ctx context.Context, vote models.Vote) error {
	if err := m.enter(ctx, OpCreateVote); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes[voteKey{vote.UserID, vote.ItemID}] = vote
	return nil
}

// UpdateVote implements VoteStore.
func (m *MemoryStore) UpdateVote(ctx context.Context, userID, itemID int64, approve bool, at time.Time) error {
	if err := m.enter(ctx, OpUpdateVote); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := voteKey{userID, itemID}
	v, ok := m.votes[key]
	if !ok {
		return fmt.Errorf("vote (%d,%d): %w", userID, itemID, models.ErrNotFound)
	}
	v.Approve = approve
	v.UpdatedAt = at
	m.votes[key] = v
	return nil
}

// DeleteVote implements VoteStore. Deleting a missing vote is not an error.
func (m *MemoryStore) DeleteVote(ctx context.Context, userID, itemID int64) error {
	if err := m.enter(ctx, OpDeleteVote); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.votes, voteKey{userID, itemID})
	return nil
}

// TallyVotes implements VoteStore.
func (m *MemoryStore) TallyVotes(ctx context.Context, itemID int64) (models.VoteTally, error) {
	if err := m.enter(ctx, OpTallyVotes); err != nil {
		return models.VoteTally{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tally models.VoteTally
	for key, v := range m.votes {
		if key.itemID != itemID {
			continue
		}
		tally.Total++
		if v.Approve {
			tally.Approve++
		}
	}
	return tally, nil
}

// ActiveSessions implements SessionStore.
func (m *MemoryStore) ActiveSessions(ctx context.Context, itemIDs []int64, endedSince time.Time) ([]models.Session, error) {
	if err := m.enter(ctx, OpActiveSessions); err != nil {
		return nil, err
	}
	wanted := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Session, 0)
	for _, s := range m.sessions {
		if _, ok := wanted[s.ItemID]; !ok {
			continue
		}
		if s.EndedAt == nil || !s.EndedAt.Before(endedSince) {
			out = append(out, s)
		}
	}
	return out, nil
}

// RecentSessions implements SessionStore.
func (m *MemoryStore) RecentSessions(ctx context.Context, userID int64, limit int) ([]models.Session, error) {
	if err := m.enter(ctx, OpRecentSessions); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]models.Session, 0)
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StartSession implements SessionStore.
func (m *MemoryStore) StartSession(ctx context.Context, userID, itemID int64, at time.Time) (models.Session, error) {
	if err := m.enter(ctx, OpStartSession); err != nil {
		return models.Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return models.Session{}, fmt.Errorf("item %d: %w", itemID, models.ErrNotFound)
	}
	item.PlayCount++
	m.items[itemID] = item

	s := models.Session{ID: m.nextSess, UserID: userID, ItemID: itemID, StartedAt: at}
	m.nextSess++
	m.sessions = append(m.sessions, s)
	return s, nil
}

// EndSession implements SessionStore.
func (m *MemoryStore) EndSession(ctx context.Context, sessionID int64, at time.Time) (models.Session, error) {
	if err := m.enter(ctx, OpEndSession); err != nil {
		return models.Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		s := &m.sessions[i]
		if s.ID != sessionID {
			continue
		}
		if s.EndedAt == nil {
			end := ClampEnd(s.StartedAt, at)
			s.EndedAt = &end
		}
		return *s, nil
	}
	return models.Session{}, fmt.Errorf("session %d: %w", sessionID, models.ErrNotFound)
}

// Ping implements Store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.enter(ctx, OpPing)
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

// ClampEnd keeps a session end time from preceding its start.
func ClampEnd(startedAt, endedAt time.Time) time.Time {
	if endedAt.Before(startedAt) {
		return startedAt
	}
	return endedAt
}

func sharesTag(item models.Item, tags map[string]struct{}) bool {
	for _, t := range item.Tags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

func sharesCategory(item models.Item, cats map[int64]struct{}) bool {
	for _, c := range item.Categories {
		if _, ok := cats[c]; ok {
			return true
		}
	}
	return false
}

func truncate(items []models.Item, limit int) []models.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ErrInjected is a convenience failure for tests that simulate an outage.
var ErrInjected = errors.New("injected store failure")

var _ Store = (*MemoryStore)(nil)

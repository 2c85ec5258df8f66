// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package cache provides the in-memory TTL cache that memoizes item detail,
// similar-item, recommendation and presence aggregates.
//
// # Semantics
//
// An entry is visible only while now < ExpiresAt. Expired entries are
// dropped lazily when read, by Sweep (driven by a supervised sweeper
// service), or when the MaxEntries cap forces room for a new key. Entries
// are replaced wholesale and never mutated in place, so values handed out
// by Get must be treated as read-only by callers.
//
// # Loading
//
// GetOrLoad is the compute-then-cache path used by every engine component.
// The loader's result is stored only when it returns without error and the
// caller's context is still live; a failed or abandoned computation never
// reaches the cache. With SingleFlight enabled concurrent misses on one key
// share a single loader call.
//
//	c := cache.New(cache.Config{Name: "discovery", DefaultTTL: 5 * time.Minute, MaxEntries: 10000})
//	list, err := cache.Load(ctx, c, cache.GenerateKey("similar", params), 5*time.Minute,
//	    func(ctx context.Context) ([]models.ScoredItem, error) { ... })
//
// # Keys
//
// GenerateKey hashes the full parameter tuple of a computation so that
// semantically different requests never collide.
package cache

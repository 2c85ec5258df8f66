// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package recommend builds per-user recommendation lists.
//
// # Seeding
//
// A user's seed is the tag and category profile of the items they played
// most recently. The engine reads the last SeedSessions sessions, newest
// first, and keeps up to MaxSeedTags distinct tags and MaxSeedCategories
// distinct category ids in order of first appearance.
//
// # Ranking
//
// A non-empty seed is handed to the similarity scorer in place of a source
// item, so personalized lists obey the same hard filter and weights as
// similar-item lists.
//
// # Fallback
//
// Anonymous users, users with no history, and seeds that match nothing all
// receive popular published items: featured first, then by play count, then
// by recency. The response is therefore never empty for a non-empty catalog.
//
// # Usage
//
//	engine := recommend.NewEngine(store, ratings, scorer, cache, recommend.DefaultConfig(), logger)
//	recs, err := engine.Recommend(ctx, recommend.Request{UserID: 42, Limit: 12})
//
// # Thread Safety
//
// Engine holds no mutable state of its own and is safe for concurrent use.
package recommend

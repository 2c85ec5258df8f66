// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package store

import (
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

// Demo category ids.
const (
	CategoryArcade int64 = iota + 1
	CategoryPuzzle
	CategoryRacing
	CategoryStrategy
	CategoryAction
)

// DemoCatalog returns a small catalog for local development. Creation times
// are spread backwards from now so recency ordering is observable.
func DemoCatalog(now time.Time) []models.Item {
	day := 24 * time.Hour
	return []models.Item{
		{ID: 1, Title: "Gravity Blocks", Slug: "gravity-blocks", Tags: []string{"puzzle", "physics"}, Categories: []int64{CategoryPuzzle}, PlayCount: 4200, Featured: true, Published: true, CreatedAt: now.Add(-30 * day)},
		{ID: 2, Title: "Pipe Dreams", Slug: "pipe-dreams", Tags: []string{"puzzle", "logic"}, Categories: []int64{CategoryPuzzle}, PlayCount: 1800, Published: true, CreatedAt: now.Add(-12 * day)},
		{ID: 3, Title: "Neon Drift", Slug: "neon-drift", Tags: []string{"racing", "neon"}, Categories: []int64{CategoryRacing}, PlayCount: 9100, Featured: true, Published: true, CreatedAt: now.Add(-45 * day)},
		{ID: 4, Title: "Desert Rally", Slug: "desert-rally", Tags: []string{"racing", "offroad"}, Categories: []int64{CategoryRacing, CategoryAction}, PlayCount: 2600, Published: true, CreatedAt: now.Add(-8 * day)},
		{ID: 5, Title: "Catapult Kingdom", Slug: "catapult-kingdom", Tags: []string{"physics", "strategy"}, Categories: []int64{CategoryStrategy}, PlayCount: 3100, Published: true, CreatedAt: now.Add(-20 * day)},
		{ID: 6, Title: "Tower Tactics", Slug: "tower-tactics", Tags: []string{"strategy", "defense"}, Categories: []int64{CategoryStrategy}, PlayCount: 5400, Published: true, CreatedAt: now.Add(-60 * day)},
		{ID: 7, Title: "Brick Breaker Classic", Slug: "brick-breaker-classic", Tags: []string{"arcade", "retro"}, Categories: []int64{CategoryArcade}, PlayCount: 12000, Published: true, CreatedAt: now.Add(-90 * day)},
		{ID: 8, Title: "Pixel Jumper", Slug: "pixel-jumper", Tags: []string{"arcade", "platformer"}, Categories: []int64{CategoryArcade, CategoryAction}, PlayCount: 700, Published: true, CreatedAt: now.Add(-2 * day)},
		{ID: 9, Title: "Word Weaver", Slug: "word-weaver", Tags: []string{"puzzle", "words"}, Categories: []int64{CategoryPuzzle}, PlayCount: 950, Published: false, CreatedAt: now.Add(-1 * day)},
	}
}

// SeedMemory loads the demo catalog into m.
func SeedMemory(m *MemoryStore, now time.Time) {
	for _, item := range DemoCatalog(now) {
		m.PutItem(item)
	}
}

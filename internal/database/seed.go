// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// InsertItem writes an item with its tags and categories in one
// transaction. Tags are normalized and de-duplicated first.
func (db *DB) InsertItem(ctx context.Context, item models.Item) (err error) {
	start := time.Now()
	defer func() { observe("insert", "items", start, err) }()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	insert := tx.Rebind(`INSERT INTO items (id, title, slug, play_count, featured, published, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, insert, item.ID, item.Title, item.Slug,
		item.PlayCount, item.Featured, item.Published, item.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert item %d: %w", item.ID, err)
	}

	tagStmt := tx.Rebind(`INSERT INTO item_tags (item_id, ordinal, tag) VALUES (?, ?, ?)`)
	for i, tag := range store.NormalizeTags(item.Tags) {
		if _, err = tx.ExecContext(ctx, tagStmt, item.ID, i, tag); err != nil {
			return fmt.Errorf("failed to insert tag for item %d: %w", item.ID, err)
		}
	}

	catStmt := tx.Rebind(`INSERT INTO item_categories (item_id, category_id) VALUES (?, ?)`)
	seen := make(map[int64]struct{}, len(item.Categories))
	for _, c := range item.Categories {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, err = tx.ExecContext(ctx, catStmt, item.ID, c); err != nil {
			return fmt.Errorf("failed to insert category for item %d: %w", item.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item %d: %w", item.ID, err)
	}
	return nil
}

// SeedDemoData loads the demo catalog when the items table is empty.
// It returns the number of items inserted.
func (db *DB) SeedDemoData(ctx context.Context, now time.Time) (int, error) {
	var count int64
	if err := db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM items`); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	if count > 0 {
		logging.Debug().Int64("items", count).Msg("Catalog not empty, skipping demo seed")
		return 0, nil
	}

	catalog := store.DemoCatalog(now)
	for i := range catalog {
		if err := db.InsertItem(ctx, catalog[i]); err != nil {
			return i, err
		}
	}
	logging.Info().Int("items", len(catalog)).Msg("Seeded demo catalog")
	return len(catalog), nil
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

const itemColumns = `i.id, i.title, i.slug, i.play_count, i.featured, i.published, i.created_at`

// GetItem implements store.ItemReader.
func (db *DB) GetItem(ctx context.Context, id int64) (item models.Item, err error) {
	start := time.Now()
	defer func() { observe("select", "items", start, ignoreNotFound(err)) }()

	query := db.conn.Rebind(`SELECT ` + itemColumns + ` FROM items i WHERE i.id = ?`)
	if err = db.conn.GetContext(ctx, &item, query, id); err != nil {
		return models.Item{}, notFound(err, "item", id)
	}

	items := []models.Item{item}
	if err = db.loadLabels(ctx, items); err != nil {
		return models.Item{}, err
	}
	return items[0], nil
}

// ListCandidates implements store.ItemReader.
func (db *DB) ListCandidates(ctx context.Context, q store.CandidateQuery) (items []models.Item, err error) {
	if q.Empty() {
		return []models.Item{}, nil
	}

	start := time.Now()
	defer func() { observe("select", "items", start, err) }()

	var (
		matches []string
		args    = []interface{}{q.ExcludeID}
	)
	if len(q.Tags) > 0 {
		tags := make([]string, len(q.Tags))
		for i, t := range q.Tags {
			tags[i] = store.NormalizeTag(t)
		}
		matches = append(matches, `i.id IN (SELECT item_id FROM item_tags WHERE tag IN (?))`)
		args = append(args, tags)
	}
	if len(q.Categories) > 0 {
		matches = append(matches, `i.id IN (SELECT item_id FROM item_categories WHERE category_id IN (?))`)
		args = append(args, q.Categories)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM items i WHERE i.published AND i.id <> ? AND (`)
	sb.WriteString(strings.Join(matches, " OR "))
	sb.WriteString(`) ORDER BY i.featured DESC, i.created_at DESC, i.id DESC`)
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}

	return db.selectItems(ctx, sb.String(), args...)
}

// PopularItems implements store.ItemReader.
func (db *DB) PopularItems(ctx context.Context, limit int) (items []models.Item, err error) {
	start := time.Now()
	defer func() { observe("select", "items", start, err) }()

	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.published
		ORDER BY i.featured DESC, i.play_count DESC, i.created_at DESC, i.id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return db.selectItems(ctx, query)
}

// ItemsByIDs implements store.ItemReader.
func (db *DB) ItemsByIDs(ctx context.Context, ids []int64) (items []models.Item, err error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}

	start := time.Now()
	defer func() { observe("select", "items", start, err) }()

	return db.selectItems(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id IN (?)`, ids)
}

// selectItems runs an item query and attaches tags and categories.
func (db *DB) selectItems(ctx context.Context, query string, args ...interface{}) ([]models.Item, error) {
	query, args, err := db.in(query, args...)
	if err != nil {
		return nil, err
	}

	items := []models.Item{}
	if err := db.conn.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	if err := db.loadLabels(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

type tagRow struct {
	ItemID int64  `db:"item_id"`
	Tag    string `db:"tag"`
}

type categoryRow struct {
	ItemID     int64 `db:"item_id"`
	CategoryID int64 `db:"category_id"`
}

// loadLabels fills Tags and Categories for items in place. Tags keep their
// stored order.
func (db *DB) loadLabels(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].Tags = []string{}
		items[i].Categories = []int64{}
	}

	query, args, err := db.in(`SELECT item_id, tag FROM item_tags WHERE item_id IN (?) ORDER BY item_id, ordinal`, ids)
	if err != nil {
		return err
	}
	var tags []tagRow
	if err := db.conn.SelectContext(ctx, &tags, query, args...); err != nil {
		return fmt.Errorf("failed to query item tags: %w", err)
	}
	for _, r := range tags {
		i := index[r.ItemID]
		items[i].Tags = append(items[i].Tags, r.Tag)
	}

	query, args, err = db.in(`SELECT item_id, category_id FROM item_categories WHERE item_id IN (?) ORDER BY item_id, category_id`, ids)
	if err != nil {
		return err
	}
	var cats []categoryRow
	if err := db.conn.SelectContext(ctx, &cats, query, args...); err != nil {
		return fmt.Errorf("failed to query item categories: %w", err)
	}
	for _, r := range cats {
		i := index[r.ItemID]
		items[i].Categories = append(items[i].Categories, r.CategoryID)
	}
	return nil
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaStatements creates the signal store tables. The DDL is the common
// subset of DuckDB and PostgreSQL, so both drivers share it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		play_count BIGINT NOT NULL DEFAULT 0,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		published BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS item_tags (
		item_id BIGINT NOT NULL,
		ordinal INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (item_id, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS item_categories (
		item_id BIGINT NOT NULL,
		category_id BIGINT NOT NULL,
		PRIMARY KEY (item_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		user_id BIGINT NOT NULL,
		item_id BIGINT NOT NULL,
		approve BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, item_id)
	)`,
	`CREATE SEQUENCE IF NOT EXISTS session_ids START 1`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		item_id BIGINT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP
	)`,
}

// indexStatements are created after the tables. sessions.ended_at is left
// unindexed because DuckDB rewrites indexed columns on UPDATE as
// delete+insert, which conflicts with the primary key.
var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag)`,
	`CREATE INDEX IF NOT EXISTS idx_item_categories_category ON item_categories(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_item ON votes(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_item ON sessions(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_started ON sessions(user_id, started_at)`,
}

// createSchema creates tables and indexes if they do not already exist.
func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

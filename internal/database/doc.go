// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package database implements the signal store on a relational database.
//
// # Drivers
//
// Two drivers share one portable SQL dialect:
//
//   - duckdb: embedded, the default for single-node and development use
//   - postgres: via lib/pq, for a shared production store
//
// Queries are written with ? placeholders and passed through sqlx.Rebind, so
// the same text runs on both. Slice arguments are expanded with sqlx.In.
//
// # Schema
//
//   - items: catalog entries, owned by catalog management
//   - item_tags: ordered tags per item
//   - item_categories: category ids per item
//   - votes: one approval row per (user_id, item_id)
//   - sessions: play sessions, ended_at NULL while open
//
// The schema is created on startup only when auto_migrate is set. See
// database_schema.go.
//
// # Errors
//
// Missing rows surface as models.ErrNotFound. Every other failure is
// returned as is; store.Resilient classifies it as an outage.
//
// # Observability
//
// Every query records signal_store_query_duration_seconds and, on failure,
// signal_store_query_errors_total.
package database

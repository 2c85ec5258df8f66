// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

const sessionColumns = `id, user_id, item_id, started_at, ended_at`

// ActiveSessions implements store.SessionStore.
func (db *DB) ActiveSessions(ctx context.Context, itemIDs []int64, endedSince time.Time) (sessions []models.Session, err error) {
	if len(itemIDs) == 0 {
		return []models.Session{}, nil
	}

	start := time.Now()
	defer func() { observe("select", "sessions", start, err) }()

	query, args, err := db.in(`SELECT `+sessionColumns+` FROM sessions
		WHERE item_id IN (?) AND (ended_at IS NULL OR ended_at >= ?)`, itemIDs, endedSince)
	if err != nil {
		return nil, err
	}

	sessions = []models.Session{}
	if err = db.conn.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}
	return sessions, nil
}

// RecentSessions implements store.SessionStore.
func (db *DB) RecentSessions(ctx context.Context, userID int64, limit int) (sessions []models.Session, err error) {
	start := time.Now()
	defer func() { observe("select", "sessions", start, err) }()

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = ?
		ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	sessions = []models.Session{}
	if err = db.conn.SelectContext(ctx, &sessions, db.conn.Rebind(query), userID); err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	return sessions, nil
}

// StartSession implements store.SessionStore. The play count increment and
// the session insert commit together.
func (db *DB) StartSession(ctx context.Context, userID, itemID int64, at time.Time) (session models.Session, err error) {
	start := time.Now()
	defer func() { observe("insert", "sessions", start, ignoreNotFound(err)) }()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE items SET play_count = play_count + 1 WHERE id = ?`), itemID)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to increment play count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return models.Session{}, fmt.Errorf("item %d: %w", itemID, models.ErrNotFound)
	}

	var id int64
	insert := tx.Rebind(`INSERT INTO sessions (id, user_id, item_id, started_at)
		VALUES (nextval('session_ids'), ?, ?, ?) RETURNING id`)
	if err = tx.GetContext(ctx, &id, insert, userID, itemID, at); err != nil {
		return models.Session{}, fmt.Errorf("failed to insert session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.Session{}, fmt.Errorf("failed to commit session: %w", err)
	}
	return models.Session{ID: id, UserID: userID, ItemID: itemID, StartedAt: at}, nil
}

// EndSession implements store.SessionStore.
func (db *DB) EndSession(ctx context.Context, sessionID int64, at time.Time) (session models.Session, err error) {
	start := time.Now()
	defer func() { observe("update", "sessions", start, ignoreNotFound(err)) }()

	if session, err = db.getSession(ctx, sessionID); err != nil {
		return models.Session{}, err
	}
	if session.EndedAt != nil {
		return session, nil
	}

	end := store.ClampEnd(session.StartedAt, at)
	update := db.conn.Rebind(`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`)
	if _, err = db.conn.ExecContext(ctx, update, end, sessionID); err != nil {
		return models.Session{}, fmt.Errorf("failed to end session: %w", err)
	}

	// Re-read so a concurrent close that won the race is reported as stored.
	return db.getSession(ctx, sessionID)
}

func (db *DB) getSession(ctx context.Context, id int64) (models.Session, error) {
	var s models.Session
	query := db.conn.Rebind(`SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`)
	if err := db.conn.GetContext(ctx, &s, query, id); err != nil {
		return models.Session{}, notFound(err, "session", id)
	}
	return s, nil
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

// FindVote implements store.VoteStore.
func (db *DB) FindVote(ctx context.Context, userID, itemID int64) (vote models.Vote, found bool, err error) {
	start := time.Now()
	defer func() { observe("select", "votes", start, err) }()

	query := db.conn.Rebind(`SELECT user_id, item_id, approve, created_at, updated_at
		FROM votes WHERE user_id = ? AND item_id = ?`)
	err = db.conn.GetContext(ctx, &vote, query, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, false, nil
	}
	if err != nil {
		return models.Vote{}, false, fmt.Errorf("failed to find vote: %w", err)
	}
	return vote, true, nil
}

// CreateVote implements store.VoteStore. When a concurrent request inserted
// the same (user, item) first, the row is overwritten instead.
func (db *DB) CreateVote(ctx context.Context, vote models.Vote) (err error) {
	start := time.Now()
	defer func() { observe("insert", "votes", start, err) }()

	query := db.conn.Rebind(`INSERT INTO votes (user_id, item_id, approve, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err = db.conn.ExecContext(ctx, query,
		vote.UserID, vote.ItemID, vote.Approve, vote.CreatedAt, vote.UpdatedAt)
	if isUniqueViolation(err) {
		return db.UpdateVote(ctx, vote.UserID, vote.ItemID, vote.Approve, vote.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// UpdateVote implements store.VoteStore.
func (db *DB) UpdateVote(ctx context.Context, userID, itemID int64, approve bool, at time.Time) (err error) {
	start := time.Now()
	defer func() { observe("update", "votes", start, ignoreNotFound(err)) }()

	query := db.conn.Rebind(`UPDATE votes SET approve = ?, updated_at = ? WHERE user_id = ? AND item_id = ?`)
	res, err := db.conn.ExecContext(ctx, query, approve, at, userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("vote (%d,%d): %w", userID, itemID, models.ErrNotFound)
	}
	return nil
}

// DeleteVote implements store.VoteStore. Deleting a missing vote is a no-op.
func (db *DB) DeleteVote(ctx context.Context, userID, itemID int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", "votes", start, err) }()

	query := db.conn.Rebind(`DELETE FROM votes WHERE user_id = ? AND item_id = ?`)
	if _, err = db.conn.ExecContext(ctx, query, userID, itemID); err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

// TallyVotes implements store.VoteStore.
func (db *DB) TallyVotes(ctx context.Context, itemID int64) (tally models.VoteTally, err error) {
	start := time.Now()
	defer func() { observe("select", "votes", start, err) }()

	query := db.conn.Rebind(`SELECT
			CAST(COALESCE(SUM(CASE WHEN approve THEN 1 ELSE 0 END), 0) AS BIGINT) AS approve_count,
			COUNT(*) AS total_count
		FROM votes WHERE item_id = ?`)
	if err = db.conn.GetContext(ctx, &tally, query, itemID); err != nil {
		return models.VoteTally{}, fmt.Errorf("failed to tally votes: %w", err)
	}
	return tally, nil
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package models

import "time"

// Vote is a single user's approval signal for an item. At most one Vote
// exists per (UserID, ItemID).
type Vote struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	Approve   bool      `json:"approve" db:"approve"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoteTally is the raw result of scanning every vote of one item.
type VoteTally struct {
	Approve int64 `db:"approve_count"`
	Total   int64 `db:"total_count"`
}

// Session records one user interacting with one item. EndedAt is nil while
// the session is open; when set it is never before StartedAt.
type Session struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	ItemID    int64      `json:"item_id" db:"item_id"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool {
	return s.EndedAt == nil
}

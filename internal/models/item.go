// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package models

import "time"

// Item is a playable catalog entry. Items are owned by catalog management;
// the engine only reads them (plus the play counter bump on session start).
type Item struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Slug       string    `json:"slug" db:"slug"`
	Tags       []string  `json:"tags" db:"-"`
	Categories []int64   `json:"categories" db:"-"`
	PlayCount  int64     `json:"play_count" db:"play_count"`
	Featured   bool      `json:"featured" db:"featured"`
	Published  bool      `json:"published" db:"published"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Clone returns a deep copy so callers can hand items out of shared
// storage without aliasing the tag and category slices.
func (i Item) Clone() Item {
	out := i
	out.Tags = append([]string(nil), i.Tags...)
	out.Categories = append([]int64(nil), i.Categories...)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Categories == nil {
		out.Categories = []int64{}
	}
	return out
}

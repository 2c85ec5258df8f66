// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package models defines the data types shared by the discovery engine:
// catalog items, votes, play sessions, the aggregate records attached to
// responses, the API envelope, and the sentinel errors every layer wraps.
//
// Aggregate records (RatingSummary, ItemDetail, ScoredItem) always carry
// every field. Missing signals are represented as zero values, never as
// absent keys, so clients do not need to null-check counts.
package models

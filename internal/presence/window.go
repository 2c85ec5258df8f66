// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package presence

import (
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

// DefaultWindow is how long after a session ends its user still counts as active.
const DefaultWindow = 5 * time.Minute

// WindowStart is the inclusive lower bound of the sliding window ending at asOf.
// Every presence computation derives its cutoff from this function.
func WindowStart(asOf time.Time, window time.Duration) time.Time {
	return asOf.Add(-window)
}

// IsActive reports whether s counts as active at asOf.
//
// A closed session is active when it ended at or after WindowStart. An open
// session is always active unless maxAge is positive and the session started
// more than maxAge before asOf.
func IsActive(s models.Session, asOf time.Time, window, maxAge time.Duration) bool {
	if s.EndedAt == nil {
		if maxAge > 0 && s.StartedAt.Before(asOf.Add(-maxAge)) {
			return false
		}
		return true
	}
	return !s.EndedAt.Before(WindowStart(asOf, window))
}

// CountDistinctUsers counts, per item, the distinct users owning an active
// session at asOf. Every id in itemIDs is present in the result.
func CountDistinctUsers(sessions []models.Session, itemIDs []int64, asOf time.Time, window, maxAge time.Duration) map[int64]int {
	users := make(map[int64]map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		users[id] = make(map[int64]struct{})
	}

	for _, s := range sessions {
		set, wanted := users[s.ItemID]
		if !wanted || !IsActive(s, asOf, window, maxAge) {
			continue
		}
		set[s.UserID] = struct{}{}
	}

	counts := make(map[int64]int, len(users))
	for id, set := range users {
		counts[id] = len(set)
	}
	return counts
}

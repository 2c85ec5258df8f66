// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package models

// EffectiveVote is the caller's vote state on an item after a cast.
type EffectiveVote string

const (
	EffectiveVoteApprove    EffectiveVote = "approve"
	EffectiveVoteDisapprove EffectiveVote = "disapprove"
	EffectiveVoteNone       EffectiveVote = "none"
)

// EffectiveVoteFor maps a recorded polarity to its EffectiveVote.
func EffectiveVoteFor(approve bool) EffectiveVote {
	if approve {
		return EffectiveVoteApprove
	}
	return EffectiveVoteDisapprove
}

// RatingSummary holds the approval aggregates of one item.
// Percentage is round-half-up of Approve/Total*100 and 0 when TotalVotes is 0.
type RatingSummary struct {
	ApproveCount    int64 `json:"approve_count"`
	DisapproveCount int64 `json:"disapprove_count"`
	Percentage      int   `json:"percentage"`
	TotalVotes      int64 `json:"total_votes"`
}

// VoteResult is returned by a vote cast. The embedded summary reflects the
// tally taken after the write.
type VoteResult struct {
	ItemID int64 `json:"item_id"`
	RatingSummary
	EffectiveVote EffectiveVote `json:"effective_vote"`
}

// ItemDetail is an item with its rating and presence aggregates attached.
type ItemDetail struct {
	Item
	RatingSummary
	ActiveCount int `json:"active_count"`
}

// ScoredItem is a ranked candidate from the similarity scorer or the
// recommendation engine.
type ScoredItem struct {
	Item
	RatingSummary
	ActiveCount int     `json:"active_count"`
	Score       float64 `json:"score"`
}

// Recommendations is the response of a recommendation request.
type Recommendations struct {
	Items          []ScoredItem `json:"items"`
	Personalized   bool         `json:"personalized"`
	SeedTags       []string     `json:"seed_tags"`
	SeedCategories []int64      `json:"seed_categories"`
}

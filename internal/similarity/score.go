// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package similarity

import (
	"sort"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/store"
)

// Scoring weights. Overlap terms dominate; the popularity terms are two
// orders of magnitude smaller and only separate topically equal candidates.
const (
	TagWeight       = 3.0
	CategoryWeight  = 2.0
	ApproveWeight   = 0.1
	PlayCountWeight = 0.01
)

// Source is the tag and category profile candidates are matched against:
// either a single item or a recommendation seed.
type Source struct {
	// ExcludeID is never returned as a candidate. Zero excludes nothing.
	ExcludeID  int64
	Tags       []string
	Categories []int64

	tagSet map[string]struct{}
	catSet map[int64]struct{}
}

// NewSource builds a Source, normalizing and de-duplicating the profile.
func NewSource(excludeID int64, tags []string, categories []int64) Source {
	s := Source{
		ExcludeID: excludeID,
		Tags:      store.NormalizeTags(tags),
		tagSet:    make(map[string]struct{}),
		catSet:    make(map[int64]struct{}),
	}
	for _, t := range s.Tags {
		s.tagSet[t] = struct{}{}
	}
	for _, c := range categories {
		if _, dup := s.catSet[c]; dup {
			continue
		}
		s.catSet[c] = struct{}{}
		s.Categories = append(s.Categories, c)
	}
	return s
}

// SourceFromItem profiles an item for its similar-items list.
func SourceFromItem(item models.Item) Source {
	return NewSource(item.ID, item.Tags, item.Categories)
}

// Empty reports whether the source has nothing to match on.
func (s Source) Empty() bool {
	return len(s.Tags) == 0 && len(s.Categories) == 0
}

// Query returns the store query prefetching candidates for s.
func (s Source) Query(prefetch int) store.CandidateQuery {
	return store.CandidateQuery{
		Tags:       s.Tags,
		Categories: s.Categories,
		ExcludeID:  s.ExcludeID,
		Limit:      prefetch,
	}
}

// Overlap counts the distinct tags and categories item shares with s.
func (s Source) Overlap(item models.Item) (tags, categories int) {
	seenTags := make(map[string]struct{}, len(item.Tags))
	for _, t := range item.Tags {
		n := store.NormalizeTag(t)
		if _, ok := s.tagSet[n]; !ok {
			continue
		}
		if _, dup := seenTags[n]; dup {
			continue
		}
		seenTags[n] = struct{}{}
		tags++
	}

	seenCats := make(map[int64]struct{}, len(item.Categories))
	for _, c := range item.Categories {
		if _, ok := s.catSet[c]; !ok {
			continue
		}
		if _, dup := seenCats[c]; dup {
			continue
		}
		seenCats[c] = struct{}{}
		categories++
	}
	return tags, categories
}

// Score applies the weighted similarity formula.
func Score(tagOverlap, categoryOverlap int, approveCount, playCount int64) float64 {
	return TagWeight*float64(tagOverlap) +
		CategoryWeight*float64(categoryOverlap) +
		ApproveWeight*float64(approveCount) +
		PlayCountWeight*float64(playCount)
}

// Rank applies the hard filter to items, scores the survivors and orders
// them by score desc. Ties fall back to featured, then created_at desc,
// then id desc. The full ranking is returned; callers truncate.
//
// A candidate survives the filter only when it is published, is not the
// source, and shares at least one tag or category with the source.
func Rank(items []models.Item, ratings map[int64]models.RatingSummary, src Source) []models.ScoredItem {
	ranked := make([]models.ScoredItem, 0, len(items))
	seen := make(map[int64]struct{}, len(items))

	for _, item := range items {
		if !item.Published || (src.ExcludeID != 0 && item.ID == src.ExcludeID) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		tags, cats := src.Overlap(item)
		if tags == 0 && cats == 0 {
			continue
		}
		seen[item.ID] = struct{}{}

		summary := ratings[item.ID]
		ranked = append(ranked, models.ScoredItem{
			Item:          item.Clone(),
			RatingSummary: summary,
			Score:         Score(tags, cats, summary.ApproveCount, item.PlayCount),
		})
	}

	SortRanked(ranked)
	return ranked
}

// SortRanked orders scored items by score desc with the featured, recency
// and id tie-breakers. The sort is stable so equal keys keep input order.
func SortRanked(ranked []models.ScoredItem) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Featured != b.Featured {
			return a.Featured
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// ClampLimit applies the default when limit is not positive and caps it at maxLimit.
func ClampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		limit = def
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

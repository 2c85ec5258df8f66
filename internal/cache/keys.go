// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package cache

import (
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"
)

// Key prefixes of the engine's memoized computations.
const (
	KeyItemDetail      = "item_detail"
	KeySimilar         = "similar"
	KeyRecommendations = "recommend"
	KeyPresence        = "presence"
)

// GenerateKey derives a deterministic key from the computation name and
// its full parameter tuple. Struct params serialize in field order, so two
// calls with equal params always produce the same key.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// DefaultLimit applies when the request carries no limit.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps the requested limit.
	MaxLimit int `json:"max_limit"`

	// SeedSessions is how many recent sessions feed the seed.
	SeedSessions int `json:"seed_sessions"`

	// MaxSeedTags caps the distinct tags in a seed.
	MaxSeedTags int `json:"max_seed_tags"`

	// MaxSeedCategories caps the distinct categories in a seed.
	MaxSeedCategories int `json:"max_seed_categories"`

	// CacheTTL is the lifetime of a cached recommendation list.
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:      12,
		MaxLimit:          50,
		SeedSessions:      20,
		MaxSeedTags:       10,
		MaxSeedCategories: 6,
		CacheTTL:          3 * time.Minute,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit (%d) must be >= default_limit (%d)", c.MaxLimit, c.DefaultLimit)
	}
	if c.SeedSessions < 1 {
		return fmt.Errorf("seed_sessions must be positive, got %d", c.SeedSessions)
	}
	if c.MaxSeedTags < 0 || c.MaxSeedCategories < 0 {
		return fmt.Errorf("seed caps must not be negative, got tags=%d categories=%d", c.MaxSeedTags, c.MaxSeedCategories)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %v", c.CacheTTL)
	}
	return nil
}

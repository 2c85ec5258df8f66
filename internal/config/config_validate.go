// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package config

import (
	"fmt"
	"net/textproto"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateDiscovery(); err != nil {
		return err
	}

	if err := c.validateBreaker(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates the HTTP listener settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

// validateDatabase validates the signal store settings
func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER=%s", DriverDuckDB)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required when DB_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be one of %s, %s, %s; got %q",
			DriverDuckDB, DriverPostgres, DriverMemory, c.Database.Driver)
	}

	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must not be negative, got %v", c.Database.QueryTimeout)
	}
	if c.Database.MaxQueriesPerSecond < 0 {
		return fmt.Errorf("DB_MAX_QUERIES_PER_SECOND must not be negative, got %v", c.Database.MaxQueriesPerSecond)
	}
	if c.Database.Burst < 0 {
		return fmt.Errorf("DB_BURST must not be negative, got %d", c.Database.Burst)
	}
	return nil
}

// validateCache validates cache sizing and lifetimes
func (c *Config) validateCache() error {
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must not be negative, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.Enabled && c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must be positive when caching is enabled, got %v", c.Cache.SweepInterval)
	}
	ttls := map[string]int64{
		"CACHE_DETAIL_TTL":    int64(c.Cache.DetailTTL),
		"CACHE_SIMILAR_TTL":   int64(c.Cache.SimilarTTL),
		"CACHE_RECOMMEND_TTL": int64(c.Cache.RecommendTTL),
		"CACHE_PRESENCE_TTL":  int64(c.Cache.PresenceTTL),
	}
	for name, ttl := range ttls {
		if ttl < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// validateDiscovery validates ranking limits and the presence window
func (c *Config) validateDiscovery() error {
	d := c.Discovery
	if d.PresenceWindow <= 0 {
		return fmt.Errorf("PRESENCE_WINDOW must be positive, got %v", d.PresenceWindow)
	}
	if d.MaxSessionAge < 0 {
		return fmt.Errorf("PRESENCE_MAX_AGE must not be negative, got %v", d.MaxSessionAge)
	}
	if d.MaxSessionAge > 0 && d.MaxSessionAge < d.PresenceWindow {
		return fmt.Errorf("PRESENCE_MAX_AGE (%v) must be at least PRESENCE_WINDOW (%v)", d.MaxSessionAge, d.PresenceWindow)
	}
	if err := validateLimits("SIMILAR", d.SimilarDefaultLimit, d.SimilarMaxLimit); err != nil {
		return err
	}
	if err := validateLimits("RECOMMEND", d.RecommendDefaultLimit, d.RecommendMaxLimit); err != nil {
		return err
	}
	maxLimit := d.SimilarMaxLimit
	if d.RecommendMaxLimit > maxLimit {
		maxLimit = d.RecommendMaxLimit
	}
	if d.CandidatePrefetch < maxLimit {
		return fmt.Errorf("CANDIDATE_PREFETCH (%d) must be at least the largest max limit (%d)", d.CandidatePrefetch, maxLimit)
	}
	if d.SeedSessions < 1 {
		return fmt.Errorf("RECOMMEND_SEED_SESSIONS must be positive, got %d", d.SeedSessions)
	}
	if d.SeedMaxTags < 0 || d.SeedMaxCategories < 0 {
		return fmt.Errorf("seed caps must not be negative")
	}
	if d.EnrichConcurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be positive, got %d", d.EnrichConcurrency)
	}
	return nil
}

func validateLimits(prefix string, def, maxLimit int) error {
	if def < 1 {
		return fmt.Errorf("%s_DEFAULT_LIMIT must be positive, got %d", prefix, def)
	}
	if maxLimit < def {
		return fmt.Errorf("%s_MAX_LIMIT (%d) must be >= %s_DEFAULT_LIMIT (%d)", prefix, maxLimit, prefix, def)
	}
	return nil
}

// validateBreaker validates circuit breaker settings (only if enabled)
func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("BREAKER_TIMEOUT must be positive, got %v", c.Breaker.Timeout)
	}
	return nil
}

// validateSecurity validates identity and rate limit settings
func (c *Config) validateSecurity() error {
	header := strings.TrimSpace(c.Security.UserHeader)
	if header == "" {
		return fmt.Errorf("USER_HEADER is required")
	}
	c.Security.UserHeader = textproto.CanonicalMIMEHeaderKey(header)

	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	if c.Security.VoteRateLimit < 0 {
		return fmt.Errorf("VOTE_RATE_LIMIT must not be negative, got %d", c.Security.VoteRateLimit)
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package config

import "time"

// Supported database drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production"
}

// DatabaseConfig holds signal store settings
type DatabaseConfig struct {
	// Driver selects the backend: duckdb, postgres or memory.
	Driver string `koanf:"driver"`

	// Path is the DuckDB database file. ":memory:" keeps it in process.
	Path string `koanf:"path"`

	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn"`

	MaxMemory       string        `koanf:"max_memory"` // DuckDB only
	Threads         int           `koanf:"threads"`    // DuckDB threads (0 = use NumCPU)
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`

	// QueryTimeout bounds every store call.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// MaxQueriesPerSecond bounds the store call rate. Zero disables limiting.
	MaxQueriesPerSecond float64 `koanf:"max_queries_per_second"`
	Burst               int     `koanf:"burst"`

	// AutoMigrate creates the schema on startup. The schema is normally
	// owned by catalog management; this is for embedded and dev use.
	AutoMigrate bool `koanf:"auto_migrate"`

	// SeedDemoData loads a small demo catalog into an empty store.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// CacheConfig holds TTL cache settings
type CacheConfig struct {
	// Enabled turns caching off entirely when false (every read computes).
	Enabled bool `koanf:"enabled"`

	// MaxEntries caps live entries. Zero means unbounded.
	MaxEntries int `koanf:"max_entries"`

	// SweepInterval is how often expired entries are reclaimed.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// SingleFlight collapses concurrent misses on the same key.
	SingleFlight bool `koanf:"single_flight"`

	DetailTTL    time.Duration `koanf:"detail_ttl"`
	SimilarTTL   time.Duration `koanf:"similar_ttl"`
	RecommendTTL time.Duration `koanf:"recommend_ttl"`
	PresenceTTL  time.Duration `koanf:"presence_ttl"`

	// InvalidateOnVote drops an item's cached detail after a vote on it.
	InvalidateOnVote bool `koanf:"invalidate_on_vote"`
}

// DiscoveryConfig holds ranking and presence settings
type DiscoveryConfig struct {
	// PresenceWindow is how far back a closed session still counts as active.
	PresenceWindow time.Duration `koanf:"presence_window"`

	// MaxSessionAge stops counting never-closed sessions older than this.
	// Zero keeps them active forever.
	MaxSessionAge time.Duration `koanf:"max_session_age"`

	SimilarDefaultLimit   int `koanf:"similar_default_limit"`
	SimilarMaxLimit       int `koanf:"similar_max_limit"`
	RecommendDefaultLimit int `koanf:"recommend_default_limit"`
	RecommendMaxLimit     int `koanf:"recommend_max_limit"`

	// CandidatePrefetch bounds the candidate pool scored per request.
	CandidatePrefetch int `koanf:"candidate_prefetch"`

	SeedSessions      int `koanf:"seed_sessions"`
	SeedMaxTags       int `koanf:"seed_max_tags"`
	SeedMaxCategories int `koanf:"seed_max_categories"`

	// EnrichConcurrency bounds concurrent per-item vote tallies.
	EnrichConcurrency int `koanf:"enrich_concurrency"`
}

// BreakerConfig holds circuit breaker settings for the signal store
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// SecurityConfig holds request identity and abuse protection settings
type SecurityConfig struct {
	// UserHeader carries the caller's user id from a trusted upstream.
	UserHeader string `koanf:"user_header"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// VoteRateLimit is the per-user vote and session write budget per
	// RateLimitWindow.
	VoteRateLimit int `koanf:"vote_rate_limit"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

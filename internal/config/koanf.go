// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kasrah/config.yaml",
	"/etc/kasrah/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:          DriverDuckDB,
			Path:            "/data/kasrah.duckdb",
			MaxMemory:       "1GB",
			Threads:         0, // 0 = use runtime.NumCPU()
			MaxOpenConns:    0, // 0 = driver-specific default
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			QueryTimeout:    5 * time.Second,
			AutoMigrate:     true,
			SeedDemoData:    false,
		},
		Cache: CacheConfig{
			Enabled:       true,
			MaxEntries:    10000,
			SweepInterval: time.Minute,
			SingleFlight:  true,
			DetailTTL:     5 * time.Minute,
			SimilarTTL:    5 * time.Minute,
			RecommendTTL:  3 * time.Minute,
			PresenceTTL:   3 * time.Minute,
		},
		Discovery: DiscoveryConfig{
			PresenceWindow:        5 * time.Minute,
			MaxSessionAge:         0, // never-closed sessions stay active
			SimilarDefaultLimit:   8,
			SimilarMaxLimit:       50,
			RecommendDefaultLimit: 12,
			RecommendMaxLimit:     50,
			CandidatePrefetch:     200,
			SeedSessions:          20,
			SeedMaxTags:           10,
			SeedMaxCategories:     6,
			EnrichConcurrency:     8,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Security: SecurityConfig{
			UserHeader:        "X-User-ID",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			VoteRateLimit:     60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// HTTP_PORT -> server.port, DB_DRIVER -> database.driver
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Database mappings
	"db_driver":                 "database.driver",
	"db_dsn":                    "database.dsn",
	"duckdb_path":               "database.path",
	"duckdb_max_memory":         "database.max_memory",
	"duckdb_threads":            "database.threads",
	"db_max_open_conns":         "database.max_open_conns",
	"db_max_idle_conns":         "database.max_idle_conns",
	"db_conn_max_lifetime":      "database.conn_max_lifetime",
	"db_query_timeout":          "database.query_timeout",
	"db_max_queries_per_second": "database.max_queries_per_second",
	"db_burst":                  "database.burst",
	"db_auto_migrate":           "database.auto_migrate",
	"seed_demo_data":            "database.seed_demo_data",

	// Cache mappings
	"cache_enabled":            "cache.enabled",
	"cache_max_entries":        "cache.max_entries",
	"cache_sweep_interval":     "cache.sweep_interval",
	"cache_single_flight":      "cache.single_flight",
	"cache_detail_ttl":         "cache.detail_ttl",
	"cache_similar_ttl":        "cache.similar_ttl",
	"cache_recommend_ttl":      "cache.recommend_ttl",
	"cache_presence_ttl":       "cache.presence_ttl",
	"cache_invalidate_on_vote": "cache.invalidate_on_vote",

	// Discovery mappings
	"presence_window":         "discovery.presence_window",
	"presence_max_age":        "discovery.max_session_age",
	"similar_default_limit":   "discovery.similar_default_limit",
	"similar_max_limit":       "discovery.similar_max_limit",
	"recommend_default_limit": "discovery.recommend_default_limit",
	"recommend_max_limit":     "discovery.recommend_max_limit",
	"candidate_prefetch":      "discovery.candidate_prefetch",
	"recommend_seed_sessions": "discovery.seed_sessions",
	"enrich_concurrency":      "discovery.enrich_concurrency",

	// Breaker mappings
	"breaker_enabled":           "breaker.enabled",
	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",
	"breaker_failure_threshold": "breaker.failure_threshold",

	// Security mappings
	"user_header":         "security.user_header",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"vote_rate_limit":     "security.vote_rate_limit",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DB_DRIVER -> database.driver
//   - CACHE_MAX_ENTRIES -> cache.max_entries
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}

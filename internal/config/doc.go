// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package config loads engine configuration from layered sources.
//
// # Precedence
//
// Values are resolved lowest to highest:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
//     /etc/kasrah/config.yaml, /etc/kasrah/config.yml
//  3. Environment variables with an explicit mapping in envTransformFunc
//
// Unmapped environment variables are ignored so the process environment
// cannot pollute the configuration.
//
// # Sections
//
//	server     HTTP listener and timeouts
//	database   signal store driver, connection pool and query bounds
//	cache      TTL cache sizes, lifetimes and sweep interval
//	discovery  presence window, list limits and seed caps
//	breaker    circuit breaker around the signal store
//	security   identity header, CORS and rate limits
//	logging    zerolog level and format
//
// # Usage
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

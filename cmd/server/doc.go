// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package main is the entry point of the discovery and engagement server.
//
// The server answers item detail, similar item, recommendation, vote and
// play session requests for the game catalog. Startup order:
//
//  1. Configuration: Koanf v2 defaults, optional config.yaml, environment
//  2. Logging: zerolog with the configured level and format
//  3. Signal store: DuckDB, Postgres or in-memory, wrapped in a circuit breaker
//  4. Cache: one shared TTL cache for every component
//  5. Discovery service: rating, presence, similarity and recommendation
//  6. Supervisor tree: cache sweeper and HTTP server under suture
//
// # Configuration
//
// Common environment variables:
//
//	HTTP_PORT=8080              # listen port
//	DB_DRIVER=duckdb            # duckdb, postgres or memory
//	DUCKDB_PATH=/data/kasrah.duckdb
//	POSTGRES_DSN=postgres://user:pass@db:5432/kasrah?sslmode=disable
//	CACHE_ENABLED=true
//	PRESENCE_WINDOW=5m
//	LOG_LEVEL=info
//
// # Example Usage
//
// Local development with demo data:
//
//	DB_DRIVER=memory SEED_DEMO_DATA=true LOG_FORMAT=console ./kasrah-server
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
// in-flight requests within SERVER_SHUTDOWN_TIMEOUT, then the store is
// closed.
package main

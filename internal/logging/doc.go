// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package logging provides the zerolog-based structured logging used across
// the discovery engine.
//
// # Overview
//
// The package provides:
//   - A process-wide zerolog logger configured once from main
//   - JSON output for production and console output for development
//   - Request and correlation id propagation through context.Context
//   - An slog bridge so suture's supervisor events land in the same stream
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Int("port", 8080).Msg("Server starting")
//	logging.Ctx(ctx).Warn().Err(err).Int64("item_id", id).Msg("Vote tally failed")
//
// # Component Loggers
//
// Engine components receive a zerolog.Logger through their constructor and
// derive a child logger tagged with their component name:
//
//	logger := logging.WithComponent("similarity")
//	scorer := similarity.NewScorer(cfg, items, ratings, presence, c, logger)
//
// # Testing
//
// NewTestLogger writes JSON lines to any io.Writer so tests can assert on
// emitted fields without touching the global logger.
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
package logging

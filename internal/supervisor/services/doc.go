// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package services adapts long-running components to suture.Service.
//
//   - HTTPServerService runs the API server with graceful shutdown.
//   - CacheSweeperService reclaims expired entries of the shared cache.
//
// Each service returns ctx.Err() when stopped by its supervisor and a
// wrapped error when it fails, which suture answers with a restart.
package services

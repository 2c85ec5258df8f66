// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is built with the integration tag and requires Docker.
// Tests call SkipIfNoDocker first so a plain "go test ./..." stays green on
// machines without a daemon.
//
// # PostgreSQL
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    pg, err := testinfra.NewPostgresContainer(context.Background())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.CleanupContainer(t, pg)
//
//	    db, err := database.New(&config.DatabaseConfig{
//	        Driver: config.DriverPostgres, DSN: pg.DSN, AutoMigrate: true,
//	    })
//	    // ...
//	}
//
// The first run downloads the image. Later runs use the local cache.
package testinfra

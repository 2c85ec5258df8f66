// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

/*
Package supervisor runs the engine's long-lived services under suture v4.

The tree has two layers so that housekeeping failures never restart the
request path:

	kasrah
	├── maintenance-layer
	│   └── CacheSweeperService
	└── api-layer
	    └── HTTPServerService

A service that returns an error is restarted. Repeated failures push its
supervisor into backoff according to TreeConfig. Cancelling the context
passed to Serve stops every service, each bounded by ShutdownTimeout.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMaintenanceService(services.NewCacheSweeperService(c, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

The signal store is not supervised. Its connection pool is owned by the
database package and its failures surface per call through the circuit
breaker in the store package.
*/
package supervisor

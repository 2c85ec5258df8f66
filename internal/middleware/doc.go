// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

/*
Package middleware provides the HTTP middleware shared by every API route.

  - RequestID: reuses or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency histogram and in-flight gauge,
    labelled by chi route pattern
  - UserIdentity: resolves the caller's user id from a trusted header

Usage with chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.UserIdentity("X-User-ID"))

	r.Get("/api/v1/recommendations", func(w http.ResponseWriter, r *http.Request) {
	    userID := middleware.UserIDFromContext(r.Context()) // 0 when anonymous
	    // ...
	})

There is no authentication here. UserIdentity trusts the header, so the
service must sit behind a gateway that sets it.
*/
package middleware

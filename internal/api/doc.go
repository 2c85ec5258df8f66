// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

/*
Package api serves the discovery engine over HTTP with the chi router.

Routes:

	GET  /api/v1/items/{itemID}               item detail with rating and presence
	GET  /api/v1/items/{itemID}/similar       similar items (?limit=, default 8, max 50)
	GET  /api/v1/recommendations              recommendations (?limit=, default 12, max 50)
	POST /api/v1/items/{itemID}/vote          {"approve": true|false}, toggles on repeat
	POST /api/v1/items/{itemID}/sessions      start a play session
	POST /api/v1/sessions/{sessionID}/end     end a play session
	GET  /api/v1/health/live                  liveness
	GET  /api/v1/health/ready                 readiness, pings the signal store
	GET  /metrics                             Prometheus metrics

The caller's user id comes from a trusted header (X-User-ID by default).
Reads work anonymously. Votes and session starts answer 401 without it.

Every response uses the models.APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":3}}

When the signal store is failing, reads still answer 200 with zeroed
aggregates or an empty list and "metadata.degraded": true. Votes answer
503 instead.

Middleware order: request id, real IP, panic recovery, CORS and metrics
on every route, then IP rate limiting, gzip and user identity on the
/api/v1 group, with a per-user limiter on writes.
*/
package api

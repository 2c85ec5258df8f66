// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIdentity reads the caller's user id from a header set by a trusted
// upstream (gateway or session service). A missing, malformed or
// non-positive value leaves the request anonymous.
func UserIdentity(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				logging.Ctx(r.Context()).Debug().
					Str("header", header).
					Msg("Ignoring malformed user identity header")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), id)))
		})
	}
}

// ContextWithUserID stores the caller's user id.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller's user id, or 0 for anonymous.
func UserIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}

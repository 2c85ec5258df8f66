// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// VoteRateLimit bounds vote and session writes per user per window.
	VoteRateLimit int

	// UserHeader identifies the caller for per-user write limits.
	UserHeader string
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-User-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 300,
		RateLimitWindow:   time.Minute,
		VoteRateLimit:     60,
		UserHeader:        "X-User-ID",
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	headers := config.CORSAllowedHeaders
	if config.UserHeader != "" && !containsFold(headers, config.UserHeader) {
		headers = append(append([]string(nil), headers...), config.UserHeader)
	}

	return &ChiMiddleware{
		config: config,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: config.CORSAllowedOrigins,
			AllowedMethods: config.CORSAllowedMethods,
			AllowedHeaders: headers,
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         config.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits every API request by client IP.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || m.config.RateLimitRequests <= 0 {
		return passthrough
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

// RateLimitWrites limits votes and session writes per user. Requests
// without a user header are keyed by IP.
func (m *ChiMiddleware) RateLimitWrites() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || m.config.VoteRateLimit <= 0 {
		return passthrough
	}
	return httprate.Limit(
		m.config.VoteRateLimit,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(m.userOrIPKey),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func (m *ChiMiddleware) userOrIPKey(r *http.Request) (string, error) {
	if user := strings.TrimSpace(r.Header.Get(m.config.UserHeader)); user != "" {
		return "user:" + user, nil
	}
	return httprate.KeyByRealIP(r)
}

func passthrough(next http.Handler) http.Handler {
	return next
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded", nil)
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/middleware"
)

// Router builds the HTTP routing tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	userHeader    string
}

// NewRouter creates a router for svc. A nil config uses
// DefaultChiMiddlewareConfig.
func NewRouter(svc Discovery, config *ChiMiddlewareConfig) *Router {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	header := config.UserHeader
	if header == "" {
		header = "X-User-ID"
	}
	return &Router{
		handler:       NewHandler(svc),
		chiMiddleware: NewChiMiddleware(config),
		userHeader:    header,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(middleware.UserIdentity(router.userHeader))

		r.Get("/items/{itemID}", router.handler.ItemDetail)
		r.Get("/items/{itemID}/similar", router.handler.SimilarItems)
		r.Get("/recommendations", router.handler.Recommendations)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrites())

			r.Post("/items/{itemID}/vote", router.handler.Vote)
			r.Post("/items/{itemID}/sessions", router.handler.StartSession)
			r.Post("/sessions/{sessionID}/end", router.handler.EndSession)
		})
	})

	return r
}

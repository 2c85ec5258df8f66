// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/middleware"
	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/models"
)

const (
	// requestTimeout bounds the engine work behind each API call.
	requestTimeout = 10 * time.Second

	// readyTimeout bounds the store ping behind /health/ready.
	readyTimeout = 2 * time.Second
)

// Discovery is the engine surface the handlers call.
type Discovery interface {
	ItemDetail(ctx context.Context, itemID int64) (models.ItemDetail, bool, error)
	Similar(ctx context.Context, itemID int64, limit int) ([]models.ScoredItem, bool, error)
	Recommend(ctx context.Context, userID int64, limit int) (models.Recommendations, bool, error)
	CastVote(ctx context.Context, userID, itemID int64, approve bool) (models.VoteResult, error)
	StartSession(ctx context.Context, userID, itemID int64) (models.Session, error)
	EndSession(ctx context.Context, sessionID int64) (models.Session, error)
	Ready(ctx context.Context) error
}

// Handler serves the discovery API.
type Handler struct {
	svc     Discovery
	timeout time.Duration
}

// NewHandler creates a handler over svc.
func NewHandler(svc Discovery) *Handler {
	return &Handler{svc: svc, timeout: requestTimeout}
}

// requestContext derives the context the engine calls run under.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// ItemDetail handles GET /api/v1/items/{itemID}.
func (h *Handler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := parseItemRequest(r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	detail, degraded, err := h.svc.ItemDetail(ctx, req.ItemID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, detail, start, degraded)
}

// SimilarItems handles GET /api/v1/items/{itemID}/similar.
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := parseItemRequest(r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	items, degraded, err := h.svc.Similar(ctx, req.ItemID, req.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, items, start, degraded)
}

// Recommendations handles GET /api/v1/recommendations. Anonymous callers
// get the popular list.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := parseRecommendRequest(r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	ctx, cancel := h.requestContext(r)
	defer cancel()
	recs, degraded, err := h.svc.Recommend(ctx, userID, req.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, recs, start, degraded)
}

// Vote handles POST /api/v1/items/{itemID}/vote.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := middleware.UserIDFromContext(r.Context())
	if userID <= 0 {
		respondServiceError(w, r, models.ErrUnauthenticated)
		return
	}

	itemID, err := pathInt64(r, "itemID")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	body, err := decodeVote(w, r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	result, err := h.svc.CastVote(ctx, userID, itemID, *body.Approve)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, start, false)
}

// StartSession handles POST /api/v1/items/{itemID}/sessions.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := middleware.UserIDFromContext(r.Context())
	if userID <= 0 {
		respondServiceError(w, r, models.ErrUnauthenticated)
		return
	}

	itemID, err := pathInt64(r, "itemID")
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	session, err := h.svc.StartSession(ctx, userID, itemID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, session, start, false)
}

// EndSession handles POST /api/v1/sessions/{sessionID}/end.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := parseSessionRequest(r)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	session, err := h.svc.EndSession(ctx, req.SessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, session, start, false)
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now(), false)
}

// HealthReady handles GET /api/v1/health/ready. It fails when the signal
// store does not answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.svc.Ready(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "signal store not ready", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"}, start, false)
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
}

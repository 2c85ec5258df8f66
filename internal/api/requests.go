// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/validation"
)

// maxBodyBytes bounds request bodies. The only body is a vote.
const maxBodyBytes = 4 << 10

// itemRequest is the parsed input of item-scoped reads.
type itemRequest struct {
	ItemID int64 `path:"itemID" validate:"gt=0"`
	Limit  int   `query:"limit" validate:"gte=0"`
}

// recommendRequest is the parsed input of GET /recommendations.
type recommendRequest struct {
	Limit int `query:"limit" validate:"gte=0"`
}

// voteRequest is the body of POST /items/{itemID}/vote. Approve is a
// pointer so a missing field is distinguishable from false.
type voteRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// sessionRequest identifies a session by path.
type sessionRequest struct {
	SessionID int64 `path:"sessionID" validate:"gt=0"`
}

// badRequestError is a decoding failure with a client-facing message.
type badRequestError struct {
	code    string
	message string
}

func (e *badRequestError) Error() string { return e.message }

func invalidParam(name, format string) error {
	return &badRequestError{
		code:    validation.CodeValidation,
		message: fmt.Sprintf("%s must be %s", name, format),
	}
}

// pathInt64 parses a chi URL parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidParam(name, "an integer")
	}
	return v, nil
}

// queryLimit parses ?limit=. A missing value is 0, meaning the default.
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam("limit", "an integer")
	}
	return v, nil
}

func parseItemRequest(r *http.Request) (itemRequest, error) {
	var req itemRequest
	var err error
	if req.ItemID, err = pathInt64(r, "itemID"); err != nil {
		return req, err
	}
	if req.Limit, err = queryLimit(r); err != nil {
		return req, err
	}
	return req, validate(&req)
}

func parseRecommendRequest(r *http.Request) (recommendRequest, error) {
	var req recommendRequest
	var err error
	if req.Limit, err = queryLimit(r); err != nil {
		return req, err
	}
	return req, validate(&req)
}

func parseSessionRequest(r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	var err error
	if req.SessionID, err = pathInt64(r, "sessionID"); err != nil {
		return req, err
	}
	return req, validate(&req)
}

func decodeVote(w http.ResponseWriter, r *http.Request) (voteRequest, error) {
	var req voteRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return req, &badRequestError{code: ErrCodeBadRequest, message: "request body too large"}
		case errors.Is(err, io.EOF):
			return req, &badRequestError{code: ErrCodeBadRequest, message: "request body is required"}
		default:
			return req, &badRequestError{code: ErrCodeBadRequest, message: "request body must be a JSON object"}
		}
	}
	return req, validate(&req)
}

func validate(v interface{}) error {
	if verr := validation.ValidateStruct(v); verr != nil {
		return &badRequestError{code: validation.CodeValidation, message: verr.Error()}
	}
	return nil
}

// respondBadRequest writes a 400 for a badRequestError.
func respondBadRequest(w http.ResponseWriter, err error) {
	var bre *badRequestError
	if errors.As(err, &bre) {
		respondError(w, http.StatusBadRequest, bre.code, bre.message, nil)
		return
	}
	respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request", nil)
}

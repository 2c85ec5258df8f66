// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package validation validates HTTP request structs with go-playground/validator.
//
// A single validator instance is shared process-wide because it caches
// struct metadata. Messages use the json (or query/path) tag name of the
// field, so a vote body missing "approve" reports "approve is required".
//
//	type voteRequest struct {
//	    Approve *bool `json:"approve" validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, validation.CodeValidation, verr.Error(), nil)
//	    return
//	}
package validation

// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers. Wrap them with %w and test with errors.Is.
var (
	// ErrNotFound means the referenced item or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated means a write was attempted without a user identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUpstreamUnavailable means the signal store could not serve the call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidArgument means a request parameter was out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPartial means a result was assembled with some aggregates zeroed
	// because their reads failed. The result is usable but must not be cached.
	ErrPartial = errors.New("partial aggregates")
)

// Unavailable wraps a store failure so it matches both ErrUpstreamUnavailable
// and the underlying cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamUnavailable, err)
}

// Partial marks cause as having zeroed part of an otherwise usable result.
// A nil cause yields nil.
func Partial(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPartial, cause)
}

// IsPartial reports whether err accompanies a usable, partially zeroed result.
func IsPartial(err error) bool {
	return errors.Is(err, ErrPartial)
}

// IsUpstreamFailure reports whether err means the signal store failed, as
// opposed to a client-visible condition like a missing item.
func IsUpstreamFailure(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrUnauthenticated) &&
		!errors.Is(err, ErrInvalidArgument)
}

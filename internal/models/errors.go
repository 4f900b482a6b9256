// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import "errors"

// Failure classes shared by the domain packages. Callers wrap them with %w
// and the websocket and HTTP layers map them with errors.Is.
var (
	// ErrAuthentication means the identity on an authenticate event was missing or malformed.
	ErrAuthentication = errors.New("authentication failed")

	// ErrAuthorization means the caller's role does not permit the action.
	ErrAuthorization = errors.New("not authorized")

	// ErrNotFound means a room, booking, notification or user id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrPersistence means the durable store failed.
	ErrPersistence = errors.New("persistence failure")

	// ErrPartialFailure means every recipient of a fan-out failed.
	ErrPartialFailure = errors.New("delivery failed for all recipients")
)

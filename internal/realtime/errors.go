// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package realtime

import (
	"errors"

	"github.com/tomtom215/wayfarer/internal/booking"
	"github.com/tomtom215/wayfarer/internal/chat"
	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/models"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("connection is already authenticated")
	ErrRateLimited          = errors.New("too many events, slow down")
	ErrReservedRoom         = errors.New("room is reserved")
	errPanic                = errors.New("internal error")
)

// clientErrors are safe to show verbatim.
var clientErrors = []error{
	ErrNotAuthenticated,
	ErrAlreadyAuthenticated,
	ErrRateLimited,
	chat.ErrEmptyMessage,
	booking.ErrSimulationDisabled,
}

// errorMessage maps err to the text of an {error} payload. Sentinel classes
// that carry caller-relevant detail keep their message; storage failures
// never leak driver text.
func errorMessage(err error) string {
	var decodeErr *events.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return decodeErr.Error()
	case errors.Is(err, models.ErrPersistence):
		return "storage is unavailable, please retry"
	case errors.Is(err, models.ErrPartialFailure):
		return models.ErrPartialFailure.Error()
	case errors.Is(err, models.ErrAuthentication),
		errors.Is(err, models.ErrAuthorization),
		errors.Is(err, models.ErrNotFound),
		errors.Is(err, ErrReservedRoom):
		return err.Error()
	}
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return errPanic.Error()
}

// outcome labels an inbound event for metrics.
func outcome(err error) string {
	var decodeErr *events.DecodeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &decodeErr):
		return "invalid"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, models.ErrAuthentication), errors.Is(err, ErrAlreadyAuthenticated):
		return "unauthenticated"
	case errors.Is(err, models.ErrAuthorization), errors.Is(err, ErrReservedRoom):
		return "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

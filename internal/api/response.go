// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/preferences"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// Error codes in APIError.Code.
const (
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization  = "AUTHORIZATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeDatabase       = "DATABASE_ERROR"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

func respondError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	})
}

// respondErr maps a domain error to its status code and logs server-side
// failures with the request's ids.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.ToAPIError())
	case errors.Is(err, preferences.ErrUnknownType):
		respondError(w, http.StatusBadRequest, &models.APIError{Code: ErrCodeValidation, Message: err.Error()})
	case errors.Is(err, models.ErrAuthentication):
		respondError(w, http.StatusUnauthorized, &models.APIError{Code: ErrCodeAuthentication, Message: "authentication required"})
	case errors.Is(err, models.ErrAuthorization):
		respondError(w, http.StatusForbidden, &models.APIError{Code: ErrCodeAuthorization, Message: "not authorized"})
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, &models.APIError{Code: ErrCodeNotFound, Message: err.Error()})
	case errors.Is(err, models.ErrPersistence):
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Storage failure")
		respondError(w, http.StatusInternalServerError, &models.APIError{Code: ErrCodeDatabase, Message: "storage is unavailable, please retry"})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, &models.APIError{Code: ErrCodeInternal, Message: "internal error"})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	respondError(w, http.StatusBadRequest, &models.APIError{Code: ErrCodeBadRequest, Message: message})
}

// decodeJSON reads one JSON object from the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}

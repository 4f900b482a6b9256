// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
)

const readinessTimeout = 2 * time.Second

// HealthLive answers 200 while the process is up.
func (rt *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(rt.startTime).Seconds(),
	}, time.Now())
}

// HealthReady runs every readiness check and answers 503 if any fails.
func (rt *Router) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string, len(rt.deps.Checks))
	ready := true
	for _, c := range rt.deps.Checks {
		if err := c.Check(ctx); err != nil {
			ready = false
			checks[c.Name] = err.Error()
			logging.Ctx(r.Context()).Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			continue
		}
		checks[c.Name] = "ok"
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, &models.APIError{
			Code:    ErrCodeUnavailable,
			Message: "not ready",
			Details: map[string]interface{}{"checks": checks},
		})
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"ready": true, "checks": checks}, start)
}

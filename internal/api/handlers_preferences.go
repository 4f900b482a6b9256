// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/preferences"
)

// ListPreferences returns the caller's preferences, seeding defaults on
// first read.
func (rt *Router) ListPreferences(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	prefs, err := rt.deps.Preferences.List(r.Context(), callerID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, prefs, start)
}

// UpdatePreference applies a partial update to one notification type.
// The type in the path is case-insensitive.
func (rt *Router) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	t := models.NotificationType(strings.ToUpper(chi.URLParam(r, "type")))

	var u preferences.Update
	if err := decodeJSON(r, &u); err != nil {
		badRequest(w, err.Error())
		return
	}

	p, err := rt.deps.Preferences.Update(r.Context(), callerID(r), t, u)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p, start)
}

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// GetPresence returns a user's last known presence.
func (rt *Router) GetPresence(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := rt.deps.Presence.GetPresence(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p, start)
}

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wayfarer/internal/models"
)

// ChatMessages pages backwards through a room's history. ?before takes an
// RFC 3339 timestamp and ?before_id a message id; the next page passes the
// createdAt and id of the oldest message returned.
func (rt *Router) ChatMessages(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), 0)
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	var before models.MessageCursor
	if s := q.Get("before"); s != "" {
		if before.CreatedAt, err = time.Parse(time.RFC3339Nano, s); err != nil {
			badRequest(w, "before must be an RFC 3339 timestamp")
			return
		}
		before.ID = q.Get("before_id")
	}

	msgs, err := rt.deps.Chat.History(r.Context(), chi.URLParam(r, "room"), limit, before)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, msgs, start)
}

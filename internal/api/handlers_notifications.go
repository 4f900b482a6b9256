// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wayfarer/internal/auth"
)

// ListNotifications returns a page of the caller's notifications, newest
// first. ?unread=true restricts to unread ones.
func (rt *Router) ListNotifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), 0)
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		badRequest(w, "offset must be an integer")
		return
	}
	unread, _ := strconv.ParseBool(q.Get("unread"))

	list, err := rt.deps.Notifications.List(r.Context(), callerID(r), unread, limit, offset)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, list, start)
}

// UnreadCount returns {"count": n}.
func (rt *Router) UnreadCount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	n, err := rt.deps.Notifications.UnreadCount(r.Context(), callerID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int{"count": n}, start)
}

// MarkRead marks one notification read. Another user's id is a 404.
func (rt *Router) MarkRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	if err := rt.deps.Notifications.MarkRead(r.Context(), callerID(r), id); err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": id}, start)
}

// MarkAllRead returns {"updated": n}.
func (rt *Router) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	n, err := rt.deps.Notifications.MarkAllRead(r.Context(), callerID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"updated": n}, start)
}

// DeleteNotification removes one of the caller's notifications.
func (rt *Router) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.Notifications.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerID is the session subject. Routes using it sit behind
// auth.Middleware.Authenticate.
func callerID(r *http.Request) string {
	if c := auth.ClaimsFromContext(r.Context()); c != nil {
		return c.UserID()
	}
	return ""
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

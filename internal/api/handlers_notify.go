// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// NotifyRequest is the body of POST /notify/admins. POST /notify/user adds
// userId.
type NotifyRequest struct {
	UserID  string                  `json:"userId,omitempty" validate:"omitempty,max=128"`
	Type    models.NotificationType `json:"type" validate:"required,notiftype"`
	Title   string                  `json:"title" validate:"required,max=200"`
	Message string                  `json:"message" validate:"required,max=2000"`
	Data    map[string]interface{}  `json:"data,omitempty"`
}

// NotifyUser persists a notification for one user and pushes it to their
// connections.
func (rt *Router) NotifyUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := decodeNotify(w, r)
	if !ok {
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}

	n, err := rt.deps.Notifications.SendToUser(r.Context(), req.UserID, req.Type, req.Title, req.Message, req.Data)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("sender", callerID(r)).
		Str("recipient", req.UserID).
		Str("type", string(req.Type)).
		Msg("Notification sent")
	respondData(w, http.StatusCreated, n, start)
}

// NotifyAdmins sends the notification to every admin. It fails only when
// every admin delivery failed.
func (rt *Router) NotifyAdmins(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := decodeNotify(w, r)
	if !ok {
		return
	}

	sent, err := rt.deps.Notifications.SendToAdmins(r.Context(), req.Type, req.Title, req.Message, req.Data)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, map[string]interface{}{"sent": len(sent), "notifications": sent}, start)
}

func decodeNotify(w http.ResponseWriter, r *http.Request) (*NotifyRequest, bool) {
	var req NotifyRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return nil, false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, verr.ToAPIError())
		return nil, false
	}
	return &req, true
}

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/authz"
	"github.com/tomtom215/wayfarer/internal/middleware"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/preferences"
)

const slowRequestThreshold = time.Second

// Notifications is the notification dispatcher.
type Notifications interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	SendToUser(ctx context.Context, userID string, t models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error)
	SendToAdmins(ctx context.Context, t models.NotificationType, title, message string, data map[string]interface{}) ([]*models.Notification, error)
}

// Preferences reads and updates notification preferences.
type Preferences interface {
	List(ctx context.Context, userID string) ([]*models.NotificationPreference, error)
	Update(ctx context.Context, userID string, t models.NotificationType, u preferences.Update) (*models.NotificationPreference, error)
}

// ChatHistory pages through a room's messages.
type ChatHistory interface {
	History(ctx context.Context, room string, limit int, before models.MessageCursor) ([]*models.ChatMessage, error)
}

// PresenceReader returns a user's presence; unknown users are offline.
type PresenceReader interface {
	GetPresence(ctx context.Context, userID string) (models.Presence, error)
}

// ReadinessCheck is one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the components the routes call into.
type Deps struct {
	// WebSocket serves GET /ws.
	WebSocket     http.Handler
	Auth          *auth.Middleware
	Authz         *authz.Enforcer
	Notifications Notifications
	Preferences   Preferences
	Chat          ChatHistory
	Presence      PresenceReader
	Checks        []ReadinessCheck
}

// Router owns the route table.
type Router struct {
	deps         Deps
	chi          *ChiMiddleware
	requireToken bool
	startTime    time.Time
}

// NewRouter creates a Router. requireToken makes /ws reject upgrades
// without a valid session token.
func NewRouter(mw *ChiMiddleware, requireToken bool, deps Deps) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{deps: deps, chi: mw, requireToken: requireToken, startTime: time.Now()}
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.chi.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.Handle("/metrics", promhttp.Handler())

	if rt.deps.WebSocket != nil {
		session := rt.deps.Auth.Optional
		if rt.requireToken {
			session = rt.deps.Auth.Authenticate
		}
		r.With(session).Get("/ws", rt.deps.WebSocket.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.chi.RateLimit())
		r.Use(middleware.SlowRequests(slowRequestThreshold))
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/health/live", rt.HealthLive)
		r.Get("/health/ready", rt.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(rt.deps.Auth.Authenticate)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.ListNotifications)
				r.Get("/unread-count", rt.UnreadCount)
				r.Put("/read-all", rt.MarkAllRead)
				r.Put("/{id}/read", rt.MarkRead)
				r.Delete("/{id}", rt.DeleteNotification)
			})

			r.Get("/preferences", rt.ListPreferences)
			r.Put("/preferences/{type}", rt.UpdatePreference)

			r.Get("/chat/rooms/{room}/messages", rt.ChatMessages)
			r.Get("/presence/{userId}", rt.GetPresence)

			r.Route("/notify", func(r chi.Router) {
				r.Use(rt.deps.Authz.Authorize(authz.ObjNotify, authz.ActSend))
				r.Post("/user", rt.NotifyUser)
				r.Post("/admins", rt.NotifyAdmins)
			})
		})
	})

	return r
}

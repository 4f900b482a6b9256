// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package realtime

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/booking"
	"github.com/tomtom215/wayfarer/internal/chat"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// Users persists the identity asserted on authenticate.
type Users interface {
	UpsertUser(ctx context.Context, u *models.User) error
}

// Rooms is the membership and emission surface of rooms.Router.
type Rooms interface {
	Join(connID, room string) bool
	Leave(connID, room string) bool
	LeaveAll(connID string) []string
	Broadcast(room, event string, payload interface{}, exclude ...string) int
	SendTo(connID, event string, payload interface{}) bool
}

// Presence records online transitions.
type Presence interface {
	MarkOnline(ctx context.Context, userID, connID string, now time.Time) error
	MarkOffline(ctx context.Context, userID string, now time.Time) error
}

// Chat handles messages and typing.
type Chat interface {
	SendMessage(ctx context.Context, sender chat.Sender, room, body string) (*models.ChatMessage, error)
	TouchParticipant(ctx context.Context, room, userID string) error
	StartTyping(sender chat.Sender, room string)
	StopTyping(sender chat.Sender, room string)
	ForgetConnection(connID string)
}

// Bookings handles booking, tour and payment events.
type Bookings interface {
	Create(ctx context.Context, actor booking.Actor, in *events.CreateBooking) (*models.Booking, error)
	RelayUpdate(ctx context.Context, actor booking.Actor, in *events.BookingUpdate) error
	TourUpdate(ctx context.Context, actor booking.Actor, in *events.TourUpdate) error
	UpdateStatus(ctx context.Context, actor booking.Actor, in *events.UpdateBookingStatus) (*models.Booking, error)
	ProcessPayment(ctx context.Context, actor booking.Actor, in *events.ProcessPayment) (*events.PaymentProcessed, error)
	Simulate(ctx context.Context, actor booking.Actor, bookingID string) error
}

// AdminNotifier fans a notification out to every admin.
type AdminNotifier interface {
	SendToAdmins(ctx context.Context, t models.NotificationType, title, message string, data map[string]interface{}) ([]*models.Notification, error)
}

// Authorizer answers role permission checks.
type Authorizer interface {
	Can(role models.Role, object, action string) bool
}

// Deps are the collaborators of a Handler. Authz may be nil to allow every
// action.
type Deps struct {
	Users    Users
	Rooms    Rooms
	Presence Presence
	Chat     Chat
	Bookings Bookings
	Notifier AdminNotifier
	Authz    Authorizer
}

// Handler implements websocket.Handler.
type Handler struct {
	deps  Deps
	limit rate.Limit
	burst int
	now   func() time.Time
	log   zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHandler creates a Handler. A zero EventsPerSecond disables per-connection
// rate limiting.
func NewHandler(cfg *config.WebSocketConfig, deps Deps) *Handler {
	h := &Handler{
		deps:     deps,
		limit:    rate.Inf,
		now:      time.Now,
		log:      logging.WithComponent("realtime"),
		sessions: make(map[string]*session),
	}
	if cfg != nil && cfg.EventsPerSecond > 0 {
		h.limit = rate.Limit(cfg.EventsPerSecond)
		h.burst = cfg.EventBurst
		if h.burst < 1 {
			h.burst = 1
		}
	}
	return h
}

// OnConnect registers an Unauthenticated session for connID.
func (h *Handler) OnConnect(ctx context.Context, connID string, token *auth.Claims) {
	var limiter *rate.Limiter
	if h.limit != rate.Inf {
		limiter = rate.NewLimiter(h.limit, h.burst)
	}
	h.mu.Lock()
	h.sessions[connID] = newSession(connID, token, limiter)
	h.mu.Unlock()

	ev := logging.Ctx(ctx).Debug()
	if token != nil {
		ev = ev.Str("session_subject", token.UserID())
	}
	ev.Msg("Connection opened")
}

// OnMessage decodes and handles one frame. Every failure is reported to
// connID as exactly one error event.
func (h *Handler) OnMessage(ctx context.Context, connID string, frame []byte) {
	s := h.session(connID)
	if s == nil {
		return
	}
	if _, u := s.snapshot(); u != nil {
		ctx = logging.ContextWithConnection(ctx, connID, u.ID)
	}

	start := h.now()
	in, err := events.Decode(frame)
	if err != nil {
		h.fail(ctx, connID, errorEventFor(err), err)
		metrics.RecordInboundEvent(eventLabel(err), outcome(err), time.Since(start))
		return
	}

	kind := in.Kind()
	if !s.allow() {
		err = ErrRateLimited
	} else {
		err = h.safeDispatch(ctx, s, in)
	}
	if err != nil {
		h.fail(ctx, connID, kind.ErrorEvent(), err)
	}
	metrics.RecordInboundEvent(string(kind), outcome(err), time.Since(start))
}

// OnDisconnect cleans up connID. The reason is logged only.
func (h *Handler) OnDisconnect(ctx context.Context, connID, reason string) {
	h.mu.Lock()
	s := h.sessions[connID]
	delete(h.sessions, connID)
	h.mu.Unlock()

	// Typing entries go silently; peers are not sent a stop event.
	h.deps.Chat.ForgetConnection(connID)
	left := h.deps.Rooms.LeaveAll(connID)

	var userID string
	if s != nil {
		if state, u := s.snapshot(); state == StateAuthenticated {
			userID = u.ID
			ctx = logging.ContextWithConnection(ctx, connID, userID)
			// Offline is unconditional even if another connection of the
			// same user is still open.
			if err := h.deps.Presence.MarkOffline(ctx, userID, h.now().UTC()); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("Failed to mark user offline")
			}
		}
	}
	logging.Ctx(ctx).Info().
		Str("reason", reason).
		Int("rooms_left", len(left)).
		Msg("Connection closed")
}

// SessionState reports the state of connID and whether it exists.
func (h *Handler) SessionState(connID string) (State, bool) {
	s := h.session(connID)
	if s == nil {
		return StateUnauthenticated, false
	}
	state, _ := s.snapshot()
	return state, true
}

func (h *Handler) session(connID string) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[connID]
}

// safeDispatch turns a panic inside a handler into an error.
func (h *Handler) safeDispatch(ctx context.Context, s *session, in events.Inbound) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Str("event", string(in.Kind())).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("Recovered panic in event handler")
			err = errPanic
		}
	}()
	return h.dispatch(ctx, s, in)
}

func (h *Handler) fail(ctx context.Context, connID, event string, err error) {
	logging.Ctx(ctx).Debug().Err(err).Str("error_event", event).Msg("Event rejected")
	h.deps.Rooms.SendTo(connID, event, events.ErrorPayload{Error: errorMessage(err)})
}

func errorEventFor(err error) string {
	if de, ok := err.(*events.DecodeError); ok {
		return de.ErrorEvent
	}
	return events.EventError
}

func eventLabel(err error) string {
	if de, ok := err.(*events.DecodeError); ok && de.ErrorEvent != events.EventError {
		return de.Event
	}
	return "unknown"
}

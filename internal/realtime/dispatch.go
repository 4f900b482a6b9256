// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/wayfarer/internal/authz"
	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

func (h *Handler) dispatch(ctx context.Context, s *session, in events.Inbound) error {
	if a, ok := in.(*events.Authenticate); ok {
		return h.authenticate(ctx, s, a)
	}

	state, u := s.snapshot()
	if state != StateAuthenticated {
		return ErrNotAuthenticated
	}

	switch ev := in.(type) {
	case *events.JoinRoom:
		return h.joinRoom(ctx, s, u, ev.Room)
	case *events.LeaveRoom:
		return h.leaveRoom(s, u, ev.Room)
	case *events.SendMessage:
		if err := checkRoom(u, ev.Room); err != nil {
			return err
		}
		_, err := h.deps.Chat.SendMessage(ctx, s.sender(u), ev.Room, ev.Message)
		return err
	case *events.TypingStart:
		if err := checkRoom(u, ev.Room); err != nil {
			return err
		}
		h.deps.Chat.StartTyping(s.sender(u), ev.Room)
		return nil
	case *events.TypingStop:
		if err := checkRoom(u, ev.Room); err != nil {
			return err
		}
		h.deps.Chat.StopTyping(s.sender(u), ev.Room)
		return nil
	case *events.BookingUpdate:
		return h.deps.Bookings.RelayUpdate(ctx, actor(u), ev)
	case *events.TourUpdate:
		return h.deps.Bookings.TourUpdate(ctx, actor(u), ev)
	case *events.AdminNotification:
		return h.adminNotification(ctx, u, ev)
	case *events.CreateBooking:
		_, err := h.deps.Bookings.Create(ctx, actor(u), ev)
		return err
	case *events.UpdateBookingStatus:
		_, err := h.deps.Bookings.UpdateStatus(ctx, actor(u), ev)
		return err
	case *events.ProcessPayment:
		_, err := h.deps.Bookings.ProcessPayment(ctx, actor(u), ev)
		return err
	case *events.SimulateBookingFlow:
		return h.deps.Bookings.Simulate(ctx, actor(u), ev.BookingID)
	default:
		return fmt.Errorf("%w: %s", events.ErrUnknownEvent, in.Kind())
	}
}

// authenticate trusts the payload identity. A session token whose subject
// disagrees is logged and otherwise ignored.
func (h *Handler) authenticate(ctx context.Context, s *session, in *events.Authenticate) error {
	if state, _ := s.snapshot(); state != StateUnauthenticated {
		return ErrAlreadyAuthenticated
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("%w: id is required", models.ErrAuthentication)
	}
	if s.token != nil && s.token.UserID() != id {
		logging.Ctx(ctx).Warn().
			Str("session_subject", s.token.UserID()).
			Str("asserted_id", id).
			Msg("Authenticate payload disagrees with session token, using payload")
	}

	now := h.now().UTC()
	u := &models.User{
		ID:        id,
		Email:     in.Email,
		Name:      in.Name,
		Role:      in.Role,
		Avatar:    in.Avatar,
		UpdatedAt: now,
	}
	if err := h.deps.Users.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("%w: upsert user: %w", models.ErrPersistence, err)
	}
	if !s.authenticate(u) {
		return ErrAlreadyAuthenticated
	}

	ctx = logging.ContextWithConnection(ctx, s.connID, u.ID)
	h.deps.Rooms.Join(s.connID, rooms.UserRoom(u.ID))
	if u.Role == models.RoleAdmin {
		h.deps.Rooms.Join(s.connID, rooms.AdminRoom)
	}
	if err := h.deps.Presence.MarkOnline(ctx, u.ID, s.connID, now); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to mark user online")
	}

	summary := u.Summary()
	h.deps.Rooms.SendTo(s.connID, events.EventAuthenticated, events.Authenticated{Success: true, User: &summary})
	logging.Ctx(ctx).Info().Str("role", string(u.Role)).Msg("Connection authenticated")
	return nil
}

// reserved rooms are joined by authenticate only.
func reservedRoom(u *models.User, room string) bool {
	if room == rooms.AdminRoom {
		return u.Role != models.RoleAdmin
	}
	return strings.HasPrefix(room, rooms.UserRoom("")) && room != rooms.UserRoom(u.ID)
}

// checkRoom rejects room events aimed at a reserved room u does not own.
func checkRoom(u *models.User, room string) error {
	if reservedRoom(u, room) {
		return fmt.Errorf("%w: %s", ErrReservedRoom, room)
	}
	return nil
}

func (h *Handler) joinRoom(ctx context.Context, s *session, u *models.User, room string) error {
	if err := checkRoom(u, room); err != nil {
		return err
	}
	if !h.deps.Rooms.Join(s.connID, room) {
		return nil
	}
	h.deps.Rooms.Broadcast(room, events.EventUserJoined, events.RoomMembership{
		UserID:   u.ID,
		UserName: u.Name,
		Room:     room,
	}, s.connID)

	// Only stamps rooms that already exist in chat; a live-only room stays live-only.
	if err := h.deps.Chat.TouchParticipant(ctx, room, u.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("room", room).Msg("Failed to record chat participant")
	}
	return nil
}

func (h *Handler) leaveRoom(s *session, u *models.User, room string) error {
	if !h.deps.Rooms.Leave(s.connID, room) {
		return nil
	}
	h.deps.Rooms.Broadcast(room, events.EventUserLeft, events.RoomMembership{
		UserID:   u.ID,
		UserName: u.Name,
		Room:     room,
	}, s.connID)
	return nil
}

func (h *Handler) adminNotification(ctx context.Context, u *models.User, in *events.AdminNotification) error {
	if h.deps.Authz != nil && !h.deps.Authz.Can(u.Role, authz.ObjNotification, authz.ActSendAdmins) {
		return fmt.Errorf("%w: role %q may not notify admins", models.ErrAuthorization, u.Role)
	}
	sent, err := h.deps.Notifier.SendToAdmins(ctx, in.Type, in.Title, in.Message, in.Data)
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Int("admins", len(sent)).Str("type", string(in.Type)).Msg("Admin notification sent")
	return nil
}

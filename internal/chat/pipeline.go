// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package chat persists chat messages and fans them out to live rooms.
//
// Membership is open: sending to a room creates it on first use and makes
// the sender a durable participant. Live delivery follows the in-memory room
// membership only, so a participant with no connection in the room sees the
// message through History.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// ErrEmptyMessage is returned for a message with no visible text.
var ErrEmptyMessage = errors.New("message is empty")

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// Store is the durable side of chat.
type Store interface {
	// FindRoomByName returns (nil, nil) when no room has the name.
	FindRoomByName(ctx context.Context, name string) (*models.ChatRoom, error)
	// CreateRoom inserts room, or returns the existing room when the name is taken.
	CreateRoom(ctx context.Context, room *models.ChatRoom) (*models.ChatRoom, error)
	// UpsertParticipant creates the (room, user) row or stamps its lastSeenAt.
	UpsertParticipant(ctx context.Context, roomID, userID string, now time.Time) (*models.ChatRoomParticipant, error)
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	// ListMessages returns up to limit messages older than before, newest first.
	ListMessages(ctx context.Context, roomID string, limit int, before models.MessageCursor) ([]*models.ChatMessage, error)
}

// Rooms is the live membership and emission surface chat needs.
type Rooms interface {
	Join(connID, room string) bool
	Broadcast(room, event string, payload interface{}, exclude ...string) int
}

// Sender identifies the connection and user behind a chat action.
type Sender struct {
	ConnID string
	UserID string
	Name   string
	Avatar string
}

func (s Sender) summary() models.UserSummary {
	return models.UserSummary{ID: s.UserID, Name: s.Name, Avatar: s.Avatar}
}

// Pipeline handles chat messages and typing indicators.
type Pipeline struct {
	store  Store
	rooms  Rooms
	typing *TypingTracker
	now    func() time.Time
	log    zerolog.Logger

	// createMu serializes resolve-or-create within this process.
	createMu sync.Mutex
}

// NewPipeline creates a Pipeline.
func NewPipeline(store Store, rooms Rooms) *Pipeline {
	return &Pipeline{
		store:  store,
		rooms:  rooms,
		typing: NewTypingTracker(),
		now:    time.Now,
		log:    logging.WithComponent("chat"),
	}
}

// SendMessage persists body in room and broadcasts new_message to every
// connection in the live room, the sender included.
func (p *Pipeline) SendMessage(ctx context.Context, sender Sender, room, body string) (*models.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	now := p.now().UTC()

	chatRoom, err := p.resolveRoom(ctx, room, now)
	if err != nil {
		return nil, err
	}
	if _, err := p.store.UpsertParticipant(ctx, chatRoom.ID, sender.UserID, now); err != nil {
		return nil, fmt.Errorf("%w: upsert participant: %w", models.ErrPersistence, err)
	}

	p.rooms.Join(sender.ConnID, room)

	msg := &models.ChatMessage{
		ID:        uuid.New().String(),
		RoomID:    chatRoom.ID,
		UserID:    sender.UserID,
		Message:   body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: create message: %w", models.ErrPersistence, err)
	}
	metrics.RecordChatMessage()

	p.rooms.Broadcast(room, events.EventNewMessage, events.NewMessage{
		ID:        msg.ID,
		Message:   msg.Message,
		Room:      room,
		RoomID:    chatRoom.ID,
		UserID:    sender.UserID,
		User:      sender.summary(),
		Timestamp: msg.CreatedAt,
	})
	return msg, nil
}

func (p *Pipeline) resolveRoom(ctx context.Context, name string, now time.Time) (*models.ChatRoom, error) {
	p.createMu.Lock()
	defer p.createMu.Unlock()

	existing, err := p.store.FindRoomByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: find room: %w", models.ErrPersistence, err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := p.store.CreateRoom(ctx, &models.ChatRoom{
		ID:          uuid.New().String(),
		Name:        name,
		Description: "Chat room for " + name,
		IsActive:    true,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create room: %w", models.ErrPersistence, err)
	}
	p.log.Info().Str("room", name).Str("room_id", created.ID).Msg("Chat room created")
	return created, nil
}

// TouchParticipant stamps lastSeenAt for userID when room already exists as a
// chat room. Joining a live room never creates a chat room.
func (p *Pipeline) TouchParticipant(ctx context.Context, room, userID string) error {
	chatRoom, err := p.store.FindRoomByName(ctx, room)
	if err != nil {
		return fmt.Errorf("%w: find room: %w", models.ErrPersistence, err)
	}
	if chatRoom == nil {
		return nil
	}
	if _, err := p.store.UpsertParticipant(ctx, chatRoom.ID, userID, p.now().UTC()); err != nil {
		return fmt.Errorf("%w: upsert participant: %w", models.ErrPersistence, err)
	}
	return nil
}

// History returns messages of room older than before, newest first. A zero
// cursor starts from the latest message; the next page continues from the
// last message's Next().
func (p *Pipeline) History(ctx context.Context, room string, limit int, before models.MessageCursor) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if before.CreatedAt.IsZero() {
		before = models.MessageCursor{CreatedAt: p.now().UTC().Add(time.Second)}
	}

	chatRoom, err := p.store.FindRoomByName(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("%w: find room: %w", models.ErrPersistence, err)
	}
	if chatRoom == nil {
		return nil, fmt.Errorf("chat room %q: %w", room, models.ErrNotFound)
	}
	msgs, err := p.store.ListMessages(ctx, chatRoom.ID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %w", models.ErrPersistence, err)
	}
	return msgs, nil
}

// StartTyping broadcasts user_typing_start to room, excluding the sender.
func (p *Pipeline) StartTyping(sender Sender, room string) {
	p.typing.Start(room, sender)
	p.rooms.Broadcast(room, events.EventUserTypingStart, typingPayload(sender, room), sender.ConnID)
}

// StopTyping broadcasts user_typing_stop to room, excluding the sender.
func (p *Pipeline) StopTyping(sender Sender, room string) {
	p.typing.Stop(room, sender.ConnID)
	p.rooms.Broadcast(room, events.EventUserTypingStop, typingPayload(sender, room), sender.ConnID)
}

// ForgetConnection drops the typing entries of connID. It does not broadcast
// user_typing_stop; other members only see the disconnect.
func (p *Pipeline) ForgetConnection(connID string) {
	if n := p.typing.Forget(connID); n > 0 {
		p.log.Debug().Str("connection_id", connID).Int("rooms", n).Msg("Dropped typing state of closed connection")
	}
}

// Typing returns who is typing in room.
func (p *Pipeline) Typing(room string) []events.Typing {
	return p.typing.Snapshot(room)
}

func typingPayload(s Sender, room string) events.Typing {
	return events.Typing{UserID: s.UserID, UserName: s.Name, Room: room}
}

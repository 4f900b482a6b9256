// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/wayfarer/internal/models"
)

// FindRoomByName returns (nil, nil) when no chat room has the name.
func (db *DB) FindRoomByName(ctx context.Context, name string) (*models.ChatRoom, error) {
	var room *models.ChatRoom
	err := db.run(ctx, "select", "chat_rooms", func(ctx context.Context) error {
		found, err := db.findRoom(ctx, name)
		room = found
		return err
	})
	return room, err
}

func (db *DB) findRoom(ctx context.Context, name string) (*models.ChatRoom, error) {
	var r models.ChatRoom
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, description, is_active, created_at
		FROM chat_rooms WHERE name = ?`, name).
		Scan(&r.ID, &r.Name, &r.Description, &r.IsActive, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find chat room %q: %w", name, err)
	}
	return &r, nil
}

// CreateRoom inserts room. When another writer created the name first the
// existing row is returned instead.
func (db *DB) CreateRoom(ctx context.Context, room *models.ChatRoom) (*models.ChatRoom, error) {
	var stored *models.ChatRoom
	err := db.run(ctx, "insert", "chat_rooms", func(ctx context.Context) error {
		if _, err := db.conn.ExecContext(ctx, `
			INSERT INTO chat_rooms (id, name, description, is_active, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (name) DO NOTHING`,
			room.ID, room.Name, room.Description, room.IsActive, room.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to create chat room %q: %w", room.Name, err)
		}
		found, err := db.findRoom(ctx, room.Name)
		if err != nil {
			return err
		}
		if found == nil {
			return fmt.Errorf("chat room %q missing after insert", room.Name)
		}
		stored = found
		return nil
	})
	return stored, err
}

// UpsertParticipant creates the (room, user) row or stamps its last_seen_at.
func (db *DB) UpsertParticipant(ctx context.Context, roomID, userID string, now time.Time) (*models.ChatRoomParticipant, error) {
	var p models.ChatRoomParticipant
	err := db.run(ctx, "upsert", "chat_room_participants", func(ctx context.Context) error {
		if _, err := db.conn.ExecContext(ctx, `
			INSERT INTO chat_room_participants (id, room_id, user_id, joined_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (room_id, user_id) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
			uuid.New().String(), roomID, userID, now.UTC(), now.UTC()); err != nil {
			return fmt.Errorf("failed to upsert participant: %w", err)
		}
		err := db.conn.QueryRowContext(ctx, `
			SELECT id, room_id, user_id, joined_at, last_seen_at
			FROM chat_room_participants WHERE room_id = ? AND user_id = ?`, roomID, userID).
			Scan(&p.ID, &p.RoomID, &p.UserID, &p.JoinedAt, &p.LastSeenAt)
		if err != nil {
			return fmt.Errorf("failed to read participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateMessage inserts an immutable chat message.
func (db *DB) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	return db.run(ctx, "insert", "chat_messages", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO chat_messages (id, room_id, user_id, message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ID, msg.RoomID, msg.UserID, msg.Message, msg.CreatedAt.UTC(), msg.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
		return nil
	})
}

// ListMessages returns up to limit messages older than the cursor, newest
// first. Ties on created_at are broken by id so pages never skip a message.
func (db *DB) ListMessages(ctx context.Context, roomID string, limit int, before models.MessageCursor) ([]*models.ChatMessage, error) {
	var list []*models.ChatMessage
	err := db.run(ctx, "select", "chat_messages", func(ctx context.Context) error {
		rows, err := db.conn.QueryContext(ctx, `
			SELECT id, room_id, user_id, message, created_at, updated_at
			FROM chat_messages
			WHERE room_id = ?
			  AND (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?`, roomID, before.CreatedAt.UTC(), before.CreatedAt.UTC(), before.ID, limit)
		if err != nil {
			return fmt.Errorf("failed to list chat messages: %w", err)
		}
		defer closeRows(rows, "chat_messages")

		for rows.Next() {
			var m models.ChatMessage
			if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Message, &m.CreatedAt, &m.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan chat message: %w", err)
			}
			list = append(list, &m)
		}
		return rows.Err()
	})
	return list, err
}

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/models"
)

// CreateNotification inserts an unread notification.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	var data sql.NullString
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to encode notification data: %w", err)
		}
		data = sql.NullString{String: string(b), Valid: true}
	}
	return db.run(ctx, "insert", "notifications", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
			VALUES (?, ?, ?, ?, ?, ?, false, ?)`,
			n.ID, n.UserID, string(n.Type), n.Title, n.Message, data, n.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		return nil
	})
}

// ListNotifications returns the user's notifications, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := `SELECT id, user_id, type, title, message, data, is_read, created_at, read_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	var list []*models.Notification
	err := db.run(ctx, "select", "notifications", func(ctx context.Context) error {
		rows, err := db.conn.QueryContext(ctx, query, userID, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list notifications: %w", err)
		}
		defer closeRows(rows, "notifications")

		for rows.Next() {
			n, err := scanNotification(rows)
			if err != nil {
				return fmt.Errorf("failed to scan notification: %w", err)
			}
			list = append(list, n)
		}
		return rows.Err()
	})
	return list, err
}

// MarkNotificationRead reports false when the user owns no notification id.
// Marking an already read notification keeps its first read time.
func (db *DB) MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	var found bool
	err := db.run(ctx, "update", "notifications", func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE notifications
			SET is_read = true, read_at = COALESCE(read_at, ?)
			WHERE id = ? AND user_id = ?`, at.UTC(), id, userID)
		if err != nil {
			return fmt.Errorf("failed to mark notification read: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

// MarkAllNotificationsRead returns how many unread notifications changed.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	var changed int64
	err := db.run(ctx, "update", "notifications", func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, `
			UPDATE notifications SET is_read = true, read_at = ?
			WHERE user_id = ? AND is_read = false`, at.UTC(), userID)
		if err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		changed, err = res.RowsAffected()
		return err
	})
	return changed, err
}

// DeleteNotification reports false when the user owns no notification id.
func (db *DB) DeleteNotification(ctx context.Context, userID, id string) (bool, error) {
	var found bool
	err := db.run(ctx, "delete", "notifications", func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx,
			`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete notification: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	return found, err
}

// CountUnread counts the user's unread notifications.
func (db *DB) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.run(ctx, "select", "notifications", func(ctx context.Context) error {
		err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = false`, userID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count unread notifications: %w", err)
		}
		return nil
	})
	return count, err
}

func scanNotification(s scanner) (*models.Notification, error) {
	var (
		n      models.Notification
		typ    string
		data   sql.NullString
		readAt sql.NullTime
	)
	if err := s.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &data, &n.IsRead, &n.CreatedAt, &readAt); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &n.Data); err != nil {
			return nil, fmt.Errorf("failed to decode notification data: %w", err)
		}
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

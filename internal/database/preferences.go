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

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/models"
)

const preferenceColumns = `id, user_id, type, enabled, channels, frequency, quiet_start, quiet_end, created_at, updated_at`

// FindPreference returns (nil, nil) when the user has no row for t. It never
// seeds defaults.
func (db *DB) FindPreference(ctx context.Context, userID string, t models.NotificationType) (*models.NotificationPreference, error) {
	var p *models.NotificationPreference
	err := db.run(ctx, "select", "notification_preferences", func(ctx context.Context) error {
		row := db.conn.QueryRowContext(ctx,
			`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = ? AND type = ?`,
			userID, string(t))
		found, err := scanPreference(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find preference %s/%s: %w", userID, t, err)
		}
		p = found
		return nil
	})
	return p, err
}

// ListPreferences returns the user's rows ordered by type.
func (db *DB) ListPreferences(ctx context.Context, userID string) ([]*models.NotificationPreference, error) {
	var prefs []*models.NotificationPreference
	err := db.run(ctx, "select", "notification_preferences", func(ctx context.Context) error {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = ? ORDER BY type`,
			userID)
		if err != nil {
			return fmt.Errorf("failed to list preferences for %s: %w", userID, err)
		}
		defer closeRows(rows, "notification_preferences")

		for rows.Next() {
			p, err := scanPreference(rows)
			if err != nil {
				return fmt.Errorf("failed to scan preference: %w", err)
			}
			prefs = append(prefs, p)
		}
		return rows.Err()
	})
	return prefs, err
}

// InsertPreferences inserts rows in one transaction, skipping any
// (user, type) that already exists.
func (db *DB) InsertPreferences(ctx context.Context, prefs []*models.NotificationPreference) error {
	return db.run(ctx, "insert", "notification_preferences", func(ctx context.Context) error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, p := range prefs {
			args, err := preferenceArgs(p)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO notification_preferences (`+preferenceColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (user_id, type) DO NOTHING`, args...); err != nil {
				return fmt.Errorf("failed to insert preference %s/%s: %w", p.UserID, p.Type, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit preferences: %w", err)
		}
		return nil
	})
}

// UpsertPreference writes p, replacing the (user, type) row if present.
func (db *DB) UpsertPreference(ctx context.Context, p *models.NotificationPreference) error {
	args, err := preferenceArgs(p)
	if err != nil {
		return err
	}
	return db.run(ctx, "upsert", "notification_preferences", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO notification_preferences (`+preferenceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, type) DO UPDATE SET
				enabled = excluded.enabled,
				channels = excluded.channels,
				frequency = excluded.frequency,
				quiet_start = excluded.quiet_start,
				quiet_end = excluded.quiet_end,
				updated_at = excluded.updated_at`, args...)
		if err != nil {
			return fmt.Errorf("failed to upsert preference %s/%s: %w", p.UserID, p.Type, err)
		}
		return nil
	})
}

func preferenceArgs(p *models.NotificationPreference) ([]interface{}, error) {
	channels, err := json.Marshal(p.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode channels: %w", err)
	}
	var quietStart, quietEnd sql.NullString
	if p.QuietHours != nil {
		quietStart = sql.NullString{String: p.QuietHours.Start, Valid: true}
		quietEnd = sql.NullString{String: p.QuietHours.End, Valid: true}
	}
	return []interface{}{
		p.ID, p.UserID, string(p.Type), p.Enabled, string(channels), string(p.Frequency),
		quietStart, quietEnd, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}, nil
}

func scanPreference(s scanner) (*models.NotificationPreference, error) {
	var (
		p                    models.NotificationPreference
		typ, freq, channels  string
		quietStart, quietEnd sql.NullString
	)
	if err := s.Scan(&p.ID, &p.UserID, &typ, &p.Enabled, &channels, &freq,
		&quietStart, &quietEnd, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Type = models.NotificationType(typ)
	p.Frequency = models.Frequency(freq)
	if err := json.Unmarshal([]byte(channels), &p.Channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	if quietStart.Valid && quietEnd.Valid {
		p.QuietHours = &models.QuietHours{Start: quietStart.String, End: quietEnd.String}
	}
	return &p, nil
}

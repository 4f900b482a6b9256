// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package database

import (
	"context"
	"fmt"
	"strings"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id VARCHAR PRIMARY KEY,
	email VARCHAR NOT NULL DEFAULT '',
	name VARCHAR NOT NULL,
	role VARCHAR NOT NULL,
	avatar VARCHAR NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_preferences (
	id VARCHAR NOT NULL,
	user_id VARCHAR NOT NULL,
	type VARCHAR NOT NULL,
	enabled BOOLEAN NOT NULL,
	channels VARCHAR NOT NULL,
	frequency VARCHAR NOT NULL,
	quiet_start VARCHAR,
	quiet_end VARCHAR,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, type)
);

CREATE TABLE IF NOT EXISTS notifications (
	id VARCHAR PRIMARY KEY,
	user_id VARCHAR NOT NULL,
	type VARCHAR NOT NULL,
	title VARCHAR NOT NULL,
	message VARCHAR NOT NULL,
	data VARCHAR,
	is_read BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMP NOT NULL,
	read_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at);

CREATE TABLE IF NOT EXISTS chat_rooms (
	id VARCHAR PRIMARY KEY,
	name VARCHAR NOT NULL UNIQUE,
	description VARCHAR NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_room_participants (
	id VARCHAR NOT NULL,
	room_id VARCHAR NOT NULL,
	user_id VARCHAR NOT NULL,
	joined_at TIMESTAMP NOT NULL,
	last_seen_at TIMESTAMP NOT NULL,
	PRIMARY KEY (room_id, user_id)
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id VARCHAR PRIMARY KEY,
	room_id VARCHAR NOT NULL,
	user_id VARCHAR NOT NULL,
	message VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages (room_id, created_at);

CREATE TABLE IF NOT EXISTS bookings (
	id VARCHAR PRIMARY KEY,
	user_id VARCHAR NOT NULL,
	tour_id VARCHAR NOT NULL,
	tour_name VARCHAR NOT NULL DEFAULT '',
	status VARCHAR NOT NULL,
	total_amount DOUBLE NOT NULL DEFAULT 0,
	payment_id VARCHAR NOT NULL DEFAULT '',
	travel_date VARCHAR NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// createTables runs each schema statement in order.
func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w\nstatement: %s", err, firstLine(stmt))
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

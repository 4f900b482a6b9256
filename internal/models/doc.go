// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package models defines the data structures shared by every Wayfarer package.

Durable records (stored by internal/database):

  - Notification: an in-app notification row, created only when IN_APP delivery is eligible
  - NotificationPreference: per (user, type) delivery settings with optional quiet hours
  - ChatRoom, ChatRoomParticipant, ChatMessage: chat history and open membership
  - User: the identity last asserted by a connection, used to resolve the admin set
  - Booking: the minimal booking record needed to resolve an owner

Live state:

  - Presence: online flag, last connection id and last-seen time per user

Enumerations are string types with Valid methods so that values arriving over
the wire can be checked before they reach storage:

	if !models.NotificationType(raw).Valid() {
	    return fmt.Errorf("unknown notification type %q", raw)
	}

HTTP envelopes (APIResponse, APIError) live here as well so that handlers and
tests share one definition.
*/
package models

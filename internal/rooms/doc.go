// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package rooms implements room membership and scoped fan-out.

A room is only a name. Membership is a live relation between connection ids
and room names held by a Registry; nothing about it is persisted and it is
dropped when a connection goes away. Two names are well known: UserRoom(id)
("user_<id>"), joined by every connection of that user on authenticate, and
AdminRoom, joined by admin connections.

Router is the only writer of the Registry. Join and Leave are idempotent and
report whether membership changed, so callers can decide whether to announce
the change:

	if router.Join(connID, "vip") {
	    router.Broadcast("vip", events.EventUserJoined, payload, connID)
	}

Broadcast encodes a payload once and hands the frame to every member through
a Deliverer (the websocket hub). The optional exclude argument suppresses the
echo to the originating connection. When a Relay is configured each emission
is also published for peer instances, which deliver it to their own members
through DeliverRemote.
*/
package rooms

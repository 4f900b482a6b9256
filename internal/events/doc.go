// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package events defines the websocket event vocabulary.

Every frame on the wire is an Envelope:

	{"event": "send_message", "data": {"room": "vip", "message": "hello"}}

Inbound frames are decoded into one concrete payload type per event name
(a closed sum type behind the Inbound interface) and validated before any
handler sees them:

	in, err := events.Decode(frame)
	if err != nil {
	    var derr *events.DecodeError
	    errors.As(err, &derr) // derr.ErrorEvent is the event to answer with
	}
	switch p := in.(type) {
	case *events.SendMessage:
	    ...
	}

A malformed payload never reaches a handler; the caller answers with the
kind's error event (for example message_error for send_message) carrying
{"error": "..."}.

Outbound payloads are plain structs encoded with Encode. Event name constants
for both directions live in names.go.
*/
package events

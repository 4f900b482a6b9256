// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package realtime turns websocket frames into domain calls.

Every connection starts Unauthenticated. The only event accepted in that
state is authenticate, which trusts the identity in its payload: the
upgrade request may carry a session token, and when its subject disagrees
with the payload a warning is logged but the payload still wins. A
connection authenticates once; a second authenticate is rejected.

Each inbound frame is decoded into its typed payload, rate limited, and
dispatched. Whatever happens inside the handler, a failure (returned error
or panic) produces exactly one error event to the originating connection,
named after the inbound event:

	authenticate                                   auth_error
	join_room, leave_room                          room_error
	send_message, typing_start, typing_stop        message_error
	booking_update, create_booking,
	update_booking_status, simulate_booking_flow   booking_error
	tour_update                                    tour_error
	admin_notification                             notification_error
	process_payment                                payment_error
	unknown or malformed frames                    error

On disconnect the connection's typing entries are dropped silently, every
room membership is removed, and an authenticated user is marked offline.
*/
package realtime

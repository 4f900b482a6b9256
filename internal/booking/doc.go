// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package booking turns booking, payment and tour events into emissions and
// notifications.
//
// The package keeps only the booking state the fan-out needs: the owner, so
// status changes reach the right personal room, and the status itself. Pricing
// and payment rules live in the storefront.
//
// Routing:
//
//	create_booking         booking_created        -> admin, user_<owner>
//	booking_update         booking_status_changed -> admin
//	update_booking_status  booking_status_changed -> admin
//	                       user_booking_updated   -> user_<owner>
//	process_payment        payment_processed      -> user_<owner>, admin
//	tour_update            tour_updated           -> everyone
//
// Simulator replays CONFIRMED, PAID and COMPLETED for a booking on a timer.
// Every pending flow can be cancelled, and RunWithContext cancels them all on
// shutdown.
package booking

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package events

// Kind names an inbound event.
type Kind string

const (
	KindAuthenticate        Kind = "authenticate"
	KindJoinRoom            Kind = "join_room"
	KindLeaveRoom           Kind = "leave_room"
	KindSendMessage         Kind = "send_message"
	KindTypingStart         Kind = "typing_start"
	KindTypingStop          Kind = "typing_stop"
	KindBookingUpdate       Kind = "booking_update"
	KindTourUpdate          Kind = "tour_update"
	KindAdminNotification   Kind = "admin_notification"
	KindCreateBooking       Kind = "create_booking"
	KindUpdateBookingStatus Kind = "update_booking_status"
	KindProcessPayment      Kind = "process_payment"
	KindSimulateBookingFlow Kind = "simulate_booking_flow"
)

// Outbound event names.
const (
	EventAuthenticated        = "authenticated"
	EventPresenceUpdate       = "presence_update"
	EventUserJoined           = "user_joined"
	EventUserLeft             = "user_left"
	EventNewMessage           = "new_message"
	EventUserTypingStart      = "user_typing_start"
	EventUserTypingStop       = "user_typing_stop"
	EventNotification         = "notification"
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventUserBookingUpdated   = "user_booking_updated"
	EventPaymentProcessed     = "payment_processed"
	EventTourUpdated          = "tour_updated"
)

// Error event names. Each carries ErrorPayload.
const (
	EventAuthError         = "auth_error"
	EventRoomError         = "room_error"
	EventMessageError      = "message_error"
	EventBookingError      = "booking_error"
	EventTourError         = "tour_error"
	EventNotificationError = "notification_error"
	EventPaymentError      = "payment_error"
	EventError             = "error"
)

// ErrorEvent returns the event used to report a failure while handling k.
func (k Kind) ErrorEvent() string {
	switch k {
	case KindAuthenticate:
		return EventAuthError
	case KindJoinRoom, KindLeaveRoom:
		return EventRoomError
	case KindSendMessage, KindTypingStart, KindTypingStop:
		return EventMessageError
	case KindBookingUpdate, KindCreateBooking, KindUpdateBookingStatus, KindSimulateBookingFlow:
		return EventBookingError
	case KindTourUpdate:
		return EventTourError
	case KindAdminNotification:
		return EventNotificationError
	case KindProcessPayment:
		return EventPaymentError
	default:
		return EventError
	}
}

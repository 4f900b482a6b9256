// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package events

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/models"
)

func TestDecodeValidPayloads(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Kind
	}{
		{"authenticate", `{"event":"authenticate","data":{"id":"u1","email":"a@b.co","name":"Ann","role":"admin"}}`, KindAuthenticate},
		{"join", `{"event":"join_room","data":{"room":"vip"}}`, KindJoinRoom},
		{"leave", `{"event":"leave_room","data":{"room":"vip"}}`, KindLeaveRoom},
		{"send", `{"event":"send_message","data":{"room":"vip","message":"hello"}}`, KindSendMessage},
		{"typing start", `{"event":"typing_start","data":{"room":"support"}}`, KindTypingStart},
		{"typing stop", `{"event":"typing_stop","data":{"room":"support"}}`, KindTypingStop},
		{"booking update", `{"event":"booking_update","data":{"bookingId":"b1","status":"CONFIRMED"}}`, KindBookingUpdate},
		{"tour update", `{"event":"tour_update","data":{"tourId":"t1","changes":{"price":10}}}`, KindTourUpdate},
		{"admin notification", `{"event":"admin_notification","data":{"type":"SYSTEM","title":"Maintenance","message":"Tonight"}}`, KindAdminNotification},
		{"create booking", `{"event":"create_booking","data":{"tourId":"t1","totalAmount":120.5}}`, KindCreateBooking},
		{"update status", `{"event":"update_booking_status","data":{"bookingId":"b1","status":"CANCELLED","updateData":{"reason":"weather"}}}`, KindUpdateBookingStatus},
		{"payment", `{"event":"process_payment","data":{"bookingId":"b1","paymentData":{"amount":99.9,"currency":"EUR"}}}`, KindProcessPayment},
		{"simulate", `{"event":"simulate_booking_flow","data":{"bookingId":"b1"}}`, KindSimulateBookingFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if in.Kind() != tt.want {
				t.Errorf("Kind() = %s, want %s", in.Kind(), tt.want)
			}
		})
	}
}

func TestDecodeConcreteType(t *testing.T) {
	in, err := Decode([]byte(`{"event":"process_payment","data":{"bookingId":"b1","paymentData":{"amount":42}}}`))
	if err != nil {
		t.Fatal(err)
	}
	p, ok := in.(*ProcessPayment)
	if !ok {
		t.Fatalf("got %T, want *ProcessPayment", in)
	}
	if p.BookingID != "b1" || p.PaymentData.Amount != 42 {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name       string
		frame      string
		errorEvent string
		contains   string
	}{
		{"not json", `{nope`, EventError, "invalid frame"},
		{"missing event", `{"data":{}}`, EventError, "event is required"},
		{"unknown event", `{"event":"teleport","data":{}}`, EventError, "unknown event"},
		{"missing room", `{"event":"join_room","data":{}}`, EventRoomError, "room is required"},
		{"null data", `{"event":"send_message","data":null}`, EventMessageError, "room is required"},
		{"bad role", `{"event":"authenticate","data":{"id":"u1","name":"Ann","role":"root"}}`, EventAuthError, "role must be admin or user"},
		{"wrong type", `{"event":"send_message","data":{"room":5,"message":"x"}}`, EventMessageError, "invalid send_message payload"},
		{"zero amount", `{"event":"process_payment","data":{"bookingId":"b1","paymentData":{"amount":0}}}`, EventPaymentError, "paymentData.amount must be greater than 0"},
		{"bad type", `{"event":"admin_notification","data":{"type":"SPAM","title":"x","message":"y"}}`, EventNotificationError, "type must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			if err == nil {
				t.Fatal("expected error")
			}
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("error %T is not *DecodeError", err)
			}
			if derr.ErrorEvent != tt.errorEvent {
				t.Errorf("ErrorEvent = %s, want %s", derr.ErrorEvent, tt.errorEvent)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestDecodeUnknownEventIs(t *testing.T) {
	_, err := Decode([]byte(`{"event":"teleport"}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestErrorEventMapping(t *testing.T) {
	tests := map[Kind]string{
		KindAuthenticate:        EventAuthError,
		KindJoinRoom:            EventRoomError,
		KindTypingStop:          EventMessageError,
		KindUpdateBookingStatus: EventBookingError,
		KindSimulateBookingFlow: EventBookingError,
		KindProcessPayment:      EventPaymentError,
		KindAdminNotification:   EventNotificationError,
		KindTourUpdate:          EventTourError,
		Kind("nope"):            EventError,
	}
	for kind, want := range tests {
		if got := kind.ErrorEvent(); got != want {
			t.Errorf("%s.ErrorEvent() = %s, want %s", kind, got, want)
		}
	}
}

func TestEncodeNotification(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := &models.Notification{ID: "n1", Type: models.NotificationTypeBooking, Title: "Confirmed", Message: "See you", CreatedAt: created, IsRead: true}

	frame, err := Encode(EventNotification, NotificationFrom(n))
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Event != "notification" {
		t.Errorf("event = %s", decoded.Event)
	}
	if decoded.Data["read"] != false {
		t.Errorf("push payload must be unread, got %v", decoded.Data["read"])
	}
	if decoded.Data["timestamp"] != "2026-03-01T09:00:00Z" {
		t.Errorf("timestamp = %v", decoded.Data["timestamp"])
	}
}

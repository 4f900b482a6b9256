// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package events

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// Envelope is the frame format for both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is implemented by every inbound payload type.
type Inbound interface {
	Kind() Kind
}

// Authenticate asserts the identity of an already session-authenticated client.
type Authenticate struct {
	ID     string      `json:"id" validate:"required,max=128"`
	Email  string      `json:"email" validate:"omitempty,email"`
	Name   string      `json:"name" validate:"required,max=128"`
	Role   models.Role `json:"role" validate:"required,role"`
	Avatar string      `json:"avatar,omitempty" validate:"omitempty,max=512"`
}

type JoinRoom struct {
	Room string `json:"room" validate:"required,max=128"`
}

type LeaveRoom struct {
	Room string `json:"room" validate:"required,max=128"`
}

type SendMessage struct {
	Room    string `json:"room" validate:"required,max=128"`
	Message string `json:"message" validate:"required,max=4000"`
}

type TypingStart struct {
	Room string `json:"room" validate:"required,max=128"`
}

type TypingStop struct {
	Room string `json:"room" validate:"required,max=128"`
}

// BookingUpdate relays a booking change made elsewhere to the admin room.
type BookingUpdate struct {
	BookingID string `json:"bookingId" validate:"required"`
	Status    string `json:"status" validate:"required,max=32"`
	Message   string `json:"message,omitempty" validate:"max=500"`
}

// TourUpdate announces a tour change to every connection.
type TourUpdate struct {
	TourID  string                 `json:"tourId" validate:"required"`
	Title   string                 `json:"title,omitempty" validate:"max=200"`
	Changes map[string]interface{} `json:"changes,omitempty"`
}

type AdminNotification struct {
	Type    models.NotificationType `json:"type" validate:"required,notiftype"`
	Title   string                  `json:"title" validate:"required,max=200"`
	Message string                  `json:"message" validate:"required,max=2000"`
	Data    map[string]interface{}  `json:"data,omitempty"`
}

// CreateBooking records a booking the storefront just created. BookingID is
// generated when absent.
type CreateBooking struct {
	BookingID   string  `json:"bookingId,omitempty" validate:"max=128"`
	TourID      string  `json:"tourId" validate:"required"`
	TourName    string  `json:"tourName,omitempty" validate:"max=200"`
	TotalAmount float64 `json:"totalAmount" validate:"gte=0"`
	TravelDate  string  `json:"travelDate,omitempty" validate:"max=32"`
}

// UpdateBookingStatus is admin-only.
type UpdateBookingStatus struct {
	BookingID  string                 `json:"bookingId" validate:"required"`
	Status     string                 `json:"status" validate:"required,max=32"`
	UpdateData map[string]interface{} `json:"updateData,omitempty"`
}

type PaymentData struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Method   string  `json:"method,omitempty" validate:"max=32"`
}

type ProcessPayment struct {
	BookingID   string      `json:"bookingId" validate:"required"`
	PaymentData PaymentData `json:"paymentData"`
}

// SimulateBookingFlow schedules a scripted series of status updates for demos.
type SimulateBookingFlow struct {
	BookingID string `json:"bookingId" validate:"required"`
}

func (*Authenticate) Kind() Kind        { return KindAuthenticate }
func (*JoinRoom) Kind() Kind            { return KindJoinRoom }
func (*LeaveRoom) Kind() Kind           { return KindLeaveRoom }
func (*SendMessage) Kind() Kind         { return KindSendMessage }
func (*TypingStart) Kind() Kind         { return KindTypingStart }
func (*TypingStop) Kind() Kind          { return KindTypingStop }
func (*BookingUpdate) Kind() Kind       { return KindBookingUpdate }
func (*TourUpdate) Kind() Kind          { return KindTourUpdate }
func (*AdminNotification) Kind() Kind   { return KindAdminNotification }
func (*CreateBooking) Kind() Kind       { return KindCreateBooking }
func (*UpdateBookingStatus) Kind() Kind { return KindUpdateBookingStatus }
func (*ProcessPayment) Kind() Kind      { return KindProcessPayment }
func (*SimulateBookingFlow) Kind() Kind { return KindSimulateBookingFlow }

var constructors = map[Kind]func() Inbound{
	KindAuthenticate:        func() Inbound { return &Authenticate{} },
	KindJoinRoom:            func() Inbound { return &JoinRoom{} },
	KindLeaveRoom:           func() Inbound { return &LeaveRoom{} },
	KindSendMessage:         func() Inbound { return &SendMessage{} },
	KindTypingStart:         func() Inbound { return &TypingStart{} },
	KindTypingStop:          func() Inbound { return &TypingStop{} },
	KindBookingUpdate:       func() Inbound { return &BookingUpdate{} },
	KindTourUpdate:          func() Inbound { return &TourUpdate{} },
	KindAdminNotification:   func() Inbound { return &AdminNotification{} },
	KindCreateBooking:       func() Inbound { return &CreateBooking{} },
	KindUpdateBookingStatus: func() Inbound { return &UpdateBookingStatus{} },
	KindProcessPayment:      func() Inbound { return &ProcessPayment{} },
	KindSimulateBookingFlow: func() Inbound { return &SimulateBookingFlow{} },
}

// ErrUnknownEvent is returned for an event name outside the vocabulary.
var ErrUnknownEvent = errors.New("unknown event")

// DecodeError reports a frame that could not become an Inbound value.
type DecodeError struct {
	// Event is the event name from the envelope, empty if the envelope itself was unreadable.
	Event string
	// ErrorEvent is the outbound event that reports this failure.
	ErrorEvent string
	Err        error
}

func (e *DecodeError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("invalid frame: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s payload: %v", e.Event, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a frame into its concrete payload and validates it.
func Decode(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &DecodeError{ErrorEvent: EventError, Err: err}
	}
	if env.Event == "" {
		return nil, &DecodeError{ErrorEvent: EventError, Err: errors.New("event is required")}
	}

	kind := Kind(env.Event)
	newPayload, ok := constructors[kind]
	if !ok {
		return nil, &DecodeError{Event: env.Event, ErrorEvent: EventError, Err: ErrUnknownEvent}
	}

	payload := newPayload()
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, &DecodeError{Event: env.Event, ErrorEvent: kind.ErrorEvent(), Err: err}
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		return nil, &DecodeError{Event: env.Event, ErrorEvent: kind.ErrorEvent(), Err: verr}
	}
	return payload, nil
}

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import "time"

// Booking status values emitted by the server. Clients may send others on
// update_booking_status; they are stored as given.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusPaid      = "PAID"
	BookingStatusCompleted = "COMPLETED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking is the slice of a booking the event server needs: who owns it and
// where it stands.
type Booking struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	TourID      string    `json:"tourId"`
	TourName    string    `json:"tourName,omitempty"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	PaymentID   string    `json:"paymentId,omitempty"`
	TravelDate  string    `json:"travelDate,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/wayfarer/internal/authz"
	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

// ErrSimulationDisabled is returned by Simulate when no simulator is running.
var ErrSimulationDisabled = errors.New("booking simulation is disabled")

// Store persists bookings. FindBooking returns (nil, nil) for an unknown id.
type Store interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	FindBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, status, paymentID string, at time.Time) error
}

// Emitter is the subset of rooms.Router the service emits through.
type Emitter interface {
	Broadcast(room, event string, payload interface{}, exclude ...string) int
	BroadcastToUser(userID, event string, payload interface{}) int
	BroadcastToAll(event string, payload interface{}) int
}

// Notifier persists and pushes notifications.
type Notifier interface {
	SendToUser(ctx context.Context, userID string, t models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error)
	SendToAdmins(ctx context.Context, t models.NotificationType, title, message string, data map[string]interface{}) ([]*models.Notification, error)
}

// Authorizer answers role permission checks.
type Authorizer interface {
	Can(role models.Role, object, action string) bool
}

// Actor is the authenticated identity behind an event.
type Actor struct {
	UserID string
	Name   string
	Role   models.Role
}

// Service handles booking events.
type Service struct {
	store  Store
	out    Emitter
	notify Notifier
	authz  Authorizer
	sim    *Simulator
	now    func() time.Time
}

// NewService creates a Service.
func NewService(store Store, out Emitter, notify Notifier, az Authorizer) *Service {
	return &Service{
		store:  store,
		out:    out,
		notify: notify,
		authz:  az,
		now:    time.Now,
	}
}

// Create records a new PENDING booking for the actor and announces it.
func (s *Service) Create(ctx context.Context, actor Actor, in *events.CreateBooking) (*models.Booking, error) {
	if err := s.require(actor, authz.ObjBooking, authz.ActCreate); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &models.Booking{
		ID:          in.BookingID,
		UserID:      actor.UserID,
		TourID:      in.TourID,
		TourName:    in.TourName,
		Status:      models.BookingStatusPending,
		TotalAmount: in.TotalAmount,
		TravelDate:  in.TravelDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("%w: create booking %s: %w", models.ErrPersistence, b.ID, err)
	}

	payload := events.BookingCreated{
		BookingID:   b.ID,
		UserID:      b.UserID,
		UserName:    actor.Name,
		TourID:      b.TourID,
		TourName:    b.TourName,
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		Timestamp:   now,
	}
	s.out.Broadcast(rooms.AdminRoom, events.EventBookingCreated, payload)
	s.out.BroadcastToUser(b.UserID, events.EventBookingCreated, payload)

	s.notifyAdmins(ctx, models.NotificationTypeBooking, "New booking",
		fmt.Sprintf("%s booked %s", actor.Name, tourLabel(b)),
		map[string]interface{}{"bookingId": b.ID, "userId": b.UserID})

	return b, nil
}

// RelayUpdate forwards a booking change made elsewhere to the admin room.
func (s *Service) RelayUpdate(_ context.Context, actor Actor, in *events.BookingUpdate) error {
	if err := s.require(actor, authz.ObjBooking, authz.ActRelayUpdate); err != nil {
		return err
	}
	s.out.Broadcast(rooms.AdminRoom, events.EventBookingStatusChanged, events.BookingStatusChanged{
		BookingID: in.BookingID,
		Status:    in.Status,
		Message:   in.Message,
		UpdatedBy: actor.UserID,
		Timestamp: s.now().UTC(),
	})
	return nil
}

// TourUpdate announces a tour change to every connection.
func (s *Service) TourUpdate(_ context.Context, actor Actor, in *events.TourUpdate) error {
	if err := s.require(actor, authz.ObjTour, authz.ActAnnounce); err != nil {
		return err
	}
	s.out.BroadcastToAll(events.EventTourUpdated, events.TourUpdated{
		TourID:    in.TourID,
		Title:     in.Title,
		Changes:   in.Changes,
		UpdatedBy: actor.UserID,
		Timestamp: s.now().UTC(),
	})
	return nil
}

// UpdateStatus changes a booking's status. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, in *events.UpdateBookingStatus) (*models.Booking, error) {
	if err := s.require(actor, authz.ObjBooking, authz.ActUpdateStatus); err != nil {
		return nil, err
	}

	b, err := s.find(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.UpdateBookingStatus(ctx, b.ID, in.Status, "", now); err != nil {
		return nil, fmt.Errorf("%w: update booking %s: %w", models.ErrPersistence, b.ID, err)
	}
	b.Status = in.Status
	b.UpdatedAt = now

	message := fmt.Sprintf("Your booking for %s is now %s", tourLabel(b), in.Status)
	s.out.Broadcast(rooms.AdminRoom, events.EventBookingStatusChanged, events.BookingStatusChanged{
		BookingID:  b.ID,
		Status:     b.Status,
		UpdateData: in.UpdateData,
		UpdatedBy:  actor.UserID,
		Timestamp:  now,
	})
	s.out.BroadcastToUser(b.UserID, events.EventUserBookingUpdated, events.UserBookingUpdated{
		BookingID: b.ID,
		Status:    b.Status,
		Message:   message,
		Timestamp: now,
	})

	s.notifyUser(ctx, b.UserID, models.NotificationTypeBooking, "Booking updated", message,
		map[string]interface{}{"bookingId": b.ID, "status": b.Status})

	return b, nil
}

// ProcessPayment records a payment against a booking and confirms it.
func (s *Service) ProcessPayment(ctx context.Context, actor Actor, in *events.ProcessPayment) (*events.PaymentProcessed, error) {
	if err := s.require(actor, authz.ObjPayment, authz.ActProcess); err != nil {
		return nil, err
	}

	b, err := s.find(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	paymentID := uuid.New().String()
	if err := s.store.UpdateBookingStatus(ctx, b.ID, models.BookingStatusConfirmed, paymentID, now); err != nil {
		return nil, fmt.Errorf("%w: record payment for %s: %w", models.ErrPersistence, b.ID, err)
	}

	payload := events.PaymentProcessed{
		BookingID: b.ID,
		PaymentID: paymentID,
		Status:    models.BookingStatusConfirmed,
		Amount:    in.PaymentData.Amount,
		Message:   fmt.Sprintf("Payment of %.2f received", in.PaymentData.Amount),
		Timestamp: now,
	}
	s.out.BroadcastToUser(b.UserID, events.EventPaymentProcessed, payload)
	s.out.Broadcast(rooms.AdminRoom, events.EventPaymentProcessed, payload)

	s.notifyUser(ctx, b.UserID, models.NotificationTypePayment, "Payment received", payload.Message,
		map[string]interface{}{"bookingId": b.ID, "paymentId": paymentID, "amount": in.PaymentData.Amount})

	return &payload, nil
}

// EnableSimulation routes Simulate to sim.
func (s *Service) EnableSimulation(sim *Simulator) {
	s.sim = sim
}

// Simulate starts the scripted status flow for a booking.
// Updates go to the booking owner's personal room.
func (s *Service) Simulate(ctx context.Context, actor Actor, bookingID string) error {
	if err := s.require(actor, authz.ObjBooking, authz.ActSimulate); err != nil {
		return err
	}
	if s.sim == nil {
		return ErrSimulationDisabled
	}
	owner, err := s.Owner(ctx, bookingID)
	if err != nil {
		return err
	}
	if !s.sim.Start(bookingID, owner) {
		return ErrSimulationDisabled
	}
	logging.Ctx(ctx).Info().Str("booking_id", bookingID).Str("owner", owner).Msg("Started simulated booking flow")
	return nil
}

// Owner resolves the booking and returns its owner's id.
func (s *Service) Owner(ctx context.Context, bookingID string) (string, error) {
	b, err := s.find(ctx, bookingID)
	if err != nil {
		return "", err
	}
	return b.UserID, nil
}

func (s *Service) require(actor Actor, object, action string) error {
	if s.authz == nil || s.authz.Can(actor.Role, object, action) {
		return nil
	}
	return fmt.Errorf("%w: role %q may not %s %s", models.ErrAuthorization, actor.Role, action, object)
}

func (s *Service) find(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.store.FindBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: find booking %s: %w", models.ErrPersistence, id, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	return b, nil
}

// Notification failures never undo the booking change already emitted.
func (s *Service) notifyUser(ctx context.Context, userID string, t models.NotificationType, title, message string, data map[string]interface{}) {
	if _, err := s.notify.SendToUser(ctx, userID, t, title, message, data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Str("type", string(t)).Msg("Booking notification failed")
	}
}

func (s *Service) notifyAdmins(ctx context.Context, t models.NotificationType, title, message string, data map[string]interface{}) {
	if _, err := s.notify.SendToAdmins(ctx, t, title, message, data); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("type", string(t)).Msg("Admin booking notification failed")
	}
}

func tourLabel(b *models.Booking) string {
	if b.TourName != "" {
		return b.TourName
	}
	return "tour " + b.TourID
}

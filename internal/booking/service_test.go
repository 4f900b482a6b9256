// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package booking

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/authz"
	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

type memStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	failOn   string
}

func newMemStore(seed ...*models.Booking) *memStore {
	s := &memStore{bookings: make(map[string]*models.Booking)}
	for _, b := range seed {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *memStore) CreateBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "create" {
		return errors.New("disk full")
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memStore) FindBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "find" {
		return nil, errors.New("connection reset")
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) UpdateBookingStatus(_ context.Context, id, status, paymentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "update" {
		return errors.New("disk full")
	}
	b := s.bookings[id]
	b.Status = status
	if paymentID != "" {
		b.PaymentID = paymentID
	}
	b.UpdatedAt = at
	return nil
}

type emission struct {
	target  string
	event   string
	payload interface{}
}

type recorder struct {
	mu   sync.Mutex
	sent []emission
}

func (r *recorder) Broadcast(room, event string, payload interface{}, _ ...string) int {
	r.record("room:"+room, event, payload)
	return 1
}

func (r *recorder) BroadcastToUser(userID, event string, payload interface{}) int {
	return r.Broadcast(rooms.UserRoom(userID), event, payload)
}

func (r *recorder) BroadcastToAll(event string, payload interface{}) int {
	r.record("all", event, payload)
	return 1
}

func (r *recorder) record(target, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, emission{target, event, payload})
}

func (r *recorder) to(target, event string) []emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emission
	for _, e := range r.sent {
		if e.target == target && e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type sent struct {
	userID string
	t      models.NotificationType
	title  string
}

type fakeNotifier struct {
	mu       sync.Mutex
	users    []sent
	admins   []sent
	adminErr error
}

func (n *fakeNotifier) SendToUser(_ context.Context, userID string, t models.NotificationType, title, _ string, _ map[string]interface{}) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, sent{userID, t, title})
	return &models.Notification{UserID: userID, Type: t, Title: title}, nil
}

func (n *fakeNotifier) SendToAdmins(_ context.Context, t models.NotificationType, title, _ string, _ map[string]interface{}) ([]*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admins = append(n.admins, sent{"", t, title})
	return nil, n.adminErr
}

func newTestService(t *testing.T, store *memStore) (*Service, *recorder, *fakeNotifier) {
	t.Helper()
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)
	out := &recorder{}
	notify := &fakeNotifier{}
	return NewService(store, out, notify, enforcer), out, notify
}

var (
	alice = Actor{UserID: "u-alice", Name: "Alice", Role: models.RoleUser}
	admin = Actor{UserID: "u-admin", Name: "Ada", Role: models.RoleAdmin}
)

func seededBooking() *models.Booking {
	return &models.Booking{ID: "b1", UserID: alice.UserID, TourID: "t1", TourName: "Fjords", Status: models.BookingStatusPending}
}

func TestCreateBooking(t *testing.T) {
	store := newMemStore()
	svc, out, notify := newTestService(t, store)

	b, err := svc.Create(context.Background(), alice, &events.CreateBooking{TourID: "t1", TourName: "Fjords", TotalAmount: 420})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.ID == "" || b.Status != models.BookingStatusPending || b.UserID != alice.UserID {
		t.Errorf("booking = %+v", b)
	}
	if stored, _ := store.FindBooking(context.Background(), b.ID); stored == nil {
		t.Error("booking not stored")
	}
	if len(out.to("room:admin", events.EventBookingCreated)) != 1 {
		t.Error("booking_created not sent to admins")
	}
	if len(out.to("room:user_u-alice", events.EventBookingCreated)) != 1 {
		t.Error("booking_created not sent to creator")
	}
	if len(notify.admins) != 1 || notify.admins[0].t != models.NotificationTypeBooking {
		t.Errorf("admin notifications = %+v", notify.admins)
	}
}

func TestCreateBookingKeepsGivenID(t *testing.T) {
	svc, _, _ := newTestService(t, newMemStore())
	b, err := svc.Create(context.Background(), alice, &events.CreateBooking{BookingID: "ext-9", TourID: "t1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.ID != "ext-9" {
		t.Errorf("ID = %q", b.ID)
	}
}

func TestCreateBookingSurvivesAdminNotifyFailure(t *testing.T) {
	svc, _, notify := newTestService(t, newMemStore())
	notify.adminErr = models.ErrPartialFailure
	if _, err := svc.Create(context.Background(), alice, &events.CreateBooking{TourID: "t1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestCreateBookingPersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "create"
	svc, out, _ := newTestService(t, store)

	_, err := svc.Create(context.Background(), alice, &events.CreateBooking{TourID: "t1"})
	if !errors.Is(err, models.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if out.count() != 0 {
		t.Error("emitted despite persistence failure")
	}
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	store := newMemStore(seededBooking())
	svc, out, notify := newTestService(t, store)

	_, err := svc.UpdateStatus(context.Background(), alice, &events.UpdateBookingStatus{BookingID: "b1", Status: "CANCELLED"})
	if !errors.Is(err, models.ErrAuthorization) {
		t.Fatalf("err = %v, want ErrAuthorization", err)
	}
	if out.count() != 0 || len(notify.users) != 0 {
		t.Error("side effects on a denied update")
	}
	if b, _ := store.FindBooking(context.Background(), "b1"); b.Status != models.BookingStatusPending {
		t.Errorf("status changed to %s", b.Status)
	}
}

func TestUpdateStatusByAdmin(t *testing.T) {
	store := newMemStore(seededBooking())
	svc, out, notify := newTestService(t, store)

	b, err := svc.UpdateStatus(context.Background(), admin, &events.UpdateBookingStatus{BookingID: "b1", Status: "CANCELLED"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if b.Status != "CANCELLED" {
		t.Errorf("status = %s", b.Status)
	}
	if len(out.to("room:admin", events.EventBookingStatusChanged)) != 1 {
		t.Error("booking_status_changed not sent to admins")
	}
	owner := out.to("room:user_u-alice", events.EventUserBookingUpdated)
	if len(owner) != 1 {
		t.Fatalf("user_booking_updated sent %d times", len(owner))
	}
	if p := owner[0].payload.(events.UserBookingUpdated); p.BookingID != "b1" || p.Status != "CANCELLED" || p.Message == "" {
		t.Errorf("payload = %+v", p)
	}
	if len(out.to("room:user_u-admin", events.EventUserBookingUpdated)) != 0 {
		t.Error("user_booking_updated leaked to the admin's personal room")
	}
	if len(notify.users) != 1 || notify.users[0].userID != alice.UserID {
		t.Errorf("owner notifications = %+v", notify.users)
	}
}

func TestUnknownBookingIsNotFound(t *testing.T) {
	svc, out, _ := newTestService(t, newMemStore())
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, admin, &events.UpdateBookingStatus{BookingID: "nope", Status: "PAID"}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateStatus err = %v", err)
	}
	if _, err := svc.ProcessPayment(ctx, alice, &events.ProcessPayment{BookingID: "nope", PaymentData: events.PaymentData{Amount: 10}}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("ProcessPayment err = %v", err)
	}
	if out.count() != 0 {
		t.Error("emitted for an unknown booking")
	}
}

func TestLookupFailureIsPersistenceError(t *testing.T) {
	store := newMemStore(seededBooking())
	store.failOn = "find"
	svc, _, _ := newTestService(t, store)
	_, err := svc.ProcessPayment(context.Background(), alice, &events.ProcessPayment{BookingID: "b1", PaymentData: events.PaymentData{Amount: 10}})
	if !errors.Is(err, models.ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence", err)
	}
}

func TestProcessPayment(t *testing.T) {
	store := newMemStore(seededBooking())
	svc, out, notify := newTestService(t, store)

	p, err := svc.ProcessPayment(context.Background(), alice, &events.ProcessPayment{
		BookingID:   "b1",
		PaymentData: events.PaymentData{Amount: 99.5, Currency: "EUR"},
	})
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if p.PaymentID == "" || p.Status != models.BookingStatusConfirmed || p.Amount != 99.5 {
		t.Errorf("payload = %+v", p)
	}
	stored, _ := store.FindBooking(context.Background(), "b1")
	if stored.Status != models.BookingStatusConfirmed || stored.PaymentID != p.PaymentID {
		t.Errorf("stored = %+v", stored)
	}
	if len(out.to("room:user_u-alice", events.EventPaymentProcessed)) != 1 || len(out.to("room:admin", events.EventPaymentProcessed)) != 1 {
		t.Error("payment_processed not sent to owner and admins")
	}
	if len(notify.users) != 1 || notify.users[0].t != models.NotificationTypePayment {
		t.Errorf("notifications = %+v", notify.users)
	}
}

func TestRelayAndTourUpdates(t *testing.T) {
	svc, out, _ := newTestService(t, newMemStore())
	ctx := context.Background()

	if err := svc.RelayUpdate(ctx, alice, &events.BookingUpdate{BookingID: "b1", Status: "PAID"}); err != nil {
		t.Fatalf("RelayUpdate: %v", err)
	}
	relayed := out.to("room:admin", events.EventBookingStatusChanged)
	if len(relayed) != 1 || relayed[0].payload.(events.BookingStatusChanged).UpdatedBy != alice.UserID {
		t.Errorf("relayed = %+v", relayed)
	}

	if err := svc.TourUpdate(ctx, admin, &events.TourUpdate{TourID: "t1", Title: "Fjords at dawn"}); err != nil {
		t.Fatalf("TourUpdate: %v", err)
	}
	if len(out.to("all", events.EventTourUpdated)) != 1 {
		t.Error("tour_updated not broadcast to everyone")
	}
}

func TestSimulateRequiresSimulator(t *testing.T) {
	svc, _, _ := newTestService(t, newMemStore(seededBooking()))
	if err := svc.Simulate(context.Background(), alice, "b1"); !errors.Is(err, ErrSimulationDisabled) {
		t.Errorf("err = %v, want ErrSimulationDisabled", err)
	}
}

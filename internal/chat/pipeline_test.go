// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package chat

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

type memStore struct {
	mu           sync.Mutex
	rooms        map[string]*models.ChatRoom
	participants map[string]*models.ChatRoomParticipant // roomID/userID
	messages     []*models.ChatMessage
	roomCreates  int
	failMessages bool
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[string]*models.ChatRoom),
		participants: make(map[string]*models.ChatRoomParticipant),
	}
}

func (s *memStore) FindRoomByName(_ context.Context, name string) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[name], nil
}

func (s *memStore) CreateRoom(_ context.Context, room *models.ChatRoom) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.rooms[room.Name]; existing != nil {
		return existing, nil
	}
	s.rooms[room.Name] = room
	s.roomCreates++
	return room, nil
}

func (s *memStore) UpsertParticipant(_ context.Context, roomID, userID string, now time.Time) (*models.ChatRoomParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roomID + "/" + userID
	p := s.participants[key]
	if p == nil {
		p = &models.ChatRoomParticipant{ID: key, RoomID: roomID, UserID: userID, JoinedAt: now}
		s.participants[key] = p
	}
	p.LastSeenAt = now
	return p, nil
}

func (s *memStore) CreateMessage(_ context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMessages {
		return errors.New("insert failed")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memStore) ListMessages(_ context.Context, roomID string, limit int, before models.MessageCursor) ([]*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.RoomID == roomID && before.After(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// frames is a Deliverer that records what each connection received.
type frames struct {
	mu    sync.Mutex
	conns []string
	got   map[string][]events.Outbound
}

func newFrames(conns ...string) *frames {
	return &frames{conns: conns, got: make(map[string][]events.Outbound)}
}

func (f *frames) Deliver(connID string, frame []byte) bool {
	var out events.Outbound
	if err := json.Unmarshal(frame, &out); err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got[connID] = append(f.got[connID], out)
	return true
}

func (f *frames) ConnectionIDs() []string {
	out := append([]string(nil), f.conns...)
	sort.Strings(out)
	return out
}

func (f *frames) received(connID string) []events.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Outbound(nil), f.got[connID]...)
}

func newTestPipeline(conns ...string) (*Pipeline, *memStore, *rooms.Router, *frames) {
	out := newFrames(conns...)
	router := rooms.NewRouter(rooms.NewMemoryRegistry(), out)
	store := newMemStore()
	return NewPipeline(store, router), store, router, out
}

var alice = Sender{ConnID: "c-alice", UserID: "alice", Name: "Alice"}

func TestFirstAndSecondMessage(t *testing.T) {
	p, store, _, _ := newTestPipeline("c-alice")
	ctx := context.Background()

	if _, err := p.SendMessage(ctx, alice, "brand-new", "first"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if store.roomCreates != 1 || len(store.participants) != 1 || len(store.messages) != 1 {
		t.Fatalf("after first: rooms=%d participants=%d messages=%d", store.roomCreates, len(store.participants), len(store.messages))
	}
	if desc := store.rooms["brand-new"].Description; desc != "Chat room for brand-new" {
		t.Errorf("description = %q", desc)
	}

	if _, err := p.SendMessage(ctx, alice, "brand-new", "second"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if store.roomCreates != 1 || len(store.participants) != 1 || len(store.messages) != 2 {
		t.Errorf("after second: rooms=%d participants=%d messages=%d", store.roomCreates, len(store.participants), len(store.messages))
	}
}

func TestSendMessageReachesLiveRoomOnly(t *testing.T) {
	p, _, router, out := newTestPipeline("c-alice", "c-bob", "c-carol")
	router.Join("c-alice", "vip")
	router.Join("c-bob", "vip")
	router.Join("c-carol", "general")

	msg, err := p.SendMessage(context.Background(), alice, "vip", "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	bob := out.received("c-bob")
	if len(bob) != 1 || bob[0].Event != events.EventNewMessage {
		t.Fatalf("bob received %+v", bob)
	}
	data := bob[0].Data.(map[string]interface{})
	if data["message"] != "hello" || data["id"] != msg.ID || data["room"] != "vip" {
		t.Errorf("new_message = %+v", data)
	}
	if user := data["user"].(map[string]interface{}); user["name"] != "Alice" {
		t.Errorf("user = %+v", user)
	}
	if got := out.received("c-alice"); len(got) != 1 {
		t.Errorf("sender received %d frames, want its own message", len(got))
	}
	if got := out.received("c-carol"); len(got) != 0 {
		t.Errorf("general member received %+v", got)
	}
}

func TestSendMessageJoinsSenderToLiveRoom(t *testing.T) {
	p, _, router, out := newTestPipeline("c-alice")
	if _, err := p.SendMessage(context.Background(), alice, "lobby", "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !router.Registry().IsMember("c-alice", "lobby") {
		t.Error("sender not joined to the live room")
	}
	if len(out.received("c-alice")) != 1 {
		t.Error("sender did not receive the round trip")
	}
}

func TestSendMessageErrors(t *testing.T) {
	p, store, _, out := newTestPipeline("c-alice")
	ctx := context.Background()

	if _, err := p.SendMessage(ctx, alice, "r", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank message err = %v", err)
	}

	store.failMessages = true
	if _, err := p.SendMessage(ctx, alice, "r", "hello"); !errors.Is(err, models.ErrPersistence) {
		t.Errorf("store failure err = %v", err)
	}
	if len(out.received("c-alice")) != 0 {
		t.Error("broadcast sent for an unpersisted message")
	}
}

func TestTypingExcludesSender(t *testing.T) {
	p, _, router, out := newTestPipeline("c-a", "c-b")
	router.Join("c-a", "support")
	router.Join("c-b", "support")
	a := Sender{ConnID: "c-a", UserID: "ua", Name: "A"}

	p.StartTyping(a, "support")

	if got := out.received("c-a"); len(got) != 0 {
		t.Errorf("sender received its own typing echo: %+v", got)
	}
	b := out.received("c-b")
	if len(b) != 1 || b[0].Event != events.EventUserTypingStart {
		t.Fatalf("receiver got %+v", b)
	}
	if data := b[0].Data.(map[string]interface{}); data["userId"] != "ua" || data["room"] != "support" {
		t.Errorf("payload = %+v", data)
	}
	if snap := p.Typing("support"); len(snap) != 1 || snap[0].UserID != "ua" {
		t.Errorf("snapshot = %+v", snap)
	}

	p.StopTyping(a, "support")
	b = out.received("c-b")
	if len(b) != 2 || b[1].Event != events.EventUserTypingStop {
		t.Errorf("receiver got %+v", b)
	}
	if len(p.Typing("support")) != 0 {
		t.Error("typing entry not cleared")
	}
}

func TestForgetConnectionIsSilent(t *testing.T) {
	p, _, router, out := newTestPipeline("c-a", "c-b")
	router.Join("c-a", "support")
	router.Join("c-b", "support")
	a := Sender{ConnID: "c-a", UserID: "ua", Name: "A"}

	p.StartTyping(a, "support")
	p.ForgetConnection("c-a")

	if len(p.Typing("support")) != 0 {
		t.Error("typing entry survived ForgetConnection")
	}
	if got := out.received("c-b"); len(got) != 1 {
		t.Errorf("receiver got %d frames, want only the start", len(got))
	}
}

func TestTouchParticipant(t *testing.T) {
	p, store, _, _ := newTestPipeline("c-alice")
	ctx := context.Background()

	if err := p.TouchParticipant(ctx, "nowhere", "bob"); err != nil {
		t.Fatalf("TouchParticipant: %v", err)
	}
	if store.roomCreates != 0 || len(store.participants) != 0 {
		t.Error("joining an unknown room created durable state")
	}

	_, _ = p.SendMessage(ctx, alice, "vip", "hi")
	if err := p.TouchParticipant(ctx, "vip", "bob"); err != nil {
		t.Fatalf("TouchParticipant: %v", err)
	}
	if len(store.participants) != 2 {
		t.Errorf("participants = %d, want 2", len(store.participants))
	}
}

func TestHistory(t *testing.T) {
	p, _, _, _ := newTestPipeline("c-alice")
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	p.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	for _, body := range []string{"one", "two", "three"} {
		if _, err := p.SendMessage(ctx, alice, "vip", body); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	latest, err := p.History(ctx, "vip", 2, models.MessageCursor{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(latest) != 2 || latest[0].Message != "three" || latest[1].Message != "two" {
		t.Errorf("latest = %v", messages(latest))
	}

	older, _ := p.History(ctx, "vip", 10, latest[1].Next())
	if len(older) != 1 || older[0].Message != "one" {
		t.Errorf("older = %v", messages(older))
	}

	if _, err := p.History(ctx, "missing", 10, models.MessageCursor{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing room err = %v", err)
	}
}

func TestHistoryPagesThroughSameTimestamp(t *testing.T) {
	p, _, _, _ := newTestPipeline("c-alice")
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }
	ctx := context.Background()
	for _, body := range []string{"a", "b", "c", "d", "e"} {
		if _, err := p.SendMessage(ctx, alice, "vip", body); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	seen := make(map[string]bool)
	var cursor models.MessageCursor
	for page := 0; page < 5; page++ {
		msgs, err := p.History(ctx, "vip", 2, cursor)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			if seen[m.ID] {
				t.Errorf("message %q returned twice", m.Message)
			}
			seen[m.ID] = true
		}
		cursor = msgs[len(msgs)-1].Next()
	}
	if len(seen) != 5 {
		t.Errorf("paged %d messages, want 5", len(seen))
	}
}

func messages(ms []*models.ChatMessage) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Message
	}
	return out
}

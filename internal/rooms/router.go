// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Deliverer hands encoded frames to live connections on this instance.
type Deliverer interface {
	// Deliver queues frame for connID and reports whether it was accepted.
	Deliver(connID string, frame []byte) bool
	// ConnectionIDs returns every live connection.
	ConnectionIDs() []string
}

// Scope selects the recipients of an Emission.
type Scope string

const (
	ScopeRoom Scope = "room"
	ScopeAll  Scope = "all"
)

// Emission is one fan-out as seen by peer instances.
type Emission struct {
	Origin  string   `json:"origin"`
	Scope   Scope    `json:"scope"`
	Room    string   `json:"room,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	Event   string   `json:"event"`
	Frame   []byte   `json:"frame"`
}

// Relay forwards emissions to other instances.
type Relay interface {
	Publish(ctx context.Context, e Emission) error
}

// Router resolves room names to connections and emits events to them.
type Router struct {
	registry Registry
	out      Deliverer
	log      zerolog.Logger

	relayMu    sync.RWMutex
	relay      Relay
	instanceID string
}

// NewRouter creates a Router over registry delivering through out.
func NewRouter(registry Registry, out Deliverer) *Router {
	return &Router{
		registry: registry,
		out:      out,
		log:      logging.WithComponent("rooms"),
	}
}

// SetRelay enables cross-instance fan-out. Emissions from this instance are
// tagged with instanceID so they are not delivered twice.
func (r *Router) SetRelay(relay Relay, instanceID string) {
	r.relayMu.Lock()
	defer r.relayMu.Unlock()
	r.relay = relay
	r.instanceID = instanceID
}

// Registry returns the membership table.
func (r *Router) Registry() Registry {
	return r.registry
}

// Join is idempotent; it reports whether membership changed.
func (r *Router) Join(connID, room string) bool {
	changed := r.registry.Join(connID, room)
	if changed {
		metrics.SetActiveRooms(r.registry.RoomCount())
	}
	return changed
}

// Leave is idempotent; leaving a room the connection is not in is a no-op.
func (r *Router) Leave(connID, room string) bool {
	changed := r.registry.Leave(connID, room)
	if changed {
		metrics.SetActiveRooms(r.registry.RoomCount())
	}
	return changed
}

// LeaveAll drops every membership of connID.
func (r *Router) LeaveAll(connID string) []string {
	left := r.registry.LeaveAll(connID)
	metrics.SetActiveRooms(r.registry.RoomCount())
	return left
}

// Broadcast emits event to every connection in room except those in exclude.
// It returns the number of local connections that accepted the frame.
func (r *Router) Broadcast(room, event string, payload interface{}, exclude ...string) int {
	frame, ok := r.encode(event, payload)
	if !ok {
		return 0
	}
	r.publish(Emission{Scope: ScopeRoom, Room: room, Exclude: exclude, Event: event, Frame: frame})
	return r.deliverRoom(room, event, frame, exclude)
}

// BroadcastToUser emits event to every connection of userID.
func (r *Router) BroadcastToUser(userID, event string, payload interface{}) int {
	return r.Broadcast(UserRoom(userID), event, payload)
}

// BroadcastToAll emits event to every live connection.
func (r *Router) BroadcastToAll(event string, payload interface{}) int {
	frame, ok := r.encode(event, payload)
	if !ok {
		return 0
	}
	r.publish(Emission{Scope: ScopeAll, Event: event, Frame: frame})
	return r.deliverAll(event, frame)
}

// SendTo emits event to a single connection on this instance.
func (r *Router) SendTo(connID, event string, payload interface{}) bool {
	frame, ok := r.encode(event, payload)
	if !ok {
		return false
	}
	delivered := r.out.Deliver(connID, frame)
	if delivered {
		metrics.RecordEmission(event, 1)
	}
	return delivered
}

// DeliverRemote delivers an emission received from a peer instance to local
// connections. Emissions that originated here are ignored.
func (r *Router) DeliverRemote(e Emission) int {
	r.relayMu.RLock()
	self := r.instanceID
	r.relayMu.RUnlock()
	if e.Origin != "" && e.Origin == self {
		return 0
	}
	switch e.Scope {
	case ScopeAll:
		return r.deliverAll(e.Event, e.Frame)
	case ScopeRoom:
		return r.deliverRoom(e.Room, e.Event, e.Frame, e.Exclude)
	default:
		r.log.Warn().Str("scope", string(e.Scope)).Msg("Dropping emission with unknown scope")
		return 0
	}
}

func (r *Router) deliverRoom(room, event string, frame []byte, exclude []string) int {
	delivered := 0
	for _, connID := range r.registry.Members(room) {
		if contains(exclude, connID) {
			continue
		}
		if r.out.Deliver(connID, frame) {
			delivered++
		}
	}
	metrics.RecordEmission(event, delivered)
	return delivered
}

func (r *Router) deliverAll(event string, frame []byte) int {
	delivered := 0
	for _, connID := range r.out.ConnectionIDs() {
		if r.out.Deliver(connID, frame) {
			delivered++
		}
	}
	metrics.RecordEmission(event, delivered)
	return delivered
}

func (r *Router) encode(event string, payload interface{}) ([]byte, bool) {
	frame, err := events.Encode(event, payload)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return nil, false
	}
	return frame, true
}

func (r *Router) publish(e Emission) {
	r.relayMu.RLock()
	relay, origin := r.relay, r.instanceID
	r.relayMu.RUnlock()
	if relay == nil {
		return
	}
	e.Origin = origin

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := relay.Publish(ctx, e); err != nil {
		r.log.Warn().Err(err).Str("event", e.Event).Msg("Relay publish failed")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

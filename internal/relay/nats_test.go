// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

//go:build nats

package relay

import (
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

func TestNATSRelayBetweenInstances(t *testing.T) {
	ns, err := StartEmbeddedServer("nats://127.0.0.1:0")
	if err != nil {
		t.Fatalf("StartEmbeddedServer: %v", err)
	}
	t.Cleanup(func() { _ = ns.Close() })

	cfg := &config.NATSConfig{
		Enabled:       true,
		URL:           ns.ClientURL(),
		Subject:       "wayfarer.test.emissions",
		CloseTimeout:  2 * time.Second,
		MaxReconnects: 1,
	}

	sinkA, sinkB := newSink("a1"), newSink("b1")
	routerA := rooms.NewRouter(rooms.NewMemoryRegistry(), sinkA)
	routerB := rooms.NewRouter(rooms.NewMemoryRegistry(), sinkB)

	relayA, err := NewNATS(cfg, "a", routerA)
	if err != nil {
		t.Fatalf("NewNATS a: %v", err)
	}
	t.Cleanup(func() { _ = relayA.Close() })
	relayB, err := NewNATS(cfg, "b", routerB)
	if err != nil {
		t.Fatalf("NewNATS b: %v", err)
	}
	t.Cleanup(func() { _ = relayB.Close() })
	routerA.SetRelay(relayA, "a")
	routerB.SetRelay(relayB, "b")
	run(t, relayA)
	run(t, relayB)
	routerB.Join("b1", rooms.UserRoom("u1"))
	time.Sleep(200 * time.Millisecond)

	routerA.BroadcastToUser("u1", "user_booking_updated", map[string]string{"bookingId": "b1"})
	waitFor(t, func() bool { return sinkB.count("b1") == 1 })
	if sinkA.count("a1") != 0 {
		t.Error("origin instance delivered to a non-member")
	}

	if !Available {
		t.Error("Available should be true with the nats tag")
	}
}

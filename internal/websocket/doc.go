// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package websocket is the gorilla/websocket transport for realtime clients.

The Hub owns every live connection of this instance, keyed by a generated
connection id. It implements rooms.Deliverer, so the room router hands it
encoded frames and never touches a socket directly.

Each Client runs two goroutines:

  - readPump: reads frames and passes them to the Handler one at a time,
    then runs OnDisconnect once the socket fails or is closed
  - writePump: writes queued frames and sends pings every PingPeriod

Deliver never blocks. A client whose send buffer is full is treated as a
slow consumer and closed.

Usage:

	hub := websocket.NewHub(&cfg.WebSocket)
	router := rooms.NewRouter(rooms.NewMemoryRegistry(), hub)
	hub.SetHandler(realtime.NewHandler(...))
	r.Get("/ws", hub.ServeHTTP)

Shutdown is driven by RunWithContext: when its context is cancelled every
client receives a close frame and the hub stops accepting upgrades.
*/
package websocket

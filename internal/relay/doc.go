// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package relay carries room emissions between server instances.

Every instance publishes each emission it makes locally on one subject and
delivers emissions received from peers to its own connections. An emission
is tagged with the instance that produced it, so an instance never delivers
its own emissions twice.

The Relay itself is transport-agnostic: it runs over any watermill
Publisher and Subscriber. NewNATS (build tag nats) wires it to
watermill-nats on core NATS subjects, optionally starting an embedded
nats-server. Without the tag, NewNATS returns an error and the server runs
single-instance.

Delivery is at-most-once. A peer that is down while an emission is
published never sees it; clients recover state through the HTTP API.
*/
package relay

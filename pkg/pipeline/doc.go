// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

// Package pipeline maintains the real-time push channel and reconciles
// presence events into the friend roster.
//
// A Channel holds one websocket connection to the push endpoint, decodes
// each inbound frame into a typed event, applies the roster transition,
// and then invokes the matching hook. All of that happens on a single
// receive goroutine per connection, so callers observe events in wire
// order and never see a hook for an event whose roster transition has not
// been applied yet.
//
// A handling failure in one event is reported through the error hook and
// does not terminate the channel. A dropped connection triggers at most
// one automatic reconnect attempt after a fixed backoff, unless the
// caller disconnected deliberately.
package pipeline

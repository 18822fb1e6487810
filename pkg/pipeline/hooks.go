// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package pipeline

import (
	"github.com/samber/oops"

	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// EventKind names one hook slot. The presence kinds match the wire event
// types; connect, disconnect, unhandled-event and error are channel-local.
type EventKind string

const (
	EventConnect        EventKind = "connect"
	EventDisconnect     EventKind = "disconnect"
	EventFriendOnline   EventKind = "friend-online"
	EventFriendActive   EventKind = "friend-active"
	EventFriendOffline  EventKind = "friend-offline"
	EventFriendLocation EventKind = "friend-location"
	EventFriendAdd      EventKind = "friend-add"
	EventFriendDelete   EventKind = "friend-delete"
	EventFriendUpdate   EventKind = "friend-update"
	EventNotification   EventKind = "notification"
	EventUnhandled      EventKind = "unhandled-event"
	EventError          EventKind = "error"
)

// Hooks is the channel's explicit hook table. Every slot defaults to a
// no-op; hooks run synchronously on the channel's receive loop, so a hook
// that blocks stalls event processing. Keep them fast or hand off.
type Hooks struct {
	Connect    func()
	Disconnect func()

	FriendOnline  func(friend *vrc.User)
	FriendActive  func(friend *vrc.User)
	FriendOffline func(friend *vrc.User)
	// FriendLocation receives nil world, location and instance when the
	// friend moved somewhere private.
	FriendLocation func(friend *vrc.User, world *vrc.World, location *vrc.Location, instance *vrc.Instance)
	FriendAdd      func(friend *vrc.User)
	// FriendDelete receives the removed roster record, which is nil when
	// the deleted friend was not on the roster.
	FriendDelete func(friend *vrc.User)
	FriendUpdate func(friend *vrc.User)

	Notification func(n *vrc.Notification)
	Unhandled    func(eventType string, content any)
	Error        func(err error)
}

// Bind installs fn as the handler for kind. The kind must be one of the
// recognized EventKind values and fn must have that kind's signature;
// anything else is rejected.
func (h *Hooks) Bind(kind EventKind, fn any) error {
	wrongType := func() error {
		return oops.Code(CodeBadHook).
			With("kind", string(kind)).
			Errorf("handler has the wrong signature for %q", kind)
	}

	switch kind {
	case EventConnect, EventDisconnect:
		f, ok := fn.(func())
		if !ok {
			return wrongType()
		}
		if kind == EventConnect {
			h.Connect = f
		} else {
			h.Disconnect = f
		}
	case EventFriendOnline, EventFriendActive, EventFriendOffline,
		EventFriendAdd, EventFriendDelete, EventFriendUpdate:
		f, ok := fn.(func(*vrc.User))
		if !ok {
			return wrongType()
		}
		switch kind {
		case EventFriendOnline:
			h.FriendOnline = f
		case EventFriendActive:
			h.FriendActive = f
		case EventFriendOffline:
			h.FriendOffline = f
		case EventFriendAdd:
			h.FriendAdd = f
		case EventFriendDelete:
			h.FriendDelete = f
		default:
			h.FriendUpdate = f
		}
	case EventFriendLocation:
		f, ok := fn.(func(*vrc.User, *vrc.World, *vrc.Location, *vrc.Instance))
		if !ok {
			return wrongType()
		}
		h.FriendLocation = f
	case EventNotification:
		f, ok := fn.(func(*vrc.Notification))
		if !ok {
			return wrongType()
		}
		h.Notification = f
	case EventUnhandled:
		f, ok := fn.(func(string, any))
		if !ok {
			return wrongType()
		}
		h.Unhandled = f
	case EventError:
		f, ok := fn.(func(error))
		if !ok {
			return wrongType()
		}
		h.Error = f
	default:
		return oops.Code(CodeBadHook).
			With("kind", string(kind)).
			Errorf("unrecognized hook kind %q", kind)
	}
	return nil
}

func (h *Hooks) fireConnect() {
	if h.Connect != nil {
		h.Connect()
	}
}

func (h *Hooks) fireDisconnect() {
	if h.Disconnect != nil {
		h.Disconnect()
	}
}

func (h *Hooks) fireError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

func (h *Hooks) fireUnhandled(eventType string, content any) {
	if h.Unhandled != nil {
		h.Unhandled(eventType, content)
	}
}

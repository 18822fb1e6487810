// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package pipeline

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// envelope is the outer wire frame. Content is a JSON document serialized
// as a string and must be decoded again before dispatch.
type envelope struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// dispatch decodes one frame and routes it. A failure in one event is
// surfaced through the error hook and never tears down the channel or
// corrupts roster state for later events.
func (c *Channel) dispatch(frame []byte) {
	eventID := ulid.Make()

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.metrics.failure("malformed")
		c.hooks.fireError(oops.Code(CodeDecode).
			With("event_id", eventID.String()).
			Wrap(err))
		return
	}

	var content any
	if err := json.Unmarshal([]byte(env.Content), &content); err != nil {
		c.metrics.failure(env.Type)
		c.hooks.fireError(oops.Code(CodeDecode).
			With("event_id", eventID.String()).
			With("event_type", env.Type).
			Wrap(err))
		return
	}

	c.metrics.event(env.Type)
	c.log.Debug("pipeline event",
		"event_id", eventID.String(),
		"event_type", env.Type,
	)

	if err := c.handleEvent(env.Type, content); err != nil {
		c.metrics.failure(env.Type)
		c.hooks.fireError(oops.Code(CodeEvent).
			With("event_id", eventID.String()).
			With("event_type", env.Type).
			Wrap(err))
	}
}

func (c *Channel) handleEvent(eventType string, content any) error {
	switch EventKind(eventType) {
	case EventFriendOnline:
		return c.handleFriendState(content, c.hooks.FriendOnline)
	case EventFriendActive:
		return c.handleFriendState(content, c.hooks.FriendActive)
	case EventFriendAdd:
		return c.handleFriendState(content, c.hooks.FriendAdd)
	case EventFriendUpdate:
		return c.handleFriendState(content, c.hooks.FriendUpdate)
	case EventFriendLocation:
		return c.handleFriendLocation(content)
	case EventFriendOffline:
		return c.handleFriendOffline(content)
	case EventFriendDelete:
		return c.handleFriendDelete(content)
	case EventNotification:
		return c.handleNotification(content)
	default:
		// Unknown event types are handed to the catch-all, never dropped.
		c.fireUnhandled(eventType, content)
		return nil
	}
}

// handleFriendState covers the events that embed a full user payload and
// differ only in which hook fires: friend-online, friend-active,
// friend-add and friend-update.
func (c *Channel) handleFriendState(content any, hook func(*vrc.User)) error {
	user, err := c.materializeUser(content)
	if err != nil {
		return err
	}
	c.roster.Upsert(user)
	if hook != nil {
		hook(user)
	}
	return nil
}

// handleFriendOffline resolves the user through the REST collaborator:
// this is the one event whose content carries only a bare user id.
func (c *Channel) handleFriendOffline(content any) error {
	id, err := stringField(content, "userId")
	if err != nil {
		return err
	}
	user, err := c.ses.FetchUserByID(c.ctx, id)
	if err != nil {
		return err
	}
	c.roster.Upsert(user)
	if c.hooks.FriendOffline != nil {
		c.hooks.FriendOffline(user)
	}
	return nil
}

// handleFriendDelete removes the friend from the roster. The hook receives
// the removed record, which is nil when the id was never on the roster;
// that case is not an error.
func (c *Channel) handleFriendDelete(content any) error {
	id, err := stringField(content, "userId")
	if err != nil {
		return err
	}
	removed := c.roster.Remove(id)
	if c.hooks.FriendDelete != nil {
		c.hooks.FriendDelete(removed)
	}
	return nil
}

// handleFriendLocation materializes the user, world, location and instance
// for a movement event. A world payload that fails schema binding falls
// back to an explicit fetch by id instead of surfacing the binding error:
// event payloads routinely trail the full world schema.
func (c *Channel) handleFriendLocation(content any) error {
	obj, err := contentObject(content)
	if err != nil {
		return err
	}

	user, err := c.materializeUser(content)
	if err != nil {
		return err
	}

	rawLocation, err := stringField(content, "location")
	if err != nil {
		return err
	}
	if rawLocation == "private" {
		if c.hooks.FriendLocation != nil {
			c.hooks.FriendLocation(user, nil, nil, nil)
		}
		return nil
	}

	world, err := c.materializeWorld(obj)
	if err != nil {
		return err
	}

	instanceID, err := stringField(content, "instance")
	if err != nil {
		return err
	}
	instance, err := c.ses.FetchInstance(c.ctx, world.ID, instanceID)
	if err != nil {
		return err
	}

	location, err := vrc.ParseLocation(rawLocation)
	if err != nil {
		return err
	}

	c.roster.Upsert(user)
	if c.hooks.FriendLocation != nil {
		c.hooks.FriendLocation(user, world, location, instance)
	}
	return nil
}

func (c *Channel) handleNotification(content any) error {
	obj, err := contentObject(content)
	if err != nil {
		return err
	}
	n, err := vrc.NewNotification(c.ses, obj)
	if err != nil {
		return err
	}
	if c.hooks.Notification != nil {
		c.hooks.Notification(n)
	}
	return nil
}

func (c *Channel) fireUnhandled(eventType string, content any) {
	c.log.Debug("unhandled pipeline event", "event_type", eventType)
	c.hooks.fireUnhandled(eventType, content)
}

// materializeUser binds the "user" object embedded in a presence event.
func (c *Channel) materializeUser(content any) (*vrc.User, error) {
	obj, err := contentObject(content)
	if err != nil {
		return nil, err
	}
	raw, ok := obj["user"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("event content has no user object")
	}
	return vrc.NewUser(c.ses, raw)
}

// materializeWorld binds the embedded world payload, falling back to a
// REST fetch by id when the payload does not satisfy the world shape.
func (c *Channel) materializeWorld(obj map[string]any) (*vrc.World, error) {
	raw, ok := obj["world"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("event content has no world object")
	}

	world, err := vrc.NewWorld(c.ses, raw)
	if err == nil {
		return world, nil
	}
	var violation *vrc.SchemaViolation
	if !errors.As(err, &violation) {
		return nil, err
	}

	id, ok := raw["id"].(string)
	if !ok {
		return nil, err
	}
	c.log.Debug("embedded world payload failed binding, fetching",
		"world_id", id,
		"violation", violation.Error(),
	)
	return c.ses.FetchWorld(c.ctx, id)
}

func contentObject(content any) (map[string]any, error) {
	obj, ok := content.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("event content is not an object, got %T", content)
	}
	return obj, nil
}

func stringField(content any, key string) (string, error) {
	obj, err := contentObject(content)
	if err != nil {
		return "", err
	}
	s, ok := obj[key].(string)
	if !ok {
		return "", fmt.Errorf("event content has no string %q field", key)
	}
	return s, nil
}

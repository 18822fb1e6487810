// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

// Notification is an inbound notification such as a friend request or an
// invite.
type Notification struct {
	ID             string
	Type           NotificationType
	SenderUserID   string
	SenderUsername string
	Message        string
	Seen           bool
	CreatedAt      string
	Details        *NotificationDetails

	Fields Fields

	ses *AccountSession
}

var notificationShape = Shape{
	Object:   "Notification",
	Required: []string{"senderUsername", "senderUserId"},
	Nested: map[string]FieldBinder{
		"details": bindNotificationDetails,
	},
	// The service serializes details as a JSON string on some endpoints
	// and as a plain object on others.
	Encoded: []string{"details"},
}

// NewNotification binds a raw payload into a Notification.
func NewNotification(ses *AccountSession, raw map[string]any) (*Notification, error) {
	f, err := notificationShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	n := &Notification{
		ID:             f.Str("id"),
		Type:           NotificationType(f.Str("type")),
		SenderUserID:   f.Str("senderUserId"),
		SenderUsername: f.Str("senderUsername"),
		Message:        f.Str("message"),
		Seen:           f.Bool("seen"),
		CreatedAt:      f.Str("created_at"),
		Fields:         f,
		ses:            ses,
	}
	n.Details, _ = f["details"].(*NotificationDetails)
	return n, nil
}

// NotificationDetails is the type-specific payload of a notification. Its
// key set varies by notification type; unknown keys pass through to Fields.
type NotificationDetails struct {
	WorldID   *Location
	WorldName string

	Fields Fields
}

var notificationDetailsShape = Shape{
	Object: "NotificationDetails",
	Nested: map[string]FieldBinder{
		// Invite details carry a full location string under this key.
		"worldId": bindLocation,
	},
}

// NewNotificationDetails binds a raw payload into NotificationDetails.
func NewNotificationDetails(ses *AccountSession, raw map[string]any) (*NotificationDetails, error) {
	f, err := notificationDetailsShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	d := &NotificationDetails{
		WorldName: f.Str("worldName"),
		Fields:    f,
	}
	d.WorldID, _ = f["worldId"].(*Location)
	return d, nil
}

// Favorite is one entry in a favorites group.
type Favorite struct {
	ID         string
	Type       FavoriteType
	FavoriteID string
	Tags       []string

	Fields Fields

	ses *AccountSession
}

var favoriteShape = Shape{
	Object:   "Favorite",
	Required: []string{"id", "type", "favoriteId", "tags"},
}

// NewFavorite binds a raw payload into a Favorite.
func NewFavorite(ses *AccountSession, raw map[string]any) (*Favorite, error) {
	f, err := favoriteShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	return &Favorite{
		ID:         f.Str("id"),
		Type:       FavoriteType(f.Str("type")),
		FavoriteID: f.Str("favoriteId"),
		Tags:       f.Strings("tags"),
		Fields:     f,
		ses:        ses,
	}, nil
}

// Feature holds account feature flags.
type Feature struct {
	TwoFactorAuth bool

	Fields Fields
}

var featureShape = Shape{Object: "Feature"}

// NewFeature binds a raw payload into a Feature.
func NewFeature(_ *AccountSession, raw map[string]any) (*Feature, error) {
	f, err := featureShape.Bind(nil, raw)
	if err != nil {
		return nil, err
	}
	return &Feature{
		TwoFactorAuth: f.Bool("twoFactorAuth"),
		Fields:        f,
	}, nil
}

// PastDisplayName is a historical display name entry. Its shape is closed:
// the payload must carry exactly these keys, so any schema drift in this
// structure fails loudly instead of passing through.
type PastDisplayName struct {
	DisplayName string
	UpdatedAt   string
}

var pastDisplayNameShape = Shape{
	Object: "PastDisplayName",
	Only:   []string{"displayName", "updated_at"},
}

// NewPastDisplayName binds a raw payload into a PastDisplayName.
func NewPastDisplayName(_ *AccountSession, raw map[string]any) (*PastDisplayName, error) {
	f, err := pastDisplayNameShape.Bind(nil, raw)
	if err != nil {
		return nil, err
	}
	return &PastDisplayName{
		DisplayName: f.Str("displayName"),
		UpdatedAt:   f.Str("updated_at"),
	}, nil
}

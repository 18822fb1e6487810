// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import "context"

// Capability interfaces declare which relationship operations a domain type
// supports. CurrentUser implements neither: you cannot friend or favorite
// yourself, and keeping the methods off the type entirely beats inheriting
// them and failing at runtime.

// Followable types can receive friend requests and be unfriended.
type Followable interface {
	Friend(ctx context.Context) (*Notification, error)
	Unfriend(ctx context.Context) error
}

// Favoritable types can be added to a favorites group.
type Favoritable interface {
	Favorite(ctx context.Context) (*Favorite, error)
}

var (
	_ Followable  = (*LimitedUser)(nil)
	_ Followable  = (*User)(nil)
	_ Favoritable = (*LimitedUser)(nil)
	_ Favoritable = (*User)(nil)
	_ Favoritable = (*Avatar)(nil)
	_ Favoritable = (*LimitedWorld)(nil)
	_ Favoritable = (*World)(nil)
)

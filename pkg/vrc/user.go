// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/oops"
)

// profile carries the fields common to every user representation.
type profile struct {
	ID                string
	Username          string
	DisplayName       string
	Bio               string
	State             State
	Status            Status
	StatusDescription string
	DeveloperType     DeveloperType
	Tags              []string
}

func profileFrom(f Fields) profile {
	return profile{
		ID:                f.Str("id"),
		Username:          f.Str("username"),
		DisplayName:       f.Str("displayName"),
		Bio:               f.Str("bio"),
		State:             State(f.Str("state")),
		Status:            Status(f.Str("status")),
		StatusDescription: f.Str("statusDescription"),
		DeveloperType:     DeveloperType(f.Str("developerType")),
		Tags:              f.Strings("tags"),
	}
}

// LimitedUser is the abbreviated user record returned by listing endpoints
// and embedded in presence events.
type LimitedUser struct {
	profile
	IsFriend   bool
	Location   *Location // nil when the payload carries no location
	InstanceID *Location

	// Fields holds every bound key, including pass-through keys the
	// struct does not surface directly.
	Fields Fields

	ses *AccountSession
}

var limitedUserShape = Shape{
	Object:   "LimitedUser",
	Required: []string{"isFriend"},
	Nested: map[string]FieldBinder{
		"location":   bindLocation,
		"instanceId": bindLocation,
	},
	Defaults: Fields{"bio": ""},
}

// NewLimitedUser binds a raw payload into a LimitedUser. The session may be
// nil, in which case follow-up calls on the object fail.
func NewLimitedUser(ses *AccountSession, raw map[string]any) (*LimitedUser, error) {
	f, err := limitedUserShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	u := limitedUserFromFields(ses, f)
	return &u, nil
}

func limitedUserFromFields(ses *AccountSession, f Fields) LimitedUser {
	u := LimitedUser{profile: profileFrom(f), Fields: f, ses: ses}
	u.IsFriend = f.Bool("isFriend")
	u.Location, _ = f["location"].(*Location)
	u.InstanceID, _ = f["instanceId"].(*Location)
	return u
}

// FetchFull fetches the complete user record for this user.
func (u *LimitedUser) FetchFull(ctx context.Context) (*User, error) {
	ses, err := requireSession(u.ses, "LimitedUser")
	if err != nil {
		return nil, err
	}
	return ses.FetchUserByID(ctx, u.ID)
}

// PublicAvatars lists the public avatars made by this user.
func (u *LimitedUser) PublicAvatars(ctx context.Context) ([]*Avatar, error) {
	ses, err := requireSession(u.ses, "LimitedUser")
	if err != nil {
		return nil, err
	}
	return ses.ListAvatars(ctx, AvatarQuery{UserID: u.ID})
}

// Friend sends this user a friend request.
func (u *LimitedUser) Friend(ctx context.Context) (*Notification, error) {
	ses, err := requireSession(u.ses, "LimitedUser")
	if err != nil {
		return nil, err
	}
	data, err := ses.callMap(ctx, http.MethodPost, fmt.Sprintf("/user/%s/friendRequest", u.ID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewNotification(ses, data)
}

// Unfriend removes this user from the current user's friends.
func (u *LimitedUser) Unfriend(ctx context.Context) error {
	ses, err := requireSession(u.ses, "LimitedUser")
	if err != nil {
		return err
	}
	_, err = ses.call(ctx, http.MethodDelete, fmt.Sprintf("/auth/user/friends/%s", u.ID), nil, nil)
	return err
}

// Favorite adds this user to the friend favorites group.
func (u *LimitedUser) Favorite(ctx context.Context) (*Favorite, error) {
	ses, err := requireSession(u.ses, "LimitedUser")
	if err != nil {
		return nil, err
	}
	return ses.addFavorite(ctx, FavoriteFriend, u.ID, nil)
}

// User is the complete user record.
type User struct {
	LimitedUser
	AllowAvatarCopying bool
}

var userShape = limitedUserShape.extend("User", Shape{
	Required: []string{"allowAvatarCopying"},
})

// NewUser binds a raw payload into a User.
func NewUser(ses *AccountSession, raw map[string]any) (*User, error) {
	f, err := userShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	return &User{
		LimitedUser:        limitedUserFromFields(ses, f),
		AllowAvatarCopying: f.Bool("allowAvatarCopying"),
	}, nil
}

// CurrentUser is the authenticated account. It deliberately does not embed
// User: the operations that act on other users (Followable, Favoritable)
// make no sense against yourself, so CurrentUser simply never gains them.
type CurrentUser struct {
	profile
	AllowAvatarCopying bool
	HasEmail           bool
	Feature            *Feature

	// Friend id lists as reported at fetch time. The live partitioned
	// roster is owned by the presence channel, not by this snapshot.
	FriendIDs        []string
	OnlineFriendIDs  []string
	ActiveFriendIDs  []string
	OfflineFriendIDs []string

	Fields Fields

	ses *AccountSession
}

var currentUserShape = userShape.extend("CurrentUser", Shape{
	Required: []string{"feature", "hasEmail"},
	Nested: map[string]FieldBinder{
		"feature": bindFeature,
	},
})

// NewCurrentUser binds a raw payload into a CurrentUser.
func NewCurrentUser(ses *AccountSession, raw map[string]any) (*CurrentUser, error) {
	f, err := currentUserShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	u := &CurrentUser{
		profile:            profileFrom(f),
		AllowAvatarCopying: f.Bool("allowAvatarCopying"),
		HasEmail:           f.Bool("hasEmail"),
		FriendIDs:          f.Strings("friends"),
		OnlineFriendIDs:    f.Strings("onlineFriends"),
		ActiveFriendIDs:    f.Strings("activeFriends"),
		OfflineFriendIDs:   f.Strings("offlineFriends"),
		Fields:             f,
		ses:                ses,
	}
	u.Feature, _ = f["feature"].(*Feature)
	return u, nil
}

// FetchFull fetches this account's record through the public user endpoint.
func (u *CurrentUser) FetchFull(ctx context.Context) (*User, error) {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return nil, err
	}
	return ses.FetchUserByID(ctx, u.ID)
}

// PublicAvatars lists the current user's public avatars.
func (u *CurrentUser) PublicAvatars(ctx context.Context) ([]*Avatar, error) {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return nil, err
	}
	return ses.ListAvatars(ctx, AvatarQuery{UserID: u.ID})
}

// Avatars lists avatars uploaded by the current user, filtered by release
// status.
func (u *CurrentUser) Avatars(ctx context.Context, release ReleaseStatus) ([]*Avatar, error) {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return nil, err
	}
	avatars, err := ses.ListAvatars(ctx, AvatarQuery{User: "me", ReleaseStatus: release})
	if err != nil {
		return nil, err
	}
	mine := avatars[:0]
	for _, a := range avatars {
		if a.AuthorID == u.ID {
			mine = append(mine, a)
		}
	}
	return mine, nil
}

// UserUpdate holds the mutable account fields for UpdateInfo. Zero-valued
// fields keep their current value.
type UserUpdate struct {
	Email             string
	Status            Status
	StatusDescription string
	Bio               string
	BioLinks          []string
}

// UpdateInfo updates the account and returns the fresh CurrentUser, which
// also replaces the session's cached record.
func (u *CurrentUser) UpdateInfo(ctx context.Context, update UserUpdate) (*CurrentUser, error) {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return nil, err
	}

	if update.Email == "" {
		update.Email = u.Fields.Str("email")
	}
	if update.Status == "" {
		update.Status = u.Status
	}
	if update.StatusDescription == "" {
		update.StatusDescription = u.StatusDescription
	}
	if update.Bio == "" {
		update.Bio = u.Bio
	}
	if update.BioLinks == nil {
		update.BioLinks = u.Fields.Strings("bioLinks")
	}

	body := map[string]any{
		"email":             update.Email,
		"status":            update.Status,
		"statusDescription": update.StatusDescription,
		"bio":               update.Bio,
		"bioLinks":          update.BioLinks,
	}
	data, err := ses.callMap(ctx, http.MethodPut, fmt.Sprintf("/users/%s", u.ID), nil, body)
	if err != nil {
		return nil, err
	}

	fresh, err := NewCurrentUser(ses, data)
	if err != nil {
		return nil, err
	}
	ses.setMe(fresh)
	return fresh, nil
}

// FetchFavorites lists up to n favorites of the given type. The service
// caps a single page at 100.
func (u *CurrentUser) FetchFavorites(ctx context.Context, typ FavoriteType, n int) ([]*Favorite, error) {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return nil, err
	}
	return ses.FetchFavorites(ctx, typ, n)
}

// GetFavorite fetches one favorite by id.
func (u *CurrentUser) GetFavorite(ctx context.Context, favoriteID string) (*Favorite, error) {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return nil, err
	}
	return ses.GetFavorite(ctx, favoriteID)
}

// RemoveFavorite deletes one favorite by id.
func (u *CurrentUser) RemoveFavorite(ctx context.Context, favoriteID string) error {
	ses, err := requireSession(u.ses, "CurrentUser")
	if err != nil {
		return err
	}
	return ses.RemoveFavorite(ctx, favoriteID)
}

// requireSession guards follow-up calls on objects materialized without a
// session.
func requireSession(ses *AccountSession, object string) (*AccountSession, error) {
	if ses == nil {
		return nil, oops.Code(CodeNoSession).
			With("object", object).
			Errorf("%s is not attached to a session", object)
	}
	return ses, nil
}

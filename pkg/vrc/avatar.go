// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"context"
	"fmt"
	"net/http"
)

// Avatar is a wearable avatar record.
type Avatar struct {
	ID                string
	Name              string
	Description       string
	AuthorID          string
	AuthorName        string
	Version           int
	ReleaseStatus     ReleaseStatus
	ImageURL          string
	ThumbnailImageURL string
	UnityPackages     []*UnityPackage
	Tags              []string

	Fields Fields

	ses *AccountSession
}

var avatarShape = Shape{
	Object:   "Avatar",
	Required: []string{"authorId", "authorName", "version", "name"},
	Arrays: map[string]FieldBinder{
		"unityPackages": bindUnityPackage,
	},
}

// NewAvatar binds a raw payload into an Avatar.
func NewAvatar(ses *AccountSession, raw map[string]any) (*Avatar, error) {
	f, err := avatarShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	return &Avatar{
		ID:                f.Str("id"),
		Name:              f.Str("name"),
		Description:       f.Str("description"),
		AuthorID:          f.Str("authorId"),
		AuthorName:        f.Str("authorName"),
		Version:           f.Int("version"),
		ReleaseStatus:     ReleaseStatus(f.Str("releaseStatus")),
		ImageURL:          f.Str("imageUrl"),
		ThumbnailImageURL: f.Str("thumbnailImageUrl"),
		UnityPackages:     unityPackagesFrom(f),
		Tags:              f.Strings("tags"),
		Fields:            f,
		ses:               ses,
	}, nil
}

// Author fetches the avatar's author.
func (a *Avatar) Author(ctx context.Context) (*User, error) {
	ses, err := requireSession(a.ses, "Avatar")
	if err != nil {
		return nil, err
	}
	return ses.FetchUserByID(ctx, a.AuthorID)
}

// Select makes this avatar the current user's worn avatar.
func (a *Avatar) Select(ctx context.Context) error {
	ses, err := requireSession(a.ses, "Avatar")
	if err != nil {
		return err
	}
	_, err = ses.call(ctx, http.MethodPut, fmt.Sprintf("/avatars/%s/select", a.ID), nil, nil)
	return err
}

// Favorite adds this avatar to the avatar favorites group.
func (a *Avatar) Favorite(ctx context.Context) (*Favorite, error) {
	ses, err := requireSession(a.ses, "Avatar")
	if err != nil {
		return nil, err
	}
	return ses.addFavorite(ctx, FavoriteAvatar, a.ID, []string{"avatars1"})
}

// UnityPackage is one uploaded asset bundle of an avatar or world.
type UnityPackage struct {
	ID              string
	Platform        string
	UnityVersion    string
	AssetVersion    int
	UnitySortNumber int

	Fields Fields
}

var unityPackageShape = Shape{
	Object:   "UnityPackage",
	Required: []string{"id", "platform", "assetVersion", "unitySortNumber"},
}

// NewUnityPackage binds a raw payload into a UnityPackage.
func NewUnityPackage(_ *AccountSession, raw map[string]any) (*UnityPackage, error) {
	f, err := unityPackageShape.Bind(nil, raw)
	if err != nil {
		return nil, err
	}
	return &UnityPackage{
		ID:              f.Str("id"),
		Platform:        f.Str("platform"),
		UnityVersion:    f.Str("unityVersion"),
		AssetVersion:    f.Int("assetVersion"),
		UnitySortNumber: f.Int("unitySortNumber"),
		Fields:          f,
	}, nil
}

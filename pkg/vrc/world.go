// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"context"
	"fmt"
	"net/http"
)

// LimitedWorld is the abbreviated world record returned by listing
// endpoints.
type LimitedWorld struct {
	ID                  string
	Name                string
	AuthorID            string
	AuthorName          string
	Capacity            int
	ImageURL            string
	ThumbnailImageURL   string
	ReleaseStatus       ReleaseStatus
	Visits              int
	Occupants           int
	LabsPublicationDate string
	UnityPackages       []*UnityPackage
	Tags                []string

	Fields Fields

	ses *AccountSession
}

var limitedWorldShape = Shape{
	Object:   "LimitedWorld",
	Required: []string{"visits", "occupants", "labsPublicationDate"},
	Arrays: map[string]FieldBinder{
		"unityPackages": bindUnityPackage,
	},
}

// NewLimitedWorld binds a raw payload into a LimitedWorld.
func NewLimitedWorld(ses *AccountSession, raw map[string]any) (*LimitedWorld, error) {
	f, err := limitedWorldShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	w := limitedWorldFromFields(ses, f)
	return &w, nil
}

func limitedWorldFromFields(ses *AccountSession, f Fields) LimitedWorld {
	return LimitedWorld{
		ID:                  f.Str("id"),
		Name:                f.Str("name"),
		AuthorID:            f.Str("authorId"),
		AuthorName:          f.Str("authorName"),
		Capacity:            f.Int("capacity"),
		ImageURL:            f.Str("imageUrl"),
		ThumbnailImageURL:   f.Str("thumbnailImageUrl"),
		ReleaseStatus:       ReleaseStatus(f.Str("releaseStatus")),
		Visits:              f.Int("visits"),
		Occupants:           f.Int("occupants"),
		LabsPublicationDate: f.Str("labsPublicationDate"),
		UnityPackages:       unityPackagesFrom(f),
		Tags:                f.Strings("tags"),
		Fields:              f,
		ses:                 ses,
	}
}

// Author fetches the world's author.
func (w *LimitedWorld) Author(ctx context.Context) (*User, error) {
	ses, err := requireSession(w.ses, "LimitedWorld")
	if err != nil {
		return nil, err
	}
	return ses.FetchUserByID(ctx, w.AuthorID)
}

// Favorite adds this world to the world favorites group.
func (w *LimitedWorld) Favorite(ctx context.Context) (*Favorite, error) {
	ses, err := requireSession(w.ses, "LimitedWorld")
	if err != nil {
		return nil, err
	}
	return ses.addFavorite(ctx, FavoriteWorld, w.ID, nil)
}

// World is the complete world record.
type World struct {
	LimitedWorld
	Namespace        string
	PreviewYoutubeID string
	// Instances lists active instances as [id, occupant count] pairs,
	// kept in the service's raw form.
	Instances []any
}

var worldShape = limitedWorldShape.extend("World", Shape{
	Required: []string{"namespace", "previewYoutubeId", "instances"},
})

// NewWorld binds a raw payload into a World.
func NewWorld(ses *AccountSession, raw map[string]any) (*World, error) {
	f, err := worldShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	w := &World{
		LimitedWorld:     limitedWorldFromFields(ses, f),
		Namespace:        f.Str("namespace"),
		PreviewYoutubeID: f.Str("previewYoutubeId"),
	}
	w.Instances, _ = f["instances"].([]any)
	return w, nil
}

// FetchInstance fetches one instance of this world by instance id.
func (w *World) FetchInstance(ctx context.Context, instanceID string) (*Instance, error) {
	ses, err := requireSession(w.ses, "World")
	if err != nil {
		return nil, err
	}
	return ses.FetchInstance(ctx, w.ID, instanceID)
}

// Instance is a running world instance.
type Instance struct {
	ID         *Location
	WorldID    string
	Name       string
	NUsers     int
	ShortName  string
	Location   *Location
	InstanceID *Location

	Fields Fields

	ses *AccountSession
}

var instanceShape = Shape{
	Object:   "Instance",
	Required: []string{"n_users", "instanceId", "shortName"},
	Nested: map[string]FieldBinder{
		"id":         bindLocation,
		"location":   bindLocation,
		"instanceId": bindLocation,
	},
}

// NewInstance binds a raw payload into an Instance.
func NewInstance(ses *AccountSession, raw map[string]any) (*Instance, error) {
	f, err := instanceShape.Bind(ses, raw)
	if err != nil {
		return nil, err
	}
	in := &Instance{
		WorldID:   f.Str("worldId"),
		Name:      f.Str("name"),
		NUsers:    f.Int("n_users"),
		ShortName: f.Str("shortName"),
		Fields:    f,
		ses:       ses,
	}
	in.ID, _ = f["id"].(*Location)
	in.Location, _ = f["location"].(*Location)
	in.InstanceID, _ = f["instanceId"].(*Location)
	return in, nil
}

// World fetches the world this instance runs.
func (in *Instance) World(ctx context.Context) (*World, error) {
	ses, err := requireSession(in.ses, "Instance")
	if err != nil {
		return nil, err
	}
	return ses.FetchWorld(ctx, in.WorldID)
}

// ShortURL returns the shareable invite URL for this instance.
func (in *Instance) ShortURL() string {
	return "https://vrchat.com/i/" + in.ShortName
}

// Join marks this instance as joined for the current user.
func (in *Instance) Join(ctx context.Context) error {
	ses, err := requireSession(in.ses, "Instance")
	if err != nil {
		return err
	}
	if in.Location == nil {
		return &SchemaViolation{Object: "Instance", Reason: MissingOrUnexpectedField, Key: "location",
			cause: fmt.Errorf("instance has no location to join")}
	}
	_, err = ses.call(ctx, http.MethodPut, "/joins", nil, map[string]any{"worldId": in.Location.Raw})
	return err
}

func unityPackagesFrom(f Fields) []*UnityPackage {
	raw, ok := f["unityPackages"].([]any)
	if !ok {
		return nil
	}
	out := make([]*UnityPackage, 0, len(raw))
	for _, v := range raw {
		if p, ok := v.(*UnityPackage); ok {
			out = append(out, p)
		}
	}
	return out
}

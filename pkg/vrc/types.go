// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

// State is a friend's connectivity state: in-game, on the website, or gone.
type State string

const (
	StateOnline  State = "online"
	StateActive  State = "active"
	StateOffline State = "offline"
)

func (s State) Valid() bool {
	return s == StateOnline || s == StateActive || s == StateOffline
}

// Status is the user-chosen presence status shown to other users.
type Status string

const (
	StatusActive  Status = "active"
	StatusJoinMe  Status = "join me"
	StatusAskMe   Status = "ask me"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusJoinMe, StatusAskMe, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// ReleaseStatus filters avatar listings.
type ReleaseStatus string

const (
	ReleasePublic  ReleaseStatus = "public"
	ReleasePrivate ReleaseStatus = "private"
	ReleaseHidden  ReleaseStatus = "hidden"
	ReleaseAll     ReleaseStatus = "all"
)

func (r ReleaseStatus) Valid() bool {
	switch r {
	case ReleasePublic, ReleasePrivate, ReleaseHidden, ReleaseAll:
		return true
	}
	return false
}

// DeveloperType marks staff and trusted accounts.
type DeveloperType string

const (
	DeveloperNone      DeveloperType = "none"
	DeveloperTrusted   DeveloperType = "trusted"
	DeveloperInternal  DeveloperType = "internal"
	DeveloperModerator DeveloperType = "moderator"
)

func (d DeveloperType) Valid() bool {
	switch d {
	case DeveloperNone, DeveloperTrusted, DeveloperInternal, DeveloperModerator:
		return true
	}
	return false
}

// InstanceType distinguishes instance access levels in location strings.
// Public instances carry no type segment at all.
type InstanceType string

const (
	InstanceHidden  InstanceType = "hidden"
	InstanceFriends InstanceType = "friends"
	InstancePublic  InstanceType = ""
)

func (i InstanceType) Valid() bool {
	return i == InstanceHidden || i == InstanceFriends || i == InstancePublic
}

// NotificationType classifies inbound notifications.
type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friendRequest"
)

func (n NotificationType) Valid() bool {
	return n == NotificationFriendRequest
}

// FavoriteType selects a favorites group.
type FavoriteType string

const (
	FavoriteWorld  FavoriteType = "world"
	FavoriteFriend FavoriteType = "friend"
	FavoriteAvatar FavoriteType = "avatar"
)

func (f FavoriteType) Valid() bool {
	return f == FavoriteWorld || f == FavoriteFriend || f == FavoriteAvatar
}

// Region is an instance hosting region.
type Region string

const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
	RegionJP Region = "jp"
)

func (r Region) Valid() bool {
	return r == RegionUS || r == RegionEU || r == RegionJP
}

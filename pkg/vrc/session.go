// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"github.com/samber/oops"

	"github.com/vrcpipe/vrcpipe/pkg/api"
)

// Error codes raised by the session and domain layers.
const (
	CodeNoSession       = "VRC_NO_SESSION"
	CodeAlreadyLoggedIn = "VRC_ALREADY_LOGGED_IN"
	CodeBadResponse     = "VRC_BAD_RESPONSE"
)

// friendsPageSize is the service's hard page cap on the friends endpoint.
const friendsPageSize = 100

// AccountSession is the authenticated REST client. Domain objects hold a
// non-owning reference to it for follow-up calls, and the presence channel
// uses it to resolve users, worlds and instances that arrive only as ids.
type AccountSession struct {
	api api.Transport
	log *slog.Logger

	mu       sync.Mutex
	me       *CurrentUser
	loggedIn bool
}

// SessionOption configures an AccountSession.
type SessionOption func(*AccountSession)

// WithSessionLogger sets the session's logger.
func WithSessionLogger(log *slog.Logger) SessionOption {
	return func(s *AccountSession) { s.log = log }
}

// NewSession creates a session over the given transport.
func NewSession(t api.Transport, opts ...SessionOption) *AccountSession {
	s := &AccountSession{api: t, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transport exposes the underlying REST transport.
func (s *AccountSession) Transport() api.Transport { return s.api }

// AuthToken returns the session token for the push channel, or "".
func (s *AccountSession) AuthToken() string { return s.api.AuthToken() }

// Login authenticates with username and password and returns the current
// user. Logging in twice without logging out is a caller error.
func (s *AccountSession) Login(ctx context.Context, username, password string) (*CurrentUser, error) {
	b64 := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return s.LoginToken(ctx, b64)
}

// LoginToken authenticates with a pre-encoded basic-auth token.
func (s *AccountSession) LoginToken(ctx context.Context, b64 string) (*CurrentUser, error) {
	s.mu.Lock()
	if s.loggedIn {
		s.mu.Unlock()
		return nil, oops.Code(CodeAlreadyLoggedIn).Errorf("session is already logged in")
	}
	s.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", "Basic "+b64)
	data, err := s.callMap(ctx, http.MethodGet, "/auth/user", nil, nil, header)
	if err != nil {
		return nil, err
	}

	me, err := NewCurrentUser(s, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.me = me
	s.loggedIn = true
	s.mu.Unlock()

	s.log.Info("logged in", "user_id", me.ID, "display_name", me.DisplayName)
	return me, nil
}

// Logout invalidates the session cookie on the server and clears local
// session state.
func (s *AccountSession) Logout(ctx context.Context) error {
	if _, err := s.call(ctx, http.MethodPut, "/logout", nil, nil); err != nil {
		return err
	}
	s.mu.Lock()
	s.me = nil
	s.loggedIn = false
	s.mu.Unlock()
	s.log.Info("logged out")
	return nil
}

// Me returns the cached current user from login or the last FetchMe, or nil.
func (s *AccountSession) Me() *CurrentUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.me
}

// LoggedIn reports whether a login has succeeded on this session.
func (s *AccountSession) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *AccountSession) setMe(me *CurrentUser) {
	s.mu.Lock()
	s.me = me
	s.mu.Unlock()
}

// FetchMe refreshes and returns the current user record.
func (s *AccountSession) FetchMe(ctx context.Context) (*CurrentUser, error) {
	data, err := s.callMap(ctx, http.MethodGet, "/auth/user", nil, nil)
	if err != nil {
		return nil, err
	}
	me, err := NewCurrentUser(s, data)
	if err != nil {
		return nil, err
	}
	s.setMe(me)
	return me, nil
}

// FriendsQuery controls FetchFriends. N of zero fetches all friends.
type FriendsQuery struct {
	Offline bool
	N       int
	Offset  int
}

// FetchFriends pages through the friends endpoint and returns abbreviated
// user records. The service caps pages at 100, so fetching everything is a
// loop, not a single call.
func (s *AccountSession) FetchFriends(ctx context.Context, q FriendsQuery) ([]*LimitedUser, error) {
	var friends []*LimitedUser
	offset := q.Offset

	for {
		pageSize := friendsPageSize
		if q.N > 0 && q.N-len(friends) < friendsPageSize {
			pageSize = q.N - len(friends)
		}

		params := url.Values{}
		params.Set("offset", strconv.Itoa(offset))
		params.Set("offline", strconv.FormatBool(q.Offline))
		params.Set("n", strconv.Itoa(pageSize))

		page, err := s.callSlice(ctx, http.MethodGet, "/auth/user/friends", params, nil)
		if err != nil {
			return nil, err
		}
		for _, entry := range page {
			raw, err := asObject("LimitedUser", entry)
			if err != nil {
				return nil, err
			}
			friend, err := NewLimitedUser(s, raw)
			if err != nil {
				return nil, err
			}
			friends = append(friends, friend)
		}

		if len(page) < friendsPageSize {
			break
		}
		offset += friendsPageSize
	}
	return friends, nil
}

// FetchFullFriends fetches friends and resolves each to a full user record.
// This issues one extra call per friend; use with care.
func (s *AccountSession) FetchFullFriends(ctx context.Context, q FriendsQuery) ([]*User, error) {
	limited, err := s.FetchFriends(ctx, q)
	if err != nil {
		return nil, err
	}
	full := make([]*User, 0, len(limited))
	for _, friend := range limited {
		u, err := friend.FetchFull(ctx)
		if err != nil {
			return nil, err
		}
		full = append(full, u)
	}
	return full, nil
}

// FetchUserByID fetches a full user record by id.
func (s *AccountSession) FetchUserByID(ctx context.Context, userID string) (*User, error) {
	data, err := s.callMap(ctx, http.MethodGet, fmt.Sprintf("/users/%s", userID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewUser(s, data)
}

// FetchUserByName fetches a full user record by display name.
func (s *AccountSession) FetchUserByName(ctx context.Context, name string) (*User, error) {
	data, err := s.callMap(ctx, http.MethodGet, fmt.Sprintf("/users/%s/name", url.PathEscape(name)), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewUser(s, data)
}

// FetchWorld fetches a full world record by id.
func (s *AccountSession) FetchWorld(ctx context.Context, worldID string) (*World, error) {
	data, err := s.callMap(ctx, http.MethodGet, fmt.Sprintf("/worlds/%s", worldID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewWorld(s, data)
}

// FetchInstance fetches one instance of a world.
func (s *AccountSession) FetchInstance(ctx context.Context, worldID, instanceID string) (*Instance, error) {
	data, err := s.callMap(ctx, http.MethodGet, fmt.Sprintf("/instances/%s:%s", worldID, instanceID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewInstance(s, data)
}

// FetchAvatar fetches an avatar by id.
func (s *AccountSession) FetchAvatar(ctx context.Context, avatarID string) (*Avatar, error) {
	data, err := s.callMap(ctx, http.MethodGet, fmt.Sprintf("/avatars/%s", avatarID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewAvatar(s, data)
}

// AvatarQuery filters ListAvatars. Zero-valued fields are omitted.
type AvatarQuery struct {
	User            string // "me" or "friends"
	Featured        bool
	Tag             string
	UserID          string
	N               int
	Offset          int
	Order           string
	ReleaseStatus   ReleaseStatus
	Sort            string
	MaxUnityVersion string
	MinUnityVersion string
	MaxAssetVersion string
	MinAssetVersion string
	Platform        string
}

func (q AvatarQuery) params() url.Values {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("user", q.User)
	if q.Featured {
		params.Set("featured", "true")
	}
	set("tag", q.Tag)
	set("userId", q.UserID)
	if q.N > 0 {
		params.Set("n", strconv.Itoa(q.N))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	set("order", q.Order)
	set("releaseStatus", string(q.ReleaseStatus))
	set("sort", q.Sort)
	set("maxUnityVersion", q.MaxUnityVersion)
	set("minUnityVersion", q.MinUnityVersion)
	set("maxAssetVersion", q.MaxAssetVersion)
	set("minAssetVersion", q.MinAssetVersion)
	set("platform", q.Platform)
	return params
}

// ListAvatars lists avatars matching the query.
func (s *AccountSession) ListAvatars(ctx context.Context, q AvatarQuery) ([]*Avatar, error) {
	page, err := s.callSlice(ctx, http.MethodGet, "/avatars", q.params(), nil)
	if err != nil {
		return nil, err
	}
	avatars := make([]*Avatar, 0, len(page))
	for _, entry := range page {
		raw, err := asObject("Avatar", entry)
		if err != nil {
			return nil, err
		}
		avatar, err := NewAvatar(s, raw)
		if err != nil {
			return nil, err
		}
		avatars = append(avatars, avatar)
	}
	return avatars, nil
}

// FetchNotifications lists the account's pending notifications.
func (s *AccountSession) FetchNotifications(ctx context.Context) ([]*Notification, error) {
	page, err := s.callSlice(ctx, http.MethodGet, "/auth/user/notifications", nil, nil)
	if err != nil {
		return nil, err
	}
	notifications := make([]*Notification, 0, len(page))
	for _, entry := range page {
		raw, err := asObject("Notification", entry)
		if err != nil {
			return nil, err
		}
		n, err := NewNotification(s, raw)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// FetchFavorites lists up to n favorites of the given type.
func (s *AccountSession) FetchFavorites(ctx context.Context, typ FavoriteType, n int) ([]*Favorite, error) {
	params := url.Values{}
	params.Set("type", string(typ))
	if n > 0 {
		params.Set("n", strconv.Itoa(n))
	}
	page, err := s.callSlice(ctx, http.MethodGet, "/favorites", params, nil)
	if err != nil {
		return nil, err
	}
	favorites := make([]*Favorite, 0, len(page))
	for _, entry := range page {
		raw, err := asObject("Favorite", entry)
		if err != nil {
			return nil, err
		}
		fav, err := NewFavorite(s, raw)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, fav)
	}
	return favorites, nil
}

// GetFavorite fetches one favorite by id.
func (s *AccountSession) GetFavorite(ctx context.Context, favoriteID string) (*Favorite, error) {
	data, err := s.callMap(ctx, http.MethodGet, fmt.Sprintf("/favorites/%s", favoriteID), nil, nil)
	if err != nil {
		return nil, err
	}
	return NewFavorite(s, data)
}

// RemoveFavorite deletes one favorite by id.
func (s *AccountSession) RemoveFavorite(ctx context.Context, favoriteID string) error {
	_, err := s.call(ctx, http.MethodDelete, fmt.Sprintf("/favorites/%s", favoriteID), nil, nil)
	return err
}

// addFavorite is the shared POST behind every Favoritable implementation.
func (s *AccountSession) addFavorite(ctx context.Context, typ FavoriteType, targetID string, tags []string) (*Favorite, error) {
	body := map[string]any{"type": typ, "favoriteId": targetID}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	data, err := s.callMap(ctx, http.MethodPost, "/favorites", nil, body)
	if err != nil {
		return nil, err
	}
	return NewFavorite(s, data)
}

// call executes a REST call and returns the raw response body.
func (s *AccountSession) call(ctx context.Context, method, path string, params url.Values, body any, header ...http.Header) ([]byte, error) {
	req := api.Request{Method: method, Path: path, Params: params, Body: body}
	if len(header) > 0 {
		req.Header = header[0]
	}
	resp, err := s.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// callMap executes a call whose response body must be a JSON object.
func (s *AccountSession) callMap(ctx context.Context, method, path string, params url.Values, body any, header ...http.Header) (map[string]any, error) {
	data, err := s.call(ctx, method, path, params, body, header...)
	if err != nil {
		return nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, oops.Code(CodeBadResponse).With("path", path).Wrap(err)
	}
	return decoded, nil
}

// callSlice executes a call whose response body must be a JSON array.
func (s *AccountSession) callSlice(ctx context.Context, method, path string, params url.Values, body any) ([]any, error) {
	data, err := s.call(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}
	var decoded []any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, oops.Code(CodeBadResponse).With("path", path).Wrap(err)
	}
	return decoded, nil
}

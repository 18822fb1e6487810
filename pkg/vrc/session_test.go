// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrcpipe/vrcpipe/pkg/api"
	"github.com/vrcpipe/vrcpipe/pkg/errutil"
)

// fakeTransport is a scripted api.Transport. Responses are keyed by
// "METHOD path"; unmatched requests fail the test via the returned error.
type fakeTransport struct {
	responses map[string]any
	handlers  map[string]func(req api.Request) (any, error)
	requests  []api.Request
	token     string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: map[string]any{},
		handlers:  map[string]func(req api.Request) (any, error){},
		token:     "tok",
	}
}

func (f *fakeTransport) respond(method, path string, body any) {
	f.responses[method+" "+path] = body
}

func (f *fakeTransport) handle(method, path string, fn func(req api.Request) (any, error)) {
	f.handlers[method+" "+path] = fn
}

func (f *fakeTransport) Do(_ context.Context, req api.Request) (*api.Response, error) {
	f.requests = append(f.requests, req)
	key := req.Method + " " + req.Path

	var body any
	if fn, ok := f.handlers[key]; ok {
		var err error
		body, err = fn(req)
		if err != nil {
			return nil, err
		}
	} else if scripted, ok := f.responses[key]; ok {
		body = scripted
	} else {
		return nil, fmt.Errorf("unscripted request: %s", key)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &api.Response{Status: 200, Data: data}, nil
}

func (f *fakeTransport) AuthToken() string { return f.token }

func currentUserPayload(id string) map[string]any {
	return map[string]any{
		"id":                 id,
		"username":           "tester",
		"displayName":        "Tester",
		"isFriend":           false,
		"allowAvatarCopying": true,
		"hasEmail":           true,
		"feature":            map[string]any{"twoFactorAuth": false},
		"friends":            []any{"usr_a", "usr_b"},
		"onlineFriends":      []any{"usr_a"},
		"offlineFriends":     []any{"usr_b"},
	}
}

func fullUserPayload(id string, state State) map[string]any {
	return map[string]any{
		"id":                 id,
		"username":           "friend",
		"displayName":        "Friend " + id,
		"state":              string(state),
		"isFriend":           true,
		"allowAvatarCopying": false,
	}
}

func limitedUserPayload(id string) map[string]any {
	return map[string]any{
		"id":          id,
		"displayName": "Friend " + id,
		"isFriend":    true,
	}
}

func TestSessionLogin(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("GET", "/auth/user", currentUserPayload("usr_me"))
	ses := NewSession(transport)

	me, err := ses.Login(context.Background(), "tester", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "usr_me", me.ID)
	assert.True(t, ses.LoggedIn())
	assert.Same(t, me, ses.Me())
	assert.Equal(t, []string{"usr_a", "usr_b"}, me.FriendIDs)

	// The login request must carry basic auth for username:password.
	req := transport.requests[0]
	auth := req.Header.Get("Authorization")
	assert.Equal(t, "Basic dGVzdGVyOmh1bnRlcjI=", auth)
}

func TestSessionLogin_Twice(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("GET", "/auth/user", currentUserPayload("usr_me"))
	ses := NewSession(transport)

	_, err := ses.Login(context.Background(), "tester", "hunter2")
	require.NoError(t, err)

	_, err = ses.Login(context.Background(), "tester", "hunter2")
	errutil.AssertErrorCode(t, err, CodeAlreadyLoggedIn)
}

func TestSessionLogout(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("GET", "/auth/user", currentUserPayload("usr_me"))
	transport.respond("PUT", "/logout", map[string]any{"success": true})
	ses := NewSession(transport)

	_, err := ses.Login(context.Background(), "tester", "hunter2")
	require.NoError(t, err)

	require.NoError(t, ses.Logout(context.Background()))
	assert.False(t, ses.LoggedIn())
	assert.Nil(t, ses.Me())
}

func TestSessionFetchFriends_Pagination(t *testing.T) {
	transport := newFakeTransport()
	transport.handle("GET", "/auth/user/friends", func(req api.Request) (any, error) {
		offset, _ := strconv.Atoi(req.Params.Get("offset"))
		// Serve one full page, then a short page.
		size := 100
		if offset >= 100 {
			size = 17
		}
		page := make([]any, 0, size)
		for i := 0; i < size; i++ {
			page = append(page, limitedUserPayload(fmt.Sprintf("usr_%d", offset+i)))
		}
		return page, nil
	})
	ses := NewSession(transport)

	friends, err := ses.FetchFriends(context.Background(), FriendsQuery{})
	require.NoError(t, err)

	assert.Len(t, friends, 117)
	assert.Equal(t, "usr_0", friends[0].ID)
	assert.Equal(t, "usr_116", friends[116].ID)
	require.Len(t, transport.requests, 2, "a short page ends the pagination loop")
	assert.Equal(t, "100", transport.requests[1].Params.Get("offset"))
}

func TestSessionFetchFriends_Params(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("GET", "/auth/user/friends", []any{})
	ses := NewSession(transport)

	_, err := ses.FetchFriends(context.Background(), FriendsQuery{Offline: true, N: 5})
	require.NoError(t, err)

	params := transport.requests[0].Params
	assert.Equal(t, "true", params.Get("offline"))
	assert.Equal(t, "5", params.Get("n"))
	assert.Equal(t, "0", params.Get("offset"))
}

func TestSessionFetchUserByID(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("GET", "/users/usr_1", fullUserPayload("usr_1", StateOnline))
	ses := NewSession(transport)

	u, err := ses.FetchUserByID(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Equal(t, "usr_1", u.ID)
	assert.Equal(t, StateOnline, u.State)
}

func TestSessionFetchUserByName_Escapes(t *testing.T) {
	transport := newFakeTransport()
	name := "name with spaces"
	transport.respond("GET", "/users/"+url.PathEscape(name)+"/name", fullUserPayload("usr_1", StateOnline))
	ses := NewSession(transport)

	u, err := ses.FetchUserByName(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, "usr_1", u.ID)
}

func TestSessionFetchInstance_Path(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("GET", "/instances/wrld_1:42", map[string]any{
		"worldId":    "wrld_1",
		"n_users":    3,
		"instanceId": "wrld_1:42",
		"shortName":  "abc",
		"location":   "wrld_1:42",
		"id":         "wrld_1:42",
	})
	ses := NewSession(transport)

	in, err := ses.FetchInstance(context.Background(), "wrld_1", "42")
	require.NoError(t, err)
	assert.Equal(t, 3, in.NUsers)
	require.NotNil(t, in.Location)
	assert.Equal(t, "wrld_1", in.Location.WorldID)
	assert.Equal(t, "https://vrchat.com/i/abc", in.ShortURL())
}

func TestSessionBadResponse(t *testing.T) {
	transport := newFakeTransport()
	// An array where an object is required.
	transport.respond("GET", "/auth/user", []any{"not", "an", "object"})
	ses := NewSession(transport)

	_, err := ses.Login(context.Background(), "tester", "hunter2")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, CodeBadResponse, oopsErr.Code())
}

func TestSessionAddFavorite_Body(t *testing.T) {
	transport := newFakeTransport()
	transport.respond("POST", "/favorites", map[string]any{
		"id":         "fav_1",
		"type":       "friend",
		"favoriteId": "usr_1",
		"tags":       []any{"group_0"},
	})
	ses := NewSession(transport)

	fav, err := ses.addFavorite(context.Background(), FavoriteFriend, "usr_1", nil)
	require.NoError(t, err)
	assert.Equal(t, "fav_1", fav.ID)
	assert.Equal(t, FavoriteFriend, fav.Type)
	assert.Equal(t, []string{"group_0"}, fav.Tags)

	body, ok := transport.requests[0].Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "usr_1", body["favoriteId"])
	_, hasTags := body["tags"]
	assert.False(t, hasTags, "empty tags must be omitted")
}

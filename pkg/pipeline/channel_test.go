// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// pushServer is a fake pipeline endpoint. Each accepted connection is
// handed to serve on its own goroutine. Tests must close the server
// before goleak verification runs, so defer close after the goleak defer.
type pushServer struct {
	srv      *httptest.Server
	conns    atomic.Int32
	authed   atomic.Value
	serve    func(conn *websocket.Conn, n int)
	upgrader websocket.Upgrader
}

func newPushServer(serve func(conn *websocket.Conn, n int)) *pushServer {
	ps := &pushServer{serve: serve}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.authed.Store(r.URL.Query().Get("authToken"))
		conn, err := ps.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := int(ps.conns.Add(1))
		ps.serve(conn, n)
	}))
	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func testSession() *vrc.AccountSession {
	return vrc.NewSession(newScriptedTransport())
}

func TestChannelConnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	frames := make(chan []byte, 1)
	frames <- frame(t, "friend-online", map[string]any{
		"user": userPayload("usr_1", vrc.StateOnline),
	})

	done := make(chan struct{})
	ps := newPushServer(func(conn *websocket.Conn, _ int) {
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, <-frames)
		<-done
	})
	defer ps.srv.Close()

	connected := make(chan struct{})
	online := make(chan *vrc.User, 1)
	disconnected := make(chan struct{})
	hooks := &Hooks{
		Connect:      func() { close(connected) },
		FriendOnline: func(u *vrc.User) { online <- u },
		Disconnect:   func() { close(disconnected) },
	}

	c := NewChannel(testSession(), hooks,
		WithURL(ps.url()),
		WithReconnect(false),
	)

	require.NoError(t, c.Connect(context.Background()))
	waitFor(t, connected, "connect hook")
	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, "tok", ps.authed.Load(), "dial carries the session token")

	select {
	case u := <-online:
		assert.Equal(t, "usr_1", u.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for friend-online hook")
	}
	assert.Equal(t, 1, c.Roster().Len())

	c.Disconnect()
	close(done)
	waitFor(t, disconnected, "disconnect hook")
	assert.Equal(t, StateDisconnected, c.State())
}

func TestChannelConnect_AlreadyOpen(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan struct{})
	ps := newPushServer(func(conn *websocket.Conn, _ int) {
		defer conn.Close()
		<-done
	})
	defer ps.srv.Close()

	disconnected := make(chan struct{})
	c := NewChannel(testSession(), &Hooks{Disconnect: func() { close(disconnected) }},
		WithURL(ps.url()),
		WithReconnect(false),
	)

	require.NoError(t, c.Connect(context.Background()))

	err := c.Connect(context.Background())
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, CodeAlreadyOpen, oopsErr.Code())

	c.Disconnect()
	close(done)
	waitFor(t, disconnected, "disconnect hook")
}

func TestChannelConnect_DialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewChannel(testSession(), &Hooks{},
		WithURL("ws://127.0.0.1:1"),
		WithReconnect(false),
	)

	err := c.Connect(context.Background())
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, CodeDial, oopsErr.Code())
	assert.Equal(t, StateDisconnected, c.State(), "a failed dial leaves the channel closed")
}

func TestChannelReconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan struct{})
	ps := newPushServer(func(conn *websocket.Conn, n int) {
		defer conn.Close()
		if n == 1 {
			// Drop the first connection immediately.
			return
		}
		<-done
	})
	defer ps.srv.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	var connects atomic.Int32
	reconnected := make(chan struct{})
	disconnects := make(chan struct{}, 4)
	hooks := &Hooks{
		Connect: func() {
			if connects.Add(1) == 2 {
				close(reconnected)
			}
		},
		Disconnect: func() { disconnects <- struct{}{} },
	}

	c := NewChannel(testSession(), hooks,
		WithURL(ps.url()),
		WithBackoff(10*time.Millisecond),
		WithMetrics(metrics),
	)

	require.NoError(t, c.Connect(context.Background()))
	waitFor(t, reconnected, "automatic reconnect")

	assert.Equal(t, int64(1), c.Reconnects(), "exactly one reconnect attempt per drop")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReconnectsTotal), 0.01)
	assert.Equal(t, StateConnected, c.State())

	c.Disconnect()
	close(done)
	waitFor(t, disconnects, "disconnect hook")
}

func TestChannelReconnect_DialFailureSurfaces(t *testing.T) {
	defer goleak.VerifyNone(t)

	ps := newPushServer(func(conn *websocket.Conn, _ int) {
		conn.Close()
	})
	defer ps.srv.Close()

	errs := make(chan error, 4)
	disconnected := make(chan struct{}, 4)
	c := NewChannel(testSession(), &Hooks{
		Disconnect: func() { disconnected <- struct{}{} },
		Error:      func(err error) { errs <- err },
	},
		WithURL(ps.url()),
		WithBackoff(200*time.Millisecond),
	)

	require.NoError(t, c.Connect(context.Background()))
	waitFor(t, disconnected, "disconnect hook")

	// Take the endpoint away while the close handler is waiting out the
	// backoff, so the reconnect dial has nowhere to go.
	ps.srv.Close()

	// The dropped connection may surface its own channel error first;
	// wait for the dial failure specifically.
	deadline := time.After(5 * time.Second)
	var dialErr error
	for dialErr == nil {
		select {
		case err := <-errs:
			if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == CodeDial {
				dialErr = err
			}
		case <-deadline:
			t.Fatal("timed out waiting for the reconnect dial error")
		}
	}

	assert.Equal(t, StateDisconnected, c.State(), "a failed reconnect leaves the channel closed")
	assert.Equal(t, int64(1), c.Reconnects(), "one attempt per drop, no retry loop")
}

func TestChannelDisconnect_StopsReconnecting(t *testing.T) {
	defer goleak.VerifyNone(t)

	ps := newPushServer(func(conn *websocket.Conn, _ int) {
		conn.Close()
	})
	defer ps.srv.Close()

	disconnected := make(chan struct{}, 4)
	c := NewChannel(testSession(), &Hooks{Disconnect: func() { disconnected <- struct{}{} }},
		WithURL(ps.url()),
		WithBackoff(time.Hour),
	)

	require.NoError(t, c.Connect(context.Background()))
	waitFor(t, disconnected, "disconnect hook")

	// The close handler is now waiting out the backoff; Disconnect must
	// cancel the pending reconnect attempt.
	c.Disconnect()
	assert.Equal(t, StateDisconnected, c.State())
	assert.False(t, waitForReconnect(c, 50*time.Millisecond))
}

func waitForReconnect(c *Channel, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if c.Reconnects() > 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

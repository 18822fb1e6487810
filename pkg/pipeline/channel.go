// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// Error codes raised by the channel.
const (
	CodeAlreadyOpen = "PIPELINE_ALREADY_OPEN"
	CodeDial        = "PIPELINE_DIAL"
	CodeChannel     = "PIPELINE_CHANNEL"
	CodeDecode      = "PIPELINE_DECODE"
	CodeEvent       = "PIPELINE_EVENT"
	CodeBadHook     = "PIPELINE_BAD_HOOK"
)

// DefaultURL is the production push endpoint.
const DefaultURL = "wss://pipeline.vrchat.cloud/"

// DefaultBackoff is the fixed wait before an automatic reconnect attempt.
const DefaultBackoff = 2 * time.Second

// State is the channel's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Option configures a Channel.
type Option func(*Channel)

// WithURL overrides the push endpoint, primarily for tests.
func WithURL(url string) Option {
	return func(c *Channel) { c.url = url }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

// WithBackoff sets the fixed reconnect backoff.
func WithBackoff(d time.Duration) Option {
	return func(c *Channel) { c.backoff = d }
}

// WithReconnect enables or disables automatic reconnection after a close.
// Enabled by default.
func WithReconnect(enabled bool) Option {
	return func(c *Channel) { c.reconnect = enabled }
}

// WithLogger sets the channel's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Channel) { c.log = log }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// Channel owns one push-channel connection at a time. It decodes inbound
// frames into typed presence events, keeps the friend roster consistent,
// and invokes the caller's hooks.
//
// All event handling runs on a single receive goroutine, so hooks and
// roster transitions for one channel never interleave. A slow lookup call
// inside a handler delays the next queued event by design: per-connection
// presence ordering matters more than throughput here.
type Channel struct {
	ses     *vrc.AccountSession
	roster  *vrc.Roster
	hooks   *Hooks
	url     string
	dialer  *websocket.Dialer
	backoff time.Duration
	log     *slog.Logger
	metrics *Metrics

	mu         sync.Mutex
	conn       *websocket.Conn
	state      State
	reconnect  bool
	ctx        context.Context
	reconnects int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewChannel creates a presence channel bound to the session. The channel
// owns its roster; Roster() exposes read-only snapshots of it.
func NewChannel(ses *vrc.AccountSession, hooks *Hooks, opts ...Option) *Channel {
	if hooks == nil {
		hooks = &Hooks{}
	}
	c := &Channel{
		ses:       ses,
		roster:    vrc.NewRoster(),
		hooks:     hooks,
		url:       DefaultURL,
		dialer:    websocket.DefaultDialer,
		backoff:   DefaultBackoff,
		reconnect: true,
		log:       slog.Default(),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Roster returns the channel-owned friend roster. Use its snapshot
// accessors; the live partitions are not safe for external mutation.
func (c *Channel) Roster() *vrc.Roster { return c.roster }

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reconnects returns how many automatic reconnect attempts have been made
// over the channel's lifetime.
func (c *Channel) Reconnects() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnects
}

// Connect opens the push channel using the session's auth token. It fails
// with CodeAlreadyOpen if a connection attempt or open connection already
// exists. The context is also used for lookup calls made while handling
// events on this connection.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	conn, err := c.connectLocked(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.afterConnect(conn)
	return nil
}

// connectLocked performs the state check and dial as one critical section
// so Disconnect cannot race a reconnect attempt.
func (c *Channel) connectLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil || c.state != StateDisconnected {
		return nil, oops.Code(CodeAlreadyOpen).
			With("state", c.state.String()).
			Errorf("channel already has a connection")
	}
	c.state = StateConnecting

	conn, resp, err := c.dialer.DialContext(ctx, c.url+"?authToken="+c.ses.AuthToken(), nil)
	if err != nil {
		c.state = StateDisconnected
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, oops.Code(CodeDial).
			With("url", c.url).
			With("status", status).
			Wrap(err)
	}

	c.conn = conn
	c.state = StateConnected
	c.ctx = ctx
	return conn, nil
}

func (c *Channel) afterConnect(conn *websocket.Conn) {
	c.log.Info("pipeline connected", "url", c.url)
	c.hooks.fireConnect()
	go c.readLoop(conn)
}

// Disconnect disables future reconnection and closes the active channel if
// one exists. It is idempotent and safe to call from any goroutine.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.reconnect = false
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.stopOnce.Do(func() { close(c.stop) })

	if conn != nil {
		//nolint:errcheck // close errors on teardown carry no signal
		conn.Close()
	}
}

// readLoop is the single consumer of inbound frames. Every callback for
// this connection runs here, serialized.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		c.dispatch(frame)
	}
}

// handleClose runs the close path: clear the handle, notify, and schedule
// exactly one reconnect attempt when reconnection is enabled.
func (c *Channel) handleClose(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	// If the stored conn no longer matches, Disconnect already tore this
	// connection down deliberately and the read error is just fallout.
	deliberate := c.conn != conn
	if !deliberate {
		c.conn = nil
		c.state = StateDisconnected
	}
	retry := c.reconnect
	c.mu.Unlock()

	if !deliberate && !isExpectedClose(cause) {
		c.hooks.fireError(oops.Code(CodeChannel).Wrap(cause))
	}

	c.log.Info("pipeline disconnected", "deliberate", deliberate, "reconnect", retry)
	c.hooks.fireDisconnect()

	if !retry {
		return
	}

	timer := time.NewTimer(c.backoff)
	select {
	case <-timer.C:
	case <-c.stop:
		// Disconnected while we were waiting out the backoff.
		timer.Stop()
		return
	}

	c.mu.Lock()
	if !c.reconnect {
		c.mu.Unlock()
		return
	}
	c.reconnects++
	c.metrics.reconnect()
	fresh, err := c.connectLocked(c.ctx)
	c.mu.Unlock()

	if err != nil {
		// Stay Disconnected rather than looping tightly; the caller can
		// call Connect again.
		c.hooks.fireError(err)
		return
	}
	c.afterConnect(fresh)
}

// isExpectedClose reports whether a read error is a normal end of the
// connection rather than a transport failure worth surfacing.
func isExpectedClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

// Package websocket owns the realtime channel lifecycles: dialing with a
// fresh token, dispatching decoded events, and the reconnect state machine.
package websocket

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bekzodm/murojaat-desk/internal/domain"
)

// State of one channel. Transitions:
// Connecting -> Open -> ClosedClean (teardown / normal close code)
// Connecting -> Open -> ClosedAbnormal -> ReconnectScheduled -> Connecting ...
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosedClean
	StateClosedAbnormal
	StateReconnectScheduled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedClean:
		return "closed"
	case StateClosedAbnormal:
		return "closed_abnormal"
	case StateReconnectScheduled:
		return "reconnect_scheduled"
	}
	return "unknown"
}

// TokenSource yields a currently valid access token. Satisfied by
// auth.TokenStore. Tokens are short-lived, so every (re)connect asks again.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
}

// Handler receives every decoded event from a channel. Events with
// Type == EventUnknown never reach it.
type Handler func(domain.Event)

// Channel is one logical WebSocket scope (chat session, department, VIP
// feed) with its own reconnect state machine. At most one reconnect timer is
// pending at any time; a clean teardown cancels it and a late timer firing
// after teardown is a no-op.
type Channel struct {
	name    string
	rawURL  string
	tokens  TokenSource
	handler Handler
	delay   time.Duration
	dialer  *websocket.Dialer

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	reconnectTimer *time.Timer
	torn           bool
}

// NewChannel builds an unconnected channel. rawURL is the full ws:// endpoint
// without the token query parameter.
func NewChannel(name, rawURL string, tokens TokenSource, handler Handler, delay time.Duration) *Channel {
	return &Channel{
		name:    name,
		rawURL:  rawURL,
		tokens:  tokens,
		handler: handler,
		delay:   delay,
		dialer:  websocket.DefaultDialer,
	}
}

// State returns the current FSM state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the channel. The access token rides in the query string
// because the browser-equivalent client cannot set headers on an upgrade;
// the backend expects it there for every channel kind.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		return domain.ErrChannelClosed
	}
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return nil
	}
	// An explicit connect supersedes any scheduled one.
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateClosedAbnormal
		c.mu.Unlock()
		log.Printf("[WS] %s: no valid token for connect: %v", c.name, err)
		c.scheduleReconnect()
		return err
	}

	target, err := url.Parse(c.rawURL)
	if err != nil {
		c.mu.Lock()
		c.state = StateClosedClean
		c.mu.Unlock()
		return err
	}
	q := target.Query()
	q.Set("token", token)
	target.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		c.mu.Lock()
		if c.torn {
			c.mu.Unlock()
			return err
		}
		c.state = StateClosedAbnormal
		c.mu.Unlock()
		log.Printf("[WS] %s: dial failed: %v", c.name, err)
		c.scheduleReconnect()
		return err
	}

	c.mu.Lock()
	if c.torn {
		// Teardown raced the dial. Do not resurrect.
		c.mu.Unlock()
		conn.Close()
		return domain.ErrChannelClosed
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	log.Printf("[WS] %s: connected", c.name)
	go c.readLoop(conn)
	return nil
}

// readLoop reads until the connection dies, dispatching decoded events. A
// malformed frame is logged and skipped, never fatal to the channel.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		event, perr := domain.ParseEvent(data)
		if perr != nil {
			log.Printf("[WS] %s: dropping malformed frame: %v", c.name, perr)
			continue
		}
		if event.Type == domain.EventUnknown {
			continue
		}
		c.handler(event)
	}
}

// handleClose classifies the close and schedules a reconnect only for
// abnormal ones. Acting only when conn is still the current connection
// prevents a stale read loop from closing or reconnecting its replacement.
func (c *Channel) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil

	clean := c.torn || websocket.IsCloseError(err, websocket.CloseNormalClosure)
	if clean {
		c.state = StateClosedClean
		c.mu.Unlock()
		log.Printf("[WS] %s: closed", c.name)
		return
	}

	c.state = StateClosedAbnormal
	c.mu.Unlock()
	log.Printf("[WS] %s: abnormal close: %v", c.name, err)
	c.scheduleReconnect()
}

// scheduleReconnect arms the single reconnect timer. Scheduling again before
// it fires replaces it, so rapid close events cannot pile up timers. The
// timer callback dials explicitly; nothing else retriggers a connect.
func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torn {
		return
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.state = StateReconnectScheduled
	c.reconnectTimer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		// Only a channel still waiting on this schedule may dial. Anything
		// else (torn down, explicitly reconnected, already open) means the
		// timer is stale and must not touch the live state.
		if c.torn || c.state != StateReconnectScheduled {
			c.mu.Unlock()
			return
		}
		c.reconnectTimer = nil
		c.state = StateIdle
		c.mu.Unlock()

		log.Printf("[WS] %s: reconnecting", c.name)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		c.Connect(ctx)
	})
	log.Printf("[WS] %s: reconnect scheduled in %s", c.name, c.delay)
}

// Teardown cancels any pending reconnect, closes a live socket with a normal
// close frame, and marks the channel dead so a late timer or read-loop exit
// cannot bring it back. Tearing down an already-closed channel is a no-op.
func (c *Channel) Teardown() {
	c.mu.Lock()
	c.torn = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	closing := c.state == StateOpen || c.state == StateConnecting
	c.state = StateClosedClean
	c.mu.Unlock()

	if conn != nil && closing {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
}

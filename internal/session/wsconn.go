package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/ws"
	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by Emit while the connection is down.
var ErrNotConnected = errors.New("not connected")

// Receiver is notified of connection changes and inbound frames.
// *Session implements it.
type Receiver interface {
	Connected(ctx context.Context)
	Disconnected()
	HandleFrame(f ws.Frame)
}

// DialOptions tune the reconnecting client.
type DialOptions struct {
	Header     http.Header
	MinBackoff time.Duration
	MaxBackoff time.Duration
	WriteWait  time.Duration
}

func (o DialOptions) withDefaults() DialOptions {
	if o.MinBackoff <= 0 {
		o.MinBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = 10 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	return o
}

// Conn is a WebSocket transport that reconnects with exponential backoff
// until it is closed.
type Conn struct {
	url  string
	opts DialOptions
	recv Receiver

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial starts connecting to url in the background and returns immediately.
// recv.Connected runs each time a connection is established.
func Dial(ctx context.Context, url string, recv Receiver, opts DialOptions) *Conn {
	c := newConn(ctx, url, recv, opts)
	go c.run()
	return c
}

// Connect attaches a reconnecting connection to s and starts it.
func (s *Session) Connect(ctx context.Context, url string, opts DialOptions) *Conn {
	c := newConn(ctx, url, s, opts)
	s.Attach(c)
	go c.run()
	return c
}

func newConn(ctx context.Context, url string, recv Receiver, opts DialOptions) *Conn {
	ctx, cancel := context.WithCancel(ctx)
	return &Conn{
		url:    url,
		opts:   opts.withDefaults(),
		recv:   recv,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (c *Conn) run() {
	defer close(c.done)
	backoff := c.opts.MinBackoff
	for {
		conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.url, c.opts.Header)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			log.Printf("[Session] Dial %s failed, retrying in %v: %v", c.url, backoff, err)
			select {
			case <-time.After(backoff):
			case <-c.ctx.Done():
				return
			}
			backoff *= 2
			if backoff > c.opts.MaxBackoff {
				backoff = c.opts.MaxBackoff
			}
			continue
		}
		backoff = c.opts.MinBackoff

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if c.ctx.Err() != nil {
			return
		}
		c.recv.Disconnected()
	}
}

// readLoop delivers frames until the connection fails. The server's
// connected frame is handled before Connected runs, so the receiver knows
// its connection id when it joins. Connected runs on this goroutine, so
// Disconnected can only follow it.
func (c *Conn) readLoop(conn *websocket.Conn) {
	stop := context.AfterFunc(c.ctx, func() { conn.Close() })
	defer stop()

	joined := false
	for {
		var f ws.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if c.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("[Session] Connection lost: %v", err)
			}
			return
		}
		c.recv.HandleFrame(f)
		if !joined {
			joined = true
			c.recv.Connected(c.ctx)
		}
	}
}

// Emit sends one event frame.
func (c *Conn) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(ws.Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Close stops reconnecting and closes the current connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	c.mu.Unlock()

	c.cancel()
	<-c.done
	return nil
}

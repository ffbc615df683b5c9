package net

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kataras/golog"
)

var logger = golog.Child("[net]")

var (
	ErrNotConnected = errors.New("socket not connected")
	ErrClosed       = errors.New("connection closed")
)

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second
	defaultHandshakeTimeout  = 10 * time.Second
	defaultPingWindow        = 45 * time.Second
)

// AckFunc receives the arguments the server passed to an ack callback.
type AckFunc func(args Message)

// Options configures a Conn.
type Options struct {
	// URL of the socket.io server, e.g. http://10.0.2.2:3001.
	URL string
	// Path defaults to /socket.io/.
	Path string
	// ReconnectAttempts defaults to 5; negative disables reconnection.
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HandshakeTimeout  time.Duration
	Dialer            *websocket.Dialer
}

// Conn is a socket.io client connection over a websocket. It reconnects on
// its own, up to Options.ReconnectAttempts times with a fixed delay.
//
// Handlers run on the connection's reader goroutine. They must not call
// Close.
type Conn struct {
	opts Options

	mu        sync.Mutex
	ws        *websocket.Conn
	connected bool
	closed    bool
	handlers  map[string][]func(Message)
	acks      map[int]AckFunc
	nextAck   int
	onConnect []func()
	onDrop    []func(error)

	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewConn(opts Options) *Conn {
	if opts.Path == "" {
		opts.Path = "/socket.io/"
	}
	switch {
	case opts.ReconnectAttempts == 0:
		opts.ReconnectAttempts = DefaultReconnectAttempts
	case opts.ReconnectAttempts < 0:
		// negative disables reconnection
		opts.ReconnectAttempts = 0
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	}
	return &Conn{
		opts:     opts,
		handlers: make(map[string][]func(Message)),
		acks:     make(map[int]AckFunc),
	}
}

// Endpoint returns the websocket URL the connection dials.
func (c *Conn) Endpoint() (string, error) {
	return endpoint(c.opts.URL, c.opts.Path)
}

func endpoint(raw, path string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.Trim(path, "/") + "/"
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// On registers a handler for a server event.
func (c *Conn) On(event string, fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// OnConnect registers a callback fired after every successful (re)connect.
func (c *Conn) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// OnDisconnect registers a callback fired when an established connection drops.
func (c *Conn) OnDisconnect(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDrop = append(c.onDrop, fn)
}

func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Open starts connecting in the background. It does not wait for the
// connection to be established; use OnConnect for that.
func (c *Conn) Open(ctx context.Context) error {
	target, err := c.Endpoint()
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx, target)
	return nil
}

// Close disconnects and stops reconnecting. Pending ack callbacks are
// dropped.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws, connected, cancel := c.ws, c.connected, c.cancel
	c.acks = make(map[int]AckFunc)
	c.mu.Unlock()

	if ws != nil && connected {
		_ = c.write(ws, []byte{eioMessage, sioDisconnect})
	}
	if cancel != nil {
		cancel()
	}
	if ws != nil {
		_ = ws.Close()
	}
	c.wg.Wait()
	return nil
}

// Emit sends an event without waiting for an acknowledgement.
func (c *Conn) Emit(event string, args ...any) error {
	return c.emit(event, nil, args...)
}

// EmitWithAck sends an event and calls ack when the server acknowledges it.
func (c *Conn) EmitWithAck(event string, ack AckFunc, args ...any) error {
	return c.emit(event, ack, args...)
}

func (c *Conn) emit(event string, ack AckFunc, args ...any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.connected || c.ws == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	ws := c.ws
	id := noAck
	if ack != nil {
		id = c.nextAck
		c.nextAck++
		c.acks[id] = ack
	}
	c.mu.Unlock()

	data, err := encodeEvent(id, event, args...)
	if err == nil {
		err = c.write(ws, data)
	}
	if err != nil && id != noAck {
		c.mu.Lock()
		delete(c.acks, id)
		c.mu.Unlock()
	}
	return err
}

func (c *Conn) write(ws *websocket.Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	return ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) run(ctx context.Context, target string) {
	defer c.wg.Done()
	attempt := 0
	for {
		established, err := c.session(ctx, target)
		if ctx.Err() != nil {
			return
		}
		if established {
			attempt = 0
		}
		attempt++
		if attempt > c.opts.ReconnectAttempts {
			logger.Errorf("giving up on %s after %d attempts: %v", c.opts.URL, attempt-1, err)
			return
		}
		logger.Warnf("connection to %s lost (%v), reconnect %d/%d in %s",
			c.opts.URL, err, attempt, c.opts.ReconnectAttempts, c.opts.ReconnectDelay)

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session dials once and runs the read loop until the socket fails.
// established reports whether the namespace connect completed.
func (c *Conn) session(ctx context.Context, target string) (established bool, err error) {
	ws, _, err := c.opts.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return false, ErrClosed
	}
	c.ws = ws
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		wasConnected := c.connected
		c.connected = false
		c.ws = nil
		c.acks = make(map[int]AckFunc)
		drop := append([]func(error){}, c.onDrop...)
		c.mu.Unlock()
		ws.Close()
		if wasConnected {
			logger.Infof("disconnected from %s", c.opts.URL)
			for _, fn := range drop {
				fn(err)
			}
		}
	}()

	window := defaultPingWindow
	_ = ws.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return established, err
		}
		f, err := parseFrame(raw)
		if err != nil {
			logger.Debugf("skipping frame %q: %v", raw, err)
			continue
		}

		switch f.eio {
		case eioOpen:
			var hs handshake
			if err := json.Unmarshal(f.payload, &hs); err != nil {
				return established, fmt.Errorf("decode handshake: %w", err)
			}
			if hs.PingInterval > 0 {
				window = time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
			}
			if err := c.write(ws, []byte{eioMessage, sioConnect}); err != nil {
				return established, err
			}
		case eioPing:
			if err := c.write(ws, append([]byte{eioPong}, f.payload...)); err != nil {
				return established, err
			}
		case eioClose:
			return established, errors.New("server closed the transport")
		case eioMessage:
			if done, err := c.handleMessage(ws, f); done || err != nil {
				if err == nil {
					err = errors.New("server disconnected the socket")
				}
				return established || c.Connected(), err
			}
			if f.sio == sioConnect {
				established = true
			}
		}
		_ = ws.SetReadDeadline(time.Now().Add(window))
	}
}

// handleMessage dispatches one socket.io packet. done is true when the
// server ended the namespace session.
func (c *Conn) handleMessage(ws *websocket.Conn, f frame) (done bool, err error) {
	switch f.sio {
	case sioConnect:
		c.mu.Lock()
		c.connected = true
		hooks := append([]func(){}, c.onConnect...)
		c.mu.Unlock()
		logger.Infof("connected to %s", c.opts.URL)
		for _, fn := range hooks {
			fn()
		}
	case sioDisconnect:
		return true, nil
	case sioConnectError:
		return true, fmt.Errorf("connect refused: %s", f.payload)
	case sioEvent:
		msg, err := decodeEvent(f.payload)
		if err != nil {
			logger.Warnf("bad event: %v", err)
			return false, nil
		}
		c.mu.Lock()
		handlers := append([]func(Message){}, c.handlers[msg.Event]...)
		c.mu.Unlock()
		for _, fn := range handlers {
			fn(msg)
		}
		if f.ackID != noAck {
			// the server asked for an ack; answer empty so it doesn't wait
			if data, err := encodeAck(f.ackID); err == nil {
				_ = c.write(ws, data)
			}
		}
	case sioAck:
		args, err := decodeAckArgs(f.payload)
		if err != nil {
			logger.Warnf("bad ack %d: %v", f.ackID, err)
			return false, nil
		}
		c.mu.Lock()
		fn, ok := c.acks[f.ackID]
		delete(c.acks, f.ackID)
		c.mu.Unlock()
		if ok {
			fn(Message{Args: args})
		}
	}
	return false, nil
}

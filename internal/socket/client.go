package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

const (
	DefaultMaxReconnectAttempts = 5
	DefaultBaseDelay            = time.Second
	DefaultMaxDelay             = 30 * time.Second
	DefaultHeartbeatInterval    = 30 * time.Second

	writeTimeout = 10 * time.Second
)

// ErrNoHandler is returned by NewClient when no handler is given.
var ErrNoHandler = errors.New("socket handler is required")

// Config wires the endpoint and retry cadence of a Client.
type Config struct {
	Endpoint             Endpoint
	MaxReconnectAttempts int
	BaseDelay            time.Duration
	MaxDelay             time.Duration
	HeartbeatInterval    time.Duration
	Dialer               *websocket.Dialer
	Log                  *zap.Logger
	Metrics              *Metrics
}

// Client is a reconnecting websocket client for one thread.
type Client struct {
	cfg     Config
	url     string
	handler Handler
	log     *zap.Logger
	metrics *Metrics

	mu      sync.Mutex
	status  Status
	conn    *websocket.Conn
	closing bool
	cancel  context.CancelFunc
	done    chan struct{}

	// writeMu serializes writers so frames keep their send order.
	writeMu sync.Mutex
}

// NewClient builds a Client. It does not dial until Connect.
func NewClient(cfg Config, h Handler) (*Client, error) {
	if h == nil {
		return nil, ErrNoHandler
	}
	u, err := cfg.Endpoint.URL()
	if err != nil {
		return nil, fmt.Errorf("socket endpoint: %w", err)
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	closed := make(chan struct{})
	close(closed)
	return &Client{
		cfg:     cfg,
		url:     u,
		handler: h,
		log:     cfg.Log.Named("socket").With(zap.String("endpoint", cfg.Endpoint.Redacted())),
		metrics: cfg.Metrics,
		done:    closed,
	}, nil
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Done is closed when the connection loop has stopped for good.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Connect starts the connection loop. It is a no-op while a loop is already
// connecting, open or waiting to reconnect. Cancelling ctx stops the loop.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	switch c.status {
	case StatusConnecting, StatusOpen, StatusReconnecting:
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.closing = false
	c.done = make(chan struct{})
	c.status = StatusConnecting
	done := c.done
	c.mu.Unlock()

	c.notify(ConnState{Status: StatusConnecting})
	go c.run(runCtx, done)
}

// Close closes the connection with a normal closure. No reconnect follows.
func (c *Client) Close() {
	c.mu.Lock()
	c.closing = true
	conn, cancel := c.conn, c.cancel
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// Send marshals v and writes it as one text frame. It returns false, without
// error, when the socket is not open or the write fails; the frame is dropped.
func (c *Client) Send(v any) bool {
	c.mu.Lock()
	conn, status := c.conn, c.status
	c.mu.Unlock()

	if conn == nil || status != StatusOpen {
		c.metrics.RecordDroppedSend()
		c.log.Debug("socket not open; frame dropped", zap.Stringer("status", status))
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error("encode frame", zap.Error(err))
		return false
	}
	if err := c.write(conn, b); err != nil {
		c.metrics.RecordDroppedSend()
		c.log.Warn("write frame", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) write(conn *websocket.Conn, b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return err
	}
	c.metrics.RecordFrameOut()
	return nil
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	attempt := 0
	for {
		conn, _, err := c.cfg.Dialer.DialContext(ctx, c.url, nil)
		c.metrics.RecordDial(err)

		code := websocket.CloseAbnormalClosure
		if err == nil {
			attempt = 0
			if !c.opened(conn) {
				_ = conn.Close()
				c.finish(StatusClosed, websocket.CloseNormalClosure, nil)
				return
			}
			code, err = c.serve(ctx, conn)
			c.metrics.SetOpen(false)
		} else {
			c.log.Warn("dial failed", zap.Error(err))
		}

		if c.stopping(ctx) || code == websocket.CloseNormalClosure {
			c.finish(StatusClosed, code, err)
			return
		}
		c.notify(ConnState{Status: StatusClosed, Code: code, Err: err})

		attempt++
		if attempt > c.cfg.MaxReconnectAttempts {
			c.metrics.RecordGiveUp()
			c.log.Error("giving up reconnecting", zap.Int("attempts", c.cfg.MaxReconnectAttempts))
			c.finish(StatusGaveUp, code, err)
			return
		}

		delay := Backoff(attempt, c.cfg.BaseDelay, c.cfg.MaxDelay)
		c.setStatus(StatusReconnecting)
		c.metrics.RecordReconnect()
		c.log.Info("reconnecting", zap.Int("attempt", attempt), zap.Duration("delay", delay))
		c.notify(ConnState{Status: StatusReconnecting, Attempt: attempt, Delay: delay})

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			c.finish(StatusClosed, websocket.CloseNormalClosure, nil)
			return
		case <-t.C:
		}
		c.setStatus(StatusConnecting)
	}
}

// opened publishes conn unless Close raced with the dial.
func (c *Client) opened(conn *websocket.Conn) bool {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.status = StatusOpen
	c.mu.Unlock()

	c.metrics.SetOpen(true)
	c.log.Info("socket open")
	c.notify(ConnState{Status: StatusOpen})
	return true
}

// serve runs the heartbeat and read loop until the connection closes and
// returns the close code.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) (int, error) {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.heartbeat(ctx, conn, stop)
	}()
	defer func() {
		close(stop)
		wg.Wait()
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				if ce.Code == websocket.CloseNormalClosure {
					return ce.Code, nil
				}
				return ce.Code, err
			}
			return websocket.CloseAbnormalClosure, err
		}
		c.dispatch(data)
	}
}

// heartbeat pings on a fixed interval and closes conn when ctx ends so the
// read loop unblocks.
func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ping, _ := json.Marshal(frame.Ping())
	t := time.NewTicker(c.cfg.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-t.C:
			if err := c.write(conn, ping); err != nil {
				c.log.Debug("heartbeat write failed", zap.Error(err))
			}
		}
	}
}

func (c *Client) dispatch(data []byte) {
	raw, err := frame.Peek(data)
	if err != nil {
		c.metrics.RecordMalformed()
		c.log.Warn("dropping undecodable frame", zap.Error(err))
		return
	}

	switch raw.Type {
	case frame.TypeNewMessage:
		c.metrics.RecordFrameIn(raw.Type)
		c.handler.Message(raw)
	case frame.TypeReactionAdded, frame.TypeReactionRemoved:
		var r frame.Reaction
		if c.decode(raw, &r) {
			c.handler.Reaction(r)
		}
	case frame.TypeTypingStart, frame.TypeTypingStop:
		var t frame.Typing
		if c.decode(raw, &t) {
			c.handler.Typing(t)
		}
	case frame.TypePresenceUpdate:
		var p frame.Presence
		if c.decode(raw, &p) {
			c.handler.Presence(p)
		}
	case frame.TypePong:
		c.metrics.RecordFrameIn(raw.Type)
	default:
		if signal.IsSignal(raw.Type) {
			msg, err := signal.Decode(raw.Data)
			if err != nil {
				c.metrics.RecordMalformed()
				c.log.Warn("dropping malformed signal", zap.String("type", raw.Type), zap.Error(err))
				return
			}
			c.metrics.RecordFrameIn(raw.Type)
			c.handler.Signal(msg)
			return
		}
		c.metrics.RecordFrameIn("other")
		c.handler.Message(raw)
	}
}

func (c *Client) decode(raw frame.Raw, v any) bool {
	if err := raw.Decode(v); err != nil {
		c.metrics.RecordMalformed()
		c.log.Warn("dropping malformed frame", zap.String("type", raw.Type), zap.Error(err))
		return false
	}
	c.metrics.RecordFrameIn(raw.Type)
	return true
}

func (c *Client) stopping(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing || ctx.Err() != nil
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Client) finish(s Status, code int, err error) {
	c.setStatus(s)
	if s == StatusClosed {
		c.log.Info("socket closed", zap.Int("code", code))
	}
	c.notify(ConnState{Status: s, Code: code, Err: err})
}

func (c *Client) notify(st ConnState) {
	c.handler.ConnectionState(st)
}

package questclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ascend/internal/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrTimeout is returned when no response envelope arrives in time. The
// protocol has no cancellation: a request, once sent, either produces a
// response or nothing at all, so the client imposes its own deadline.
var ErrTimeout = errors.New("quest request timed out")

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	}
	return "disconnected"
}

type Config struct {
	URL   string
	Token string

	// Reconnection is automatic with bounded attempts and a fixed backoff.
	MaxReconnectAttempts int
	ReconnectBackoff     time.Duration

	HandshakeTimeout time.Duration
	Logger           *zap.Logger
}

// Client is one persistent delivery channel. Pushed events go to registered
// handlers; on-demand requests are correlated back by request id. Requests
// issued while the channel is down are dropped — at-most-once, no queueing.
type Client struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	closed  bool
	pending map[string]chan model.QuestResponse

	handlersMu sync.RWMutex
	handlers   map[string]func(model.QuestResponse)
}

func New(cfg Config) *Client {
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = 2 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		cfg:      cfg,
		log:      log,
		state:    StateDisconnected,
		pending:  make(map[string]chan model.QuestResponse),
		handlers: make(map[string]func(model.QuestResponse)),
	}
}

// OnEvent registers a handler for a named server event — unsolicited pushes
// or a category's response channel. Handlers for one event run in delivery
// order; register before Connect.
func (c *Client) OnEvent(event string, handler func(model.QuestResponse)) {
	c.handlersMu.Lock()
	c.handlers[event] = handler
	c.handlersMu.Unlock()
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the channel and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("client is closed")
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return errors.Wrap(err, "dial failed")
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	return conn, err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			c.log.Info("read error, channel lost", zap.Error(err))
			break
		}

		var resp model.QuestResponse
		if err := json.Unmarshal(p, &resp); err != nil {
			c.log.Error("failed to unmarshal server event", zap.Error(err))
			continue
		}

		c.dispatch(resp)
	}

	conn.Close()
	c.reconnect()
}

// dispatch routes a response by request id first, falling back to the event
// name for unsolicited pushes and uncorrelated envelopes.
func (c *Client) dispatch(resp model.QuestResponse) {
	if resp.RequestID != "" {
		c.mu.Lock()
		ch, ok := c.pending[resp.RequestID]
		if ok {
			delete(c.pending, resp.RequestID)
		}
		c.mu.Unlock()

		if ok {
			ch <- resp
			return
		}
	}

	c.handlersMu.RLock()
	handler := c.handlers[resp.Type]
	c.handlersMu.RUnlock()

	if handler != nil {
		handler(resp)
	}
}

func (c *Client) reconnect() {
	c.mu.Lock()
	if c.closed {
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}
	c.state = StateReconnecting
	c.mu.Unlock()

	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		time.Sleep(c.cfg.ReconnectBackoff)

		c.mu.Lock()
		if c.closed {
			c.state = StateDisconnected
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		conn, err := c.dial(context.Background())
		if err != nil {
			c.log.Info("reconnect attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()

		go c.readLoop(conn)
		return
	}

	c.log.Warn("reconnect attempts exhausted")
	c.setState(StateDisconnected)
}

// Request sends one category request and returns its request id. While the
// channel is down the request is silently dropped — the caller's timeout is
// the only signal it will get.
func (c *Client) Request(category, triggerPoint string) string {
	id := uuid.NewString()
	req := model.QuestRequest{
		Type:         model.RequestType(category),
		RequestID:    id,
		TriggerPoint: triggerPoint,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		c.log.Info("request dropped while disconnected",
			zap.String("category", category))
		return id
	}

	data, err := json.Marshal(req)
	if err != nil {
		c.log.Error("failed to marshal request", zap.Error(err))
		return id
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Error("failed to write request", zap.Error(err))
	}
	return id
}

// RequestWait sends a category request and waits for its response envelope
// up to timeout. On timeout the pending slot is dropped; a late response
// falls through to the category's event handler, if any.
func (c *Client) RequestWait(ctx context.Context, category, triggerPoint string, timeout time.Duration) (*model.QuestResponse, error) {
	ch := make(chan model.QuestResponse, 1)

	c.mu.Lock()
	id := uuid.NewString()
	c.pending[id] = ch
	connected := c.state == StateConnected && c.conn != nil
	if connected {
		req := model.QuestRequest{
			Type:         model.RequestType(category),
			RequestID:    id,
			TriggerPoint: triggerPoint,
		}
		data, err := json.Marshal(req)
		if err == nil {
			if werr := c.conn.WriteMessage(websocket.TextMessage, data); werr != nil {
				c.log.Error("failed to write request", zap.Error(werr))
			}
		}
	} else {
		c.log.Info("request dropped while disconnected",
			zap.String("category", category))
	}
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return &resp, nil
	case <-timer.C:
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ErrTimeout
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Close tears the channel down and stops reconnection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.state = StateDisconnected
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/crosspool/poolarb/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
	}
}

// Client is a reconnecting WebSocket client. Received messages are delivered
// on the Messages channel; the read loop reconnects with exponential backoff
// until the context is cancelled or Close is called.
type Client struct {
	config   Config
	state    State
	stateMu  sync.RWMutex
	conn     *websocket.Conn
	connMu   sync.RWMutex
	messages chan []byte
	done     chan struct{}
	closeOne sync.Once

	// OnStateChange, if set, is invoked on every connection state transition.
	OnStateChange func(from, to State)
}

// New creates a new WebSocket client.
func New(config Config) *Client {
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		done:     make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected)
		return apperror.External(apperror.CodeWebSocketConnectionError, c.config.URL, err)
	}

	c.setState(StateConnected)
	go c.readLoop(ctx)
	if c.config.PingInterval > 0 {
		go c.pingLoop(ctx)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(1 << 20)

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

func (c *Client) readLoop(ctx context.Context) {
	reconnects := 0
	backoff := c.config.InitialBackoff

	for {
		conn := c.current()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err == nil {
			reconnects = 0
			backoff = c.config.InitialBackoff
			select {
			case c.messages <- data:
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		// Read failed: reconnect with exponential backoff.
		c.setState(StateReconnecting)
		reconnects++
		if c.config.MaxReconnects > 0 && reconnects > c.config.MaxReconnects {
			c.setState(StateDisconnected)
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}

		if err := c.dial(ctx); err != nil {
			continue
		}
		c.setState(StateConnected)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if conn := c.current(); conn != nil {
				pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				_ = conn.Ping(pingCtx)
				cancel()
			}
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.current()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(errors.New("not connected")))
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.External(apperror.CodeWebSocketSendError, c.config.URL, err)
	}
	return nil
}

// Messages returns the channel for receiving messages.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close gracefully closes the WebSocket connection.
func (c *Client) Close() error {
	c.closeOne.Do(func() {
		close(c.done)
	})
	if conn := c.current(); conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	c.setState(StateDisconnected)
	return nil
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	from := c.state
	c.state = state
	cb := c.OnStateChange
	c.stateMu.Unlock()

	if cb != nil && from != state {
		cb(from, state)
	}
}

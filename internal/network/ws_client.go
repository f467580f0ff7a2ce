package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"autoclicker/internal/engine"
	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

const wsTimeout = 10 * time.Second

// WSClient talks to the daemon's optional HTTP/WebSocket API. The
// connection is opened lazily and reopened on the next Send after a
// failure.
type WSClient struct {
	hostAddr string
	token    string
	log      *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSClient creates a client for the API listening at hostAddr.
func NewWSClient(hostAddr, token string) *WSClient {
	return &WSClient{
		hostAddr: hostAddr,
		token:    token,
		log:      logging.New("WS Client"),
	}
}

func (c *WSClient) header() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// connect must be called with c.mu held.
func (c *WSClient) connect(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	u := url.URL{Scheme: "ws", Host: c.hostAddr, Path: "/ws"}
	c.log.Debugf("connecting to %s", u.String())

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), c.header())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("connect %s: unauthorized", u.String())
		}
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	c.conn = conn
	return conn, nil
}

func (c *WSClient) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *WSClient) Send(ctx context.Context, msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(wsTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, protocol.Encode(msg)); err != nil {
		c.drop()
		return fmt.Errorf("write request: %w", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		c.drop()
		return fmt.Errorf("read reply: %w", err)
	}
	return checkReply(data)
}

// Ready opens the connection if it is not already open.
func (c *WSClient) Ready(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.connect(ctx)
	return err
}

// Status fetches the engine snapshot from GET /api/status.
func (c *WSClient) Status(ctx context.Context) (engine.Status, error) {
	var st engine.Status

	u := url.URL{Scheme: "http", Host: c.hostAddr, Path: "/api/status"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return st, err
	}
	req.Header = c.header()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("status request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// Close closes the connection, sending a close frame first.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.drop()
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

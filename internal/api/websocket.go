package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// WSManager tracks WebSocket connections so they can be closed on shutdown
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	started    sync.Once
	stopped    sync.Once
}

// WebSocketClient is one connected controller. Every text frame it sends
// is a request message and is answered with exactly one response frame.
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			m.clientsMu.Unlock()
			m.server.log.Debugf("WS client registered from %s, total %d", client.ip, m.count())

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			m.clientsMu.Unlock()
			m.server.log.Debugf("WS client unregistered from %s, total %d", client.ip, m.count())

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				client.conn.Close()
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) run() {
	m.started.Do(func() { go m.start() })
}

func (m *WSManager) stop() {
	m.stopped.Do(func() { close(m.shutdown) })
}

func (m *WSManager) count() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.server.log.Warnf("failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 16),
		ip:      r.RemoteAddr,
	}

	select {
	case m.register <- client:
	case <-m.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump answers requests until the connection fails.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		typ, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.manager.server.log.Warnf("WS read error: %v", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		reply := c.manager.server.handler.Handle(context.Background(), message)
		select {
		case c.send <- reply:
		case <-c.manager.shutdown:
			return
		}
	}
}

// writePump writes replies and keepalive pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.manager.shutdown:
			return
		}
	}
}

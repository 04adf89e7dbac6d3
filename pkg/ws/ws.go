// Package ws provides WebSocket support using gorilla/websocket.
//
// Two shapes are supported. Serve runs a request/reply session on one
// connection, used by the live order form:
//
//	router.Get("/ws/orders/form", "ws.orders.form", func(w http.ResponseWriter, r *http.Request) {
//	    ws.Serve(w, r, session.Handle)
//	})
//
// A Hub fans messages out to every connected client:
//
//	feed := ws.NewHub()
//	go feed.Run(ctx)
//	feed.Publish(map[string]any{"event": "order.created", "id": 7})
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/orderdesk/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is a single connected WebSocket peer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return c
}

// read blocks for the next text frame. ok is false once the peer is gone.
func (c *Client) read() ([]byte, bool) {
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err,
			websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
			logger.Warn("ws: unexpected close", "error", err)
		}
		return nil, false
	}
	return msg, true
}

// readPump feeds hub clients' frames to the hub until the peer leaves.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		msg, ok := c.read()
		if !ok {
			return
		}
		select {
		case c.hub.inbound <- Message{Client: c, Data: msg}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump drains send to the connection and keeps it alive with pings.
// It exits, sending a close frame, when send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send queues data for this client. It reports false when the buffer is
// full and the message was dropped.
func (c *Client) Send(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// ─── Session ──────────────────────────────────────────────────────────────────

// HandlerFunc answers one inbound frame. A nil reply sends nothing; an
// error ends the session.
type HandlerFunc func(ctx context.Context, msg []byte) ([]byte, error)

// Serve upgrades the request and answers each inbound frame with handle's
// reply on the same connection, in order. It blocks until the peer
// disconnects, handle fails or the request context ends.
func Serve(w http.ResponseWriter, r *http.Request, handle HandlerFunc) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}
	ctx := r.Context()
	log := logger.WithCtx(ctx)

	c := newClient(nil, conn)
	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()
	defer func() {
		close(c.send)
		<-done
	}()

	log.Debug("ws: session opened", "path", r.URL.Path)
	for ctx.Err() == nil {
		msg, ok := c.read()
		if !ok {
			return
		}
		reply, err := handle(ctx, msg)
		if err != nil {
			log.Warn("ws: session closed by handler", "error", err)
			return
		}
		if reply != nil {
			c.send <- reply
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

// Message is an inbound frame received by a hub.
type Message struct {
	Client *Client
	Data   []byte
}

// Hub tracks connected clients and broadcasts to all of them.
type Hub struct {
	clients    map[*Client]bool
	count      atomic.Int64
	broadcast  chan []byte
	inbound    chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// OnMessage is called for every inbound frame (optional).
	OnMessage func(hub *Hub, msg Message)
}

// NewHub creates a Hub. Call Run in a goroutine at startup.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		inbound:    make(chan Message, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop. It returns when ctx is done, disconnecting
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Add(1)
			logger.Debug("ws: client connected", "total", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				logger.Debug("ws: client disconnected", "total", len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.Send(msg) {
					// slow consumer
					h.drop(client)
				}
			}

		case msg := <-h.inbound:
			if h.OnMessage != nil {
				h.OnMessage(h, msg)
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	h.count.Add(-1)
	close(c.send)
}

// Broadcast queues raw data for every client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		logger.Warn("ws: broadcast buffer full, message dropped")
	}
}

// Publish JSON-encodes v and broadcasts it.
func (h *Hub) Publish(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// Upgrade upgrades the request and registers the connection with hub.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}
	client := newClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

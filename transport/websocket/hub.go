package websocket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
	"github.com/battlecode/battlecode-hackathon-sub000/transport"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1 << 20

	// Commands buffered per client before it is considered stalled.
	sendBuffer = 256
)

// ErrClientClosed is returned when sending to a connection that is gone.
var ErrClientClosed = errors.New("websocket client closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Viewers are served from arbitrary origins.
		return true
	},
}

// Client is one websocket connection speaking the game protocol.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Send queues cmd for delivery. A client whose buffer is full is dropped.
func (c *Client) Send(cmd any) error {
	data, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	return c.queue(data)
}

func (c *Client) queue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		log.Printf("[WS] client=%s send buffer full, dropping", c.id)
		c.shutdown()
		if c.conn != nil {
			c.conn.Close()
		}
		return ErrClientClosed
	}
}

// shutdown closes the send channel once. Callers hold c.mu.
func (c *Client) shutdown() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub maintains the set of active clients and broadcasts announcements.
type Hub struct {
	router *transport.Router

	// Registered clients
	clients map[*Client]bool

	// Outbound announcements for every client
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	done chan struct{}
}

// NewHub creates a hub whose clients are dispatched to router.
func NewHub(router *transport.Router) *Hub {
	return &Hub{
		router:     router,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			h.unregisterClient(client)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case data := <-h.broadcast:
			for client := range h.clients {
				if err := client.queue(data); err != nil {
					h.unregisterClient(client)
				}
			}
		}
	}
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(r.Context())
}

// Broadcast sends cmd to every connected client.
func (h *Hub) Broadcast(cmd any) error {
	data, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return ErrClientClosed
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	log.Printf("[WS] client=%s registered (total clients: %d)", client.id, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.mu.Lock()
	client.shutdown()
	client.mu.Unlock()
	log.Printf("[WS] client=%s unregistered (remaining clients: %d)", client.id, len(h.clients))
}

// readPump feeds every inbound message to the router.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.router.Disconnected(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] client=%s error: %v", c.id, err)
			}
			return
		}
		c.hub.router.Handle(context.WithoutCancel(ctx), c, message)
	}
}

// writePump writes one command per websocket frame.
func (c *Client) writePump() {
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
		}
	}
}

// Package tcp serves the game protocol over a byte stream socket. Every
// command, in both directions, is one JSON document terminated by '\n'.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
	"github.com/battlecode/battlecode-hackathon-sub000/transport"
)

const (
	// Time allowed to write a command to the peer.
	writeWait = 10 * time.Second

	// Maximum size of one inbound line.
	maxLineSize = 1 << 20

	// Outbound commands queued per client before it is dropped.
	sendBuffer = 256
)

// ErrClientClosed is returned when sending to a closed or dropped client.
var ErrClientClosed = errors.New("tcp: client closed")

// Server accepts TCP connections and feeds their lines to a router.
type Server struct {
	router *transport.Router

	mu    sync.Mutex
	ln    net.Listener
	conns map[*Client]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a server dispatching to router.
func NewServer(router *transport.Router) *Server {
	return &Server{
		router: router,
		conns:  make(map[*Client]struct{}),
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes every
// open connection and waits for their handlers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Printf("[TCP] listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.closeAll()
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		client := newClient(conn, sendBuffer)
		s.mu.Lock()
		s.conns[client] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			client.writeLoop()
		}()
		go s.handle(ctx, client)
	}
}

// Addr returns the listening address once Serve has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) handle(ctx context.Context, c *Client) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.Close()
		s.router.Disconnected(c)
		log.Printf("[TCP] client=%s disconnected", c.id)
	}()

	log.Printf("[TCP] client=%s connected from %s", c.id, c.conn.RemoteAddr())

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.router.Handle(ctx, c, line)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, os.ErrDeadlineExceeded) {
		log.Printf("[TCP] client=%s read error: %v", c.id, err)
		if errors.Is(err, bufio.ErrTooLong) {
			c.Send(protocol.NewError(protocol.CodeMalformed, "line exceeds %d bytes", maxLineSize))
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
}

// Client is one TCP connection. Commands are queued and written by a
// dedicated goroutine so a slow peer never blocks the game that sends to it.
type Client struct {
	id   string
	conn net.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn net.Conn, buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// ID returns the connection id
func (c *Client) ID() string { return c.id }

// Send queues cmd as one line. A client whose queue is full is dropped.
func (c *Client) Send(cmd any) error {
	data, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		log.Printf("[TCP] client=%s send buffer full, dropping", c.id)
		c.shutdown()
		c.conn.Close()
		return ErrClientClosed
	}
}

// Close stops accepting commands. Queued commands are flushed before the
// connection is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.shutdown()
	// Unblock the reader; the write loop closes the socket once drained.
	return c.conn.SetReadDeadline(time.Now())
}

// shutdown must be called with mu held.
func (c *Client) shutdown() {
	c.closed = true
	close(c.send)
}

func (c *Client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if _, err := c.conn.Write(data); err != nil {
			log.Printf("[TCP] client=%s write error: %v", c.id, err)
			c.Close()
			return
		}
	}
}

package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/game/session"
	"github.com/battlecode/battlecode-hackathon-sub000/transport"
)

type singleMap struct{ world *engine.MapFile }

func (s singleMap) LoadMap(string) (*engine.MapFile, error) { return s.world, nil }
func (s singleMap) ListMaps() ([]*service.MapInfo, error)   { return nil, nil }
func (s singleMap) GetDefault() *engine.MapFile             { return s.world }
func (s singleMap) SaveMap(string, *engine.MapFile) error   { return nil }

func startServer(t *testing.T) (string, context.CancelFunc, chan error) {
	t.Helper()
	world := engine.NewMap("tcp", 6, 6, 3)
	world.Entities = []engine.EntityData{
		{ID: 0, Type: engine.Thrower, Location: engine.Location{X: 0, Y: 0}, HP: 10, TeamID: 1},
		{ID: 1, Type: engine.Thrower, Location: engine.Location{X: 5, Y: 5}, HP: 10, TeamID: 2},
	}
	sessions := session.NewManager()
	t.Cleanup(sessions.Close)
	svc := service.NewGameService(sessions, singleMap{world}, service.MatchOptions{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	server := NewServer(transport.NewRouter(svc))
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()
	t.Cleanup(cancel)
	return ln.Addr().String(), cancel, done
}

type peer struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *peer {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &peer{conn: conn, reader: bufio.NewReader(conn)}
}

func (p *peer) send(t *testing.T, line string) {
	t.Helper()
	if _, err := p.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func (p *peer) read(t *testing.T) map[string]any {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := p.reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(line, &msg); err != nil {
		t.Fatalf("Invalid JSON line %q: %v", line, err)
	}
	return msg
}

func (p *peer) expect(t *testing.T, command string) map[string]any {
	t.Helper()
	msg := p.read(t)
	if msg["command"] != command {
		t.Fatalf("Expected %s, got %v", command, msg)
	}
	return msg
}

func TestServer_PlaysAGame(t *testing.T) {
	addr, _, _ := startServer(t)
	red, blue := dial(t, addr), dial(t, addr)

	red.send(t, `{"command":"login","name":"red"}`)
	if msg := red.expect(t, "login_confirm"); msg["teamID"] != float64(1) {
		t.Errorf("Expected team 1, got %v", msg["teamID"])
	}
	blue.send(t, `{"command":"login","name":"blue"}`)
	blue.expect(t, "login_confirm")

	for _, p := range []*peer{red, blue} {
		p.expect(t, "start")
		if msg := p.expect(t, "next_turn"); msg["turn"] != float64(0) {
			t.Errorf("Expected turn 0, got %v", msg["turn"])
		}
	}

	red.send(t, "")
	red.send(t, `{"command":"make_turn","turn":1,"actions":[{"action":"move","id":0,"loc":{"x":1,"y":0}}]}`)
	for _, p := range []*peer{red, blue} {
		msg := p.expect(t, "next_turn")
		if msg["turn"] != float64(1) {
			t.Errorf("Expected turn 1, got %v", msg["turn"])
		}
		if ok := msg["successful"].([]any); len(ok) != 1 {
			t.Errorf("Expected one successful action, got %v", ok)
		}
	}

	blue.send(t, `not json`)
	if msg := blue.expect(t, "error"); msg["code"] != "E_MALFORMED" {
		t.Errorf("Expected E_MALFORMED, got %v", msg["code"])
	}

	blue.conn.Close()
	if msg := red.expect(t, "game_status"); msg["status"] != "cancelled" {
		t.Errorf("Expected cancelled, got %v", msg["status"])
	}
}

func TestServer_Shutdown(t *testing.T) {
	addr, cancel, done := startServer(t)
	p := dial(t, addr)
	p.send(t, `{"command":"list_maps_request"}`)
	p.expect(t, "list_maps_response")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	p.conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := p.reader.ReadByte(); err == nil {
		t.Error("Expected connection closed by server")
	}
}

func TestClient_SlowPeerDropped(t *testing.T) {
	server, remote := net.Pipe()
	defer remote.Close()

	c := newClient(server, 1)
	done := make(chan struct{})
	go func() {
		c.writeLoop()
		close(done)
	}()

	// The peer never reads: one line blocks in the writer, one fills the
	// queue, and the next send drops the client.
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = c.Send(map[string]string{"command": "list_maps_request"})
	}
	if !errors.Is(err, ErrClientClosed) {
		t.Fatalf("Expected ErrClientClosed once the queue is full, got %v", err)
	}
	if err := c.Send(map[string]string{"command": "list_maps_request"}); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Expected ErrClientClosed after drop, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write loop did not stop after the client was dropped")
	}
}

func TestClient_CloseFlushesQueue(t *testing.T) {
	server, remote := net.Pipe()
	defer remote.Close()

	c := newClient(server, 4)
	for _, cmd := range []string{"start", "next_turn"} {
		if err := c.Send(map[string]string{"command": cmd}); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	c.Close()
	if err := c.Send(map[string]string{"command": "late"}); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Expected ErrClientClosed after Close, got %v", err)
	}
	go c.writeLoop()

	p := &peer{conn: remote, reader: bufio.NewReader(remote)}
	p.expect(t, "start")
	p.expect(t, "next_turn")

	remote.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := p.reader.ReadByte(); err == nil {
		t.Error("Expected connection closed after the queue drained")
	}
}

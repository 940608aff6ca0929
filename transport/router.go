// Package transport routes decoded client commands to the game service. The
// tcp and websocket packages only frame bytes; both share one Router so the
// two encodings carry identical semantics.
package transport

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
)

// Router dispatches inbound documents and remembers which game each
// connection last logged into, so make_turn may omit the game id.
type Router struct {
	svc service.GameService

	mu    sync.Mutex
	games map[string]string
}

// NewRouter creates a router backed by svc.
func NewRouter(svc service.GameService) *Router {
	return &Router{
		svc:   svc,
		games: make(map[string]string),
	}
}

// Handle decodes one inbound document and executes it. Failures are sent back
// to client as error commands.
func (r *Router) Handle(ctx context.Context, client service.Client, data []byte) {
	cmd, err := protocol.Decode(data)
	if err != nil {
		r.fail(client, err)
		return
	}

	switch c := cmd.(type) {
	case *protocol.Login:
		confirm, err := r.svc.Login(ctx, client, c)
		if err != nil {
			r.fail(client, err)
			return
		}
		r.mu.Lock()
		r.games[client.ID()] = confirm.GameID
		r.mu.Unlock()

	case *protocol.MakeTurn:
		gameID := c.GameID
		if gameID == "" {
			gameID = r.gameOf(client)
		}
		if err := r.svc.SubmitTurn(ctx, client, gameID, c.Turn, c.Actions); err != nil {
			r.fail(client, err)
		}

	case *protocol.CreateGame:
		info, err := r.svc.CreateGame(ctx, service.CreateGameRequest{
			Map:       c.Map,
			Teams:     c.Teams,
			TimeoutMS: c.TimeoutMS,
			MaxTurns:  c.MaxTurns,
		})
		if err != nil {
			r.fail(client, err)
			return
		}
		r.send(client, &protocol.GameStatus{
			Command: protocol.CmdGameStatus,
			GameID:  info.ID,
			Status:  info.Status,
		})

	case *protocol.Spectate:
		if _, err := r.svc.Spectate(ctx, client, c.GameID); err != nil {
			r.fail(client, err)
		}

	case *protocol.KeyframeRequest:
		kf, err := r.svc.Keyframe(ctx, c.GameID)
		if err != nil {
			r.fail(client, err)
			return
		}
		r.send(client, kf)

	case *protocol.ListMapsRequest:
		maps, err := r.svc.ListMaps(ctx)
		if err != nil {
			r.fail(client, err)
			return
		}
		names := make([]string, 0, len(maps))
		for _, m := range maps {
			names = append(names, m.Name)
		}
		r.send(client, &protocol.ListMapsResponse{Command: protocol.CmdListMapsResponse, Maps: names})
	}
}

// Disconnected removes a closed connection from every game.
func (r *Router) Disconnected(client service.Client) {
	r.mu.Lock()
	delete(r.games, client.ID())
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.svc.Disconnect(ctx, client)
}

func (r *Router) gameOf(client service.Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[client.ID()]
}

func (r *Router) fail(client service.Client, err error) {
	perr := protocol.AsError(err, protocol.CodeInternal)
	if perr.Code == protocol.CodeInternal {
		log.Printf("[ROUTER] client=%s internal error: %v", client.ID(), err)
	}
	r.send(client, perr)
}

func (r *Router) send(client service.Client, cmd any) {
	if err := client.Send(cmd); err != nil {
		log.Printf("[ROUTER] client=%s send failed: %v", client.ID(), err)
	}
}

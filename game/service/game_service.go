package service

import (
	"context"
	"time"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
)

// GameService defines every operation the transports need
type GameService interface {
	// Game Management
	CreateGame(ctx context.Context, req CreateGameRequest) (*GameInfo, error)
	GetGame(ctx context.Context, gameID string) (*GameInfo, error)
	ListGames(ctx context.Context) ([]*GameInfo, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Players and spectators
	Login(ctx context.Context, client Client, req *protocol.Login) (*protocol.LoginConfirm, error)
	SubmitTurn(ctx context.Context, client Client, gameID string, turn int, actions []engine.Action) error
	Spectate(ctx context.Context, client Client, gameID string) (*GameInfo, error)
	Disconnect(ctx context.Context, client Client)

	// Snapshots
	Keyframe(ctx context.Context, gameID string) (*engine.Keyframe, error)
	Replay(ctx context.Context, gameID string) (*protocol.GameReplay, error)

	// Maps
	ListMaps(ctx context.Context) ([]*MapInfo, error)
	LoadMap(ctx context.Context, name string) (*engine.MapFile, error)
	SaveMap(ctx context.Context, name string, world *engine.MapFile) error
}

// Client is a connected peer that receives outbound commands. Send must not
// block for long; it is called from game workers.
type Client interface {
	ID() string
	Send(cmd any) error
}

// Match is one hosted game: a lobby until every team slot is filled, then a
// running game.
type Match interface {
	ID() string
	Info() *GameInfo
	// Join assigns client a team slot and sends it login_confirm.
	Join(client Client, name, key string) (*protocol.LoginConfirm, error)
	Submit(client Client, turn int, actions []engine.Action) error
	Spectate(client Client) error
	Keyframe() (*engine.Keyframe, error)
	Replay() (*protocol.GameReplay, error)
	Leave(client Client)
	Close()
}

// SessionManager defines game storage operations
type SessionManager interface {
	Create(world *engine.MapFile, teams []protocol.TeamSpec, options MatchOptions) (Match, error)
	Get(id string) (Match, error)
	// Pickup returns an open pickup lobby on world, creating one if needed.
	Pickup(world *engine.MapFile, options MatchOptions) (Match, error)
	List() []Match
	Delete(id string) error
}

// MapManager handles map loading
type MapManager interface {
	LoadMap(name string) (*engine.MapFile, error)
	ListMaps() ([]*MapInfo, error)
	GetDefault() *engine.MapFile
	SaveMap(name string, world *engine.MapFile) error
}

// MatchOptions tune a hosted game.
type MatchOptions struct {
	Timeout  time.Duration
	MaxTurns int
	Debug    bool
}

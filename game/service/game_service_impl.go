package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	maps     MapManager
	defaults MatchOptions
}

// NewGameService creates a new game service instance. defaults apply to
// games whose request leaves an option unset, and to pickup lobbies.
func NewGameService(sessions SessionManager, maps MapManager, defaults MatchOptions) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		maps:     maps,
		defaults: defaults,
	}
}

// CreateGame opens a lobby on the requested map
func (s *gameServiceImpl) CreateGame(ctx context.Context, req CreateGameRequest) (*GameInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	world, err := s.resolveMap(req.Map)
	if err != nil {
		return nil, err
	}

	options := s.defaults
	if req.TimeoutMS > 0 {
		options.Timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	if req.MaxTurns > 0 {
		options.MaxTurns = req.MaxTurns
	}
	options.Debug = options.Debug || req.Debug

	match, err := s.sessions.Create(world, req.Teams, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	info := match.Info()
	log.Printf("[GAME] created id=%s map=%s teams=%d", info.ID, info.Map, len(info.Teams))
	return info, nil
}

// GetGame retrieves game information
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*GameInfo, error) {
	match, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	return match.Info(), nil
}

// ListGames returns every hosted game, oldest first
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	matches := s.sessions.List()
	result := make([]*GameInfo, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.Info())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteGame stops and removes a game
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID string) error {
	return s.sessions.Delete(gameID)
}

// Login joins the named game, or the pickup lobby when no game is named.
func (s *gameServiceImpl) Login(ctx context.Context, client Client, req *protocol.Login) (*protocol.LoginConfirm, error) {
	if req.GameID != "" {
		match, err := s.sessions.Get(req.GameID)
		if err != nil {
			return nil, err
		}
		return match.Join(client, req.Name, req.Key)
	}

	// A pickup lobby may fill between lookup and join, so retry once on a
	// fresh lobby.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		match, err := s.sessions.Pickup(s.maps.GetDefault(), s.defaults)
		if err != nil {
			return nil, err
		}
		confirm, err := match.Join(client, req.Name, req.Key)
		if err == nil {
			return confirm, nil
		}
		if !errors.Is(err, ErrLobbyFull) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// SubmitTurn forwards a team's batch to its game
func (s *gameServiceImpl) SubmitTurn(ctx context.Context, client Client, gameID string, turn int, actions []engine.Action) error {
	if gameID == "" {
		return ErrNotPlayer
	}
	match, err := s.sessions.Get(gameID)
	if err != nil {
		return err
	}
	return match.Submit(client, turn, actions)
}

// Spectate subscribes client to a game. Without a game id the newest game
// is chosen.
func (s *gameServiceImpl) Spectate(ctx context.Context, client Client, gameID string) (*GameInfo, error) {
	var match Match
	if gameID != "" {
		m, err := s.sessions.Get(gameID)
		if err != nil {
			return nil, err
		}
		match = m
	} else {
		var newest *GameInfo
		for _, m := range s.sessions.List() {
			info := m.Info()
			if newest == nil || info.CreatedAt.After(newest.CreatedAt) {
				newest, match = info, m
			}
		}
		if match == nil {
			return nil, ErrGameNotFound
		}
	}

	if err := match.Spectate(client); err != nil {
		return nil, err
	}
	return match.Info(), nil
}

// Disconnect removes client from every game it takes part in
func (s *gameServiceImpl) Disconnect(ctx context.Context, client Client) {
	for _, m := range s.sessions.List() {
		m.Leave(client)
	}
}

// Keyframe returns a full snapshot of a running or finished game
func (s *gameServiceImpl) Keyframe(ctx context.Context, gameID string) (*engine.Keyframe, error) {
	match, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	return match.Keyframe()
}

// Replay returns the replay blob of a finished game
func (s *gameServiceImpl) Replay(ctx context.Context, gameID string) (*protocol.GameReplay, error) {
	match, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, err
	}
	return match.Replay()
}

// ListMaps returns information about every available map
func (s *gameServiceImpl) ListMaps(ctx context.Context) ([]*MapInfo, error) {
	return s.maps.ListMaps()
}

// LoadMap loads a map by name
func (s *gameServiceImpl) LoadMap(ctx context.Context, name string) (*engine.MapFile, error) {
	return s.resolveMap(name)
}

// SaveMap validates and stores a map
func (s *gameServiceImpl) SaveMap(ctx context.Context, name string, world *engine.MapFile) error {
	if name == "" {
		return protocol.NewError(protocol.CodeSchema, "map name is required")
	}
	return s.maps.SaveMap(name, world)
}

func (s *gameServiceImpl) resolveMap(name string) (*engine.MapFile, error) {
	if name == "" || name == "default" {
		if world := s.maps.GetDefault(); world != nil {
			return world, nil
		}
	}

	world, err := s.maps.LoadMap(name)
	if err != nil {
		if errors.Is(err, ErrMapNotFound) {
			available, listErr := s.maps.ListMaps()
			if listErr == nil && len(available) > 0 {
				names := make([]string, 0, len(available))
				for _, m := range available {
					names = append(names, m.Name)
				}
				return nil, protocol.NewError(protocol.CodeUnknownMap, "map '%s' not found. Available maps: %v", name, names)
			}
		}
		return nil, err
	}
	return world, nil
}

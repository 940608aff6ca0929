package session

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
)

// Manager handles the lifecycle of hosted games
type Manager struct {
	games map[string]*Game
	mu    sync.RWMutex
}

// NewManager creates a new game manager
func NewManager() *Manager {
	return &Manager{
		games: make(map[string]*Game),
	}
}

// Create opens a lobby on world. Without explicit teams the lobby has one
// open slot per team the map requires.
func (m *Manager) Create(world *engine.MapFile, teams []protocol.TeamSpec, options service.MatchOptions) (service.Match, error) {
	if err := checkSetup(world, teams); err != nil {
		return nil, err
	}

	id := m.generateGameID()
	g := newGame(id, world, teams, options, false)

	m.mu.Lock()
	m.games[strings.ToLower(id)] = g
	m.mu.Unlock()

	return g, nil
}

// checkSetup builds a throwaway engine so setup errors surface at creation
// instead of when the lobby fills.
func checkSetup(world *engine.MapFile, teams []protocol.TeamSpec) error {
	players := len(teams)
	if players == 0 {
		players = world.RequiredTeams()
	}
	if players > engine.MaxTeams {
		return protocol.NewError(protocol.CodeInvalidSetup, "at most %d teams, got %d", engine.MaxTeams, players)
	}

	keys := make(map[string]bool)
	for _, t := range teams {
		if t.Key == "" {
			continue
		}
		if keys[t.Key] {
			return protocol.NewError(protocol.CodeInvalidSetup, "duplicate team key")
		}
		keys[t.Key] = true
	}

	names := make([]string, players)
	for i := range names {
		names[i] = fmt.Sprintf("team%d", i+1)
	}
	if _, err := engine.New("setup-check", world, engine.TeamsFor(names...), engine.Options{}); err != nil {
		return protocol.NewError(protocol.CodeInvalidSetup, "%v", err)
	}
	return nil
}

// Get retrieves a game by ID (case-insensitive)
func (m *Manager) Get(id string) (service.Match, error) {
	m.mu.RLock()
	g, exists := m.games[strings.ToLower(id)]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("game '%s': %w", id, service.ErrGameNotFound)
	}
	return g, nil
}

// Pickup returns an open pickup lobby on world, creating one if none exists.
func (m *Manager) Pickup(world *engine.MapFile, options service.MatchOptions) (service.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.games {
		if g.world == world && g.open() {
			return g, nil
		}
	}

	if err := checkSetup(world, nil); err != nil {
		return nil, err
	}
	id := m.generateGameID()
	g := newGame(id, world, nil, options, true)
	m.games[strings.ToLower(id)] = g
	log.Printf("[GAME] pickup lobby id=%s map=%s", id, world.Name)
	return g, nil
}

// List returns all hosted games
func (m *Manager) List() []service.Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]service.Match, 0, len(m.games))
	for _, g := range m.games {
		result = append(result, g)
	}
	return result
}

// Delete stops and removes a game
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	g, exists := m.games[strings.ToLower(id)]
	delete(m.games, strings.ToLower(id))
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("game '%s': %w", id, service.ErrGameNotFound)
	}
	g.Close()
	return nil
}

// CleanupFinished removes games that ended more than maxAge ago
func (m *Manager) CleanupFinished(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var stale []*Game
	for id, g := range m.games {
		if g.finishedBefore(cutoff) {
			delete(m.games, id)
			stale = append(stale, g)
		}
	}
	m.mu.Unlock()

	for _, g := range stale {
		g.Close()
	}
	return len(stale)
}

// Count returns the number of hosted games
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// Close stops every game
func (m *Manager) Close() {
	m.mu.Lock()
	games := m.games
	m.games = make(map[string]*Game)
	m.mu.Unlock()

	for _, g := range games {
		g.Close()
	}
}

// generateGameID generates a short random game ID
func (m *Manager) generateGameID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

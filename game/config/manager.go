package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
)

// DefaultMapName is loaded as the default map when present.
const DefaultMapName = "default"

// Manager handles map file loading and caching
type Manager struct {
	mapDir      string
	defaultName string
	defaultMap  *engine.MapFile
	maps       map[string]*engine.MapFile
	mu         sync.RWMutex
}

// NewManager creates a new map manager
func NewManager(mapDir string) (*Manager, error) {
	if _, err := os.Stat(mapDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("map directory does not exist: %s", mapDir)
	}

	m := &Manager{
		mapDir: mapDir,
		maps:   make(map[string]*engine.MapFile),
	}

	if err := m.loadDefaultMap(DefaultMapName); err != nil {
		return nil, fmt.Errorf("failed to load default map: %w", err)
	}

	return m, nil
}

// LoadMap loads a map by name. Names may carry the .json extension.
func (m *Manager) LoadMap(name string) (*engine.MapFile, error) {
	name = mapID(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("map '%s': %w", name, service.ErrMapNotFound)
	}

	m.mu.RLock()
	if world, exists := m.maps[name]; exists {
		m.mu.RUnlock()
		return world, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if world, exists := m.maps[name]; exists {
		return world, nil
	}

	data, err := os.ReadFile(filepath.Join(m.mapDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("map '%s': %w", name, service.ErrMapNotFound)
		}
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}

	world, err := engine.ParseMapFile(data)
	if err != nil {
		return nil, fmt.Errorf("map '%s': %w", name, err)
	}
	if world.Name == "" {
		world.Name = name
	}

	m.maps[name] = world
	return world, nil
}

// ListMaps returns information about all valid maps, sorted by name
func (m *Manager) ListMaps() ([]*service.MapInfo, error) {
	entries, err := os.ReadDir(m.mapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read map directory: %w", err)
	}

	var maps []*service.MapInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		world, err := m.LoadMap(entry.Name())
		if err != nil {
			// Skip invalid maps
			continue
		}
		maps = append(maps, service.NewMapInfo(entry.Name(), world))
	}

	sort.Slice(maps, func(i, j int) bool { return maps[i].Name < maps[j].Name })
	return maps, nil
}

// GetDefault returns the default map
func (m *Manager) GetDefault() *engine.MapFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultMap
}

// SetDefault sets the default map by name
func (m *Manager) SetDefault(name string) error {
	world, err := m.LoadMap(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = mapID(name)
	m.defaultMap = world
	return nil
}

// RefreshCache drops every cached map and reloads the default one
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	preferred := m.defaultName
	m.maps = make(map[string]*engine.MapFile)
	m.mu.Unlock()

	return m.loadDefaultMap(preferred)
}

// Count returns the number of cached maps
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.maps)
}

// loadDefaultMap picks preferred, then the first valid map, then a built-in
// minimal map.
func (m *Manager) loadDefaultMap(preferred string) error {
	name := preferred
	world, err := m.LoadMap(preferred)
	if err != nil {
		if !errors.Is(err, service.ErrMapNotFound) && !errors.Is(err, engine.ErrInvalidMap) {
			return err
		}
		maps, listErr := m.ListMaps()
		if listErr != nil || len(maps) == 0 {
			name, world = DefaultMapName, createMinimalMap()
		} else if world, err = m.LoadMap(maps[0].Filename); err != nil {
			name, world = DefaultMapName, createMinimalMap()
		} else {
			name = maps[0].Name
		}
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultMap = world
	m.mu.Unlock()
	return nil
}

// SaveMap validates a map and writes it to disk
func (m *Manager) SaveMap(name string, world *engine.MapFile) error {
	name = mapID(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: bad map name %q", engine.ErrInvalidMap, name)
	}
	if err := engine.ValidateMap(world); err != nil {
		return err
	}
	if world.Name == "" {
		world.Name = name
	}
	if world.Version == "" {
		world.Version = engine.MapVersion
	}

	data, err := json.MarshalIndent(world, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal map: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.mapDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write map file: %w", err)
	}

	m.mu.Lock()
	m.maps[name] = world
	m.mu.Unlock()

	return nil
}

func mapID(name string) string {
	return strings.TrimSuffix(name, ".json")
}

// createMinimalMap creates a small two-team map
func createMinimalMap() *engine.MapFile {
	world := engine.NewMap(DefaultMapName, 16, 16, 8)
	world.TeamCount = 2
	for _, loc := range []engine.Location{{X: 7, Y: 0}, {X: 8, Y: 15}, {X: 0, Y: 8}, {X: 15, Y: 7}} {
		world.SetTile(loc, engine.Dirt)
	}
	world.Entities = []engine.EntityData{
		{ID: 0, Type: engine.Statue, Location: engine.Location{X: 2, Y: 2}, HP: engine.BuiltStatueHP, TeamID: 1},
		{ID: 1, Type: engine.Thrower, Location: engine.Location{X: 3, Y: 3}, HP: engine.SpawnedThrowerHP, TeamID: 1},
		{ID: 2, Type: engine.Statue, Location: engine.Location{X: 13, Y: 13}, HP: engine.BuiltStatueHP, TeamID: 2},
		{ID: 3, Type: engine.Thrower, Location: engine.Location{X: 12, Y: 12}, HP: engine.SpawnedThrowerHP, TeamID: 2},
		{ID: 4, Type: engine.Hedge, Location: engine.Location{X: 7, Y: 8}, HP: 20, TeamID: engine.NeutralTeamID},
		{ID: 5, Type: engine.Hedge, Location: engine.Location{X: 8, Y: 7}, HP: 20, TeamID: engine.NeutralTeamID},
	}
	return world
}

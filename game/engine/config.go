package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateMap checks a map file for correctness and playability. The returned
// error wraps ErrInvalidMap.
func ValidateMap(m *MapFile) error {
	if m == nil {
		return fmt.Errorf("%w: map is nil", ErrInvalidMap)
	}

	// Validate dimensions
	if m.Width < MinMapSize || m.Width > MaxMapSize || m.Height < MinMapSize || m.Height > MaxMapSize {
		return fmt.Errorf("%w: size must be between %d and %d, got %dx%d", ErrInvalidMap, MinMapSize, MaxMapSize, m.Width, m.Height)
	}
	if m.SectorSize < 1 || m.SectorSize > max(m.Width, m.Height) {
		return fmt.Errorf("%w: sectorSize must be between 1 and %d, got %d", ErrInvalidMap, max(m.Width, m.Height), m.SectorSize)
	}
	if m.TeamCount < 0 || m.TeamCount > MaxTeams {
		return fmt.Errorf("%w: teamCount must be between 0 and %d, got %d", ErrInvalidMap, MaxTeams, m.TeamCount)
	}

	// Validate tiles
	if len(m.Tiles) != m.Height {
		return fmt.Errorf("%w: tiles must have %d rows to match height, got %d", ErrInvalidMap, m.Height, len(m.Tiles))
	}
	for i, row := range m.Tiles {
		if len(row) != m.Width {
			return fmt.Errorf("%w: row %d must have %d tiles to match width, got %d", ErrInvalidMap, i, m.Width, len(row))
		}
		for j, tile := range row {
			if tile != Ground && tile != Dirt {
				return fmt.Errorf("%w: invalid tile %q at row %d, col %d", ErrInvalidMap, tile, i, j)
			}
		}
	}

	// Validate the initial roster
	ids := make(map[EntityID]bool, len(m.Entities))
	occupied := make(map[Location]EntityID, len(m.Entities))
	for _, e := range m.Entities {
		if e.ID < 0 {
			return fmt.Errorf("%w: negative entity id %d", ErrInvalidMap, e.ID)
		}
		if ids[e.ID] {
			return fmt.Errorf("%w: duplicate entity id %d", ErrInvalidMap, e.ID)
		}
		ids[e.ID] = true
		if !e.Type.Valid() {
			return fmt.Errorf("%w: entity %d has invalid type %q", ErrInvalidMap, e.ID, e.Type)
		}
		if !m.InBounds(e.Location) {
			return fmt.Errorf("%w: entity %d at (%d, %d) is out of bounds", ErrInvalidMap, e.ID, e.Location.X, e.Location.Y)
		}
		if other, ok := occupied[e.Location]; ok {
			return fmt.Errorf("%w: entities %d and %d share location (%d, %d)", ErrInvalidMap, other, e.ID, e.Location.X, e.Location.Y)
		}
		occupied[e.Location] = e.ID
		if e.HP <= 0 {
			return fmt.Errorf("%w: entity %d must have positive hp, got %d", ErrInvalidMap, e.ID, e.HP)
		}
		if e.TeamID < 0 || e.TeamID > MaxTeams {
			return fmt.Errorf("%w: entity %d has invalid team %d", ErrInvalidMap, e.ID, e.TeamID)
		}
		if e.CooldownEnd != nil || e.HeldBy != nil || e.Holding != nil || e.HoldingEnd != nil {
			return fmt.Errorf("%w: entity %d must not carry cooldown or holding state", ErrInvalidMap, e.ID)
		}
	}

	return nil
}

// ValidateTeams checks that teams start with the neutral team followed by
// teams 1..N with consecutive ids.
func ValidateTeams(teams []TeamData) error {
	if len(teams) < 2 {
		return fmt.Errorf("%w: need the neutral team and at least one player team, got %d teams", ErrInvalidTeams, len(teams))
	}
	if len(teams)-1 > MaxTeams {
		return fmt.Errorf("%w: at most %d player teams, got %d", ErrInvalidTeams, MaxTeams, len(teams)-1)
	}
	for i, team := range teams {
		if team.ID != TeamID(i) {
			return fmt.Errorf("%w: team at position %d has id %d", ErrInvalidTeams, i, team.ID)
		}
	}
	return nil
}

// TeamsFor returns a neutral-first team list with the given player names.
func TeamsFor(names ...string) []TeamData {
	teams := []TeamData{NeutralTeam}
	for i, name := range names {
		teams = append(teams, TeamData{ID: TeamID(i + 1), Name: name})
	}
	return teams
}

// ParseMapFile decodes and validates a JSON map.
func ParseMapFile(data []byte) (*MapFile, error) {
	var m MapFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	if err := ValidateMap(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadMapFile loads a map from a JSON file. Names without a directory are
// resolved against MAP_DIR when it is set.
func LoadMapFile(filename string) (*MapFile, error) {
	path := filename
	if mapDir := os.Getenv("MAP_DIR"); mapDir != "" && !strings.ContainsRune(filename, os.PathSeparator) {
		path = filepath.Join(mapDir, filename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := ParseMapFile(data)
	if err != nil {
		return nil, fmt.Errorf("map '%s': %w", filename, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(filename), ".json")
	}
	return m, nil
}

// NewMap returns an all-ground map without entities.
func NewMap(name string, width, height, sectorSize int) *MapFile {
	tiles := make([][]Tile, height)
	for i := range tiles {
		tiles[i] = make([]Tile, width)
		for j := range tiles[i] {
			tiles[i][j] = Ground
		}
	}
	return &MapFile{
		Version:    MapVersion,
		Name:       name,
		Width:      width,
		Height:     height,
		SectorSize: sectorSize,
		Tiles:      tiles,
		Entities:   []EntityData{},
	}
}

// SetTile sets the tile at world coordinate loc. Callers must check bounds.
func (m *MapFile) SetTile(loc Location, t Tile) {
	m.Tiles[m.Height-1-loc.Y][loc.X] = t
}

// RequiredTeams returns the number of player teams the map is made for.
func (m *MapFile) RequiredTeams() int {
	if m.TeamCount > 0 {
		return m.TeamCount
	}
	return DefaultTeams
}

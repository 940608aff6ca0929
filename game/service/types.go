package service

import (
	"strings"
	"time"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
)

// GameInfo provides information about a hosted game
type GameInfo struct {
	ID         string         `json:"id"`
	Map        string         `json:"map"`
	Status     string         `json:"status"`
	Turn       int            `json:"turn"`
	NextTeam   engine.TeamID  `json:"next_team"`
	Teams      []TeamInfo     `json:"teams"`
	Winner     *engine.TeamID `json:"winner,omitempty"`
	Spectators int            `json:"spectators"`
	TimeoutMS  int            `json:"timeout_ms"`
	Pickup     bool           `json:"pickup,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TeamInfo describes one team slot of a game
type TeamInfo struct {
	ID        engine.TeamID `json:"teamID"`
	Name      string        `json:"name"`
	Keyed     bool          `json:"keyed,omitempty"`
	Connected bool          `json:"connected"`
}

// CreateGameRequest opens a lobby
type CreateGameRequest struct {
	Map       string              `json:"map"`
	Teams     []protocol.TeamSpec `json:"teams,omitempty"`
	TimeoutMS int                 `json:"timeoutMS,omitempty"`
	MaxTurns  int                 `json:"maxTurns,omitempty"`
	Debug     bool                `json:"debug,omitempty"`
}

// MapInfo provides information about a map file
type MapInfo struct {
	Filename   string `json:"filename"`
	Name       string `json:"name"` // identifier used to create games
	Title      string `json:"title,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SectorSize int    `json:"sector_size"`
	TeamCount  int    `json:"team_count"`
	Entities   int    `json:"entities"`
}

// NewMapInfo summarises a map.
func NewMapInfo(filename string, world *engine.MapFile) *MapInfo {
	return &MapInfo{
		Filename:   filename,
		Name:       strings.TrimSuffix(filename, ".json"),
		Title:      world.Name,
		Width:      world.Width,
		Height:     world.Height,
		SectorSize: world.SectorSize,
		TeamCount:  world.RequiredTeams(),
		Entities:   len(world.Entities),
	}
}

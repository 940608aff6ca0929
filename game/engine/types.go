package engine

import "github.com/battlecode/battlecode-hackathon-sub000/game/grid"

// EntityID uniquely identifies an entity for the lifetime of a game. Ids are
// never reused.
type EntityID int

// TeamID identifies a team. Team 0 is the neutral team.
type TeamID int

// Location is a world coordinate with a bottom-left origin.
type Location = grid.Location

// EntityType is the variant of an entity
type EntityType string

const (
	Statue  EntityType = "statue"
	Thrower EntityType = "thrower"
	Hedge   EntityType = "hedge"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case Statue, Thrower, Hedge:
		return true
	}
	return false
}

// Tile is the terrain of a single cell
type Tile string

const (
	Ground Tile = "G"
	Dirt   Tile = "D"
)

const (
	// NeutralTeamID is reserved for the neutral team, which never acts.
	NeutralTeamID TeamID = 0

	// MapVersion is written into generated map files.
	MapVersion = "battlecode 2017 hackathon map"

	// Validation constants
	MinMapSize   = 1
	MaxMapSize   = 200
	MaxTeams     = 8
	MaxBatchSize = 1000
	DefaultTeams = 2
)

// Rule constants. These are fixed so that recorded matches replay identically.
const (
	MoveCooldown         = 2
	PickupCooldown       = 1
	ThrowCooldown        = 5
	BuildCooldown        = 10
	DisintegrateCooldown = 0

	HoldDuration = 10
	SpawnPeriod  = 10

	SpawnedThrowerHP = 10
	BuiltStatueHP    = 10

	// ThrowRange is the number of cells a thrown unit may travel past the
	// first cell beyond the thrower.
	ThrowRange = 7

	ThrowerHitDamage = 4
	StatueHitDamage  = 2
	HedgeHitDamage   = 4
	RecoilDamage     = 2
	DirtDamage       = 1
	FatigueDamage    = 1

	// SpiralSteps bounds the clockwise nearest-free-cell search.
	SpiralSteps = 8

	// MaxAdjacentDistance is the squared distance covering all 8 neighbours.
	MaxAdjacentDistance = 2

	DefaultMaxTurns = 1000
)

// NeutralTeam is the permanent neutral team entry.
var NeutralTeam = TeamData{ID: NeutralTeamID, Name: "neutral"}

// TeamData describes a team in a game.
type TeamData struct {
	ID   TeamID `json:"teamID"`
	Name string `json:"name"`
}

// EntityData is a full snapshot of an entity as sent over the wire.
type EntityData struct {
	ID          EntityID   `json:"id"`
	Type        EntityType `json:"type"`
	Location    Location   `json:"location"`
	HP          int        `json:"hp"`
	TeamID      TeamID     `json:"teamID"`
	CooldownEnd *int       `json:"cooldownEnd,omitempty"`
	HeldBy      *EntityID  `json:"heldBy,omitempty"`
	Holding     *EntityID  `json:"holding,omitempty"`
	HoldingEnd  *int       `json:"holdingEnd,omitempty"`
}

// SectorData is a snapshot of a sector's control state.
type SectorData struct {
	TopLeft           Location `json:"topLeft"`
	ControllingTeamID TeamID   `json:"controllingTeamID"`
}

// MapFile is the on-disk map format. Tiles are stored top-down:
// Tiles[Height-1-y][x] is the tile at world coordinate (x, y).
type MapFile struct {
	Version    string       `json:"version,omitempty"`
	Name       string       `json:"name,omitempty"`
	TeamCount  int          `json:"teamCount,omitempty"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	SectorSize int          `json:"sectorSize"`
	Tiles      [][]Tile     `json:"tiles"`
	Entities   []EntityData `json:"entities"`
}

// TileAt returns the tile at world coordinate loc. Callers must check bounds.
func (m *MapFile) TileAt(loc Location) Tile {
	return m.Tiles[m.Height-1-loc.Y][loc.X]
}

// InBounds reports whether loc lies on the map.
func (m *MapFile) InBounds(loc Location) bool {
	return loc.X >= 0 && loc.Y >= 0 && loc.X < m.Width && loc.Y < m.Height
}

// ActionKind names an action type
type ActionKind string

const (
	ActionMove         ActionKind = "move"
	ActionBuild        ActionKind = "build"
	ActionPickup       ActionKind = "pickup"
	ActionThrow        ActionKind = "throw"
	ActionDisintegrate ActionKind = "disintegrate"
)

// Cooldown returns the number of turns an entity waits after a successful
// action of this kind.
func (k ActionKind) Cooldown() int {
	switch k {
	case ActionMove:
		return MoveCooldown
	case ActionPickup:
		return PickupCooldown
	case ActionThrow:
		return ThrowCooldown
	case ActionBuild:
		return BuildCooldown
	case ActionDisintegrate:
		return DisintegrateCooldown
	}
	return 0
}

// Action is one entry of a team's batch. Which optional fields are used
// depends on Kind: move/build use Loc, pickup uses PickupID, throw uses DX/DY.
type Action struct {
	Kind     ActionKind `json:"action"`
	ID       EntityID   `json:"id"`
	Loc      *Location  `json:"loc,omitempty"`
	PickupID *EntityID  `json:"pickupid,omitempty"`
	DX       *int       `json:"dx,omitempty"`
	DY       *int       `json:"dy,omitempty"`
}

// NextTurn is the per-turn diff broadcast after every accepted batch.
type NextTurn struct {
	Command        string       `json:"command"`
	GameID         string       `json:"gameID"`
	Turn           int          `json:"turn"`
	Changed        []EntityData `json:"changed"`
	Dead           []EntityID   `json:"dead"`
	ChangedSectors []SectorData `json:"changed_sectors"`
	Successful     []Action     `json:"successful"`
	Failed         []Action     `json:"failed"`
	Reasons        []string     `json:"reasons"`
	NextTeam       TeamID       `json:"next_team"`
	Winner         *TeamID      `json:"winner,omitempty"`
}

// Keyframe is a full state snapshot for bootstrapping spectators.
type Keyframe struct {
	Command  string       `json:"command"`
	GameID   string       `json:"gameID"`
	Turn     int          `json:"turn"`
	Sectors  []SectorData `json:"sectors"`
	Entities []EntityData `json:"entities"`
	NextTeam TeamID       `json:"next_team"`
}

func intPtr(v int) *int { return &v }

func idPtr(v EntityID) *EntityID { return &v }

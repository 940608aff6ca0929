package engine

import (
	"fmt"

	"github.com/battlecode/battlecode-hackathon-sub000/game/grid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game identity and setup
	ID() string
	Map() *MapFile
	Teams() []TeamData
	Options() Options

	// Turn state
	Turn() int
	NextTeam() TeamID
	Started() bool
	Finished() bool
	Winner() (TeamID, bool)

	// Turn processing
	FirstTurn() (*NextTurn, error)
	MakeTurn(team TeamID, turn int, actions []Action) (*NextTurn, error)

	// Snapshots
	Keyframe() *Keyframe
}

// Options tune a single game.
type Options struct {
	// Debug runs a full invariant pass after every turn.
	Debug bool `json:"debug,omitempty"`
	// MaxTurns is the threshold of the default win policy.
	MaxTurns int `json:"maxTurns,omitempty"`
	// WinPolicy decides the winner. Defaults to ThresholdPolicy.
	WinPolicy WinPolicy `json:"-"`
}

// Game implements the Engine interface. A Game is not safe for concurrent
// use; callers serialise every call.
type Game struct {
	id      string
	world   *MapFile
	teams   []TeamData
	options Options

	store     *Store
	occupancy *grid.Index[EntityID]
	sectors   *Tracker

	started  bool
	turn     int
	nextTeam TeamID
	dead     []EntityID
	winner   TeamID
	finished bool
}

// New creates a game in the setup state with the initial roster placed.
func New(id string, world *MapFile, teams []TeamData, options Options) (*Game, error) {
	if err := ValidateMap(world); err != nil {
		return nil, err
	}
	if err := ValidateTeams(teams); err != nil {
		return nil, err
	}
	if options.MaxTurns <= 0 {
		options.MaxTurns = DefaultMaxTurns
	}
	if options.WinPolicy == nil {
		options.WinPolicy = ThresholdPolicy{Turns: options.MaxTurns, Award: 1}
	}

	occupancy, err := grid.New[EntityID](world.Width, world.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}
	sectors, err := NewTracker(world.Width, world.Height, world.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMap, err)
	}

	g := &Game{
		id:        id,
		world:     world,
		teams:     append([]TeamData(nil), teams...),
		options:   options,
		store:     NewStore(),
		occupancy: occupancy,
		sectors:   sectors,
		turn:      -1,
		nextTeam:  NeutralTeamID,
	}

	for _, data := range world.Entities {
		if int(data.TeamID) >= len(teams) {
			return nil, fmt.Errorf("%w: entity %d belongs to unknown team %d", ErrInvalidTeams, data.ID, data.TeamID)
		}
		g.place(g.store.Insert(data))
	}

	return g, nil
}

// place claims occupancy and sector membership for a fresh entity.
func (g *Game) place(e *Entity) {
	if has, err := g.occupancy.Has(e.Location()); err != nil || has {
		violation("can't place entity %d at %v", e.ID(), e.Location())
	}
	g.occupancy.Set(e.Location(), e.ID())
	if e.Type() == Statue {
		g.sectors.AddStatue(e)
	}
}

// ID returns the game id
func (g *Game) ID() string { return g.id }

// Map returns the map the game was created with. It must not be modified.
func (g *Game) Map() *MapFile { return g.world }

// Teams returns the team roster, neutral first.
func (g *Game) Teams() []TeamData { return append([]TeamData(nil), g.teams...) }

// Options returns the effective game options.
func (g *Game) Options() Options { return g.options }

// Turn returns the last produced turn, or -1 before the first turn.
func (g *Game) Turn() int { return g.turn }

// NextTeam returns the team expected to submit the next batch.
func (g *Game) NextTeam() TeamID { return g.nextTeam }

// Started reports whether the first turn was produced.
func (g *Game) Started() bool { return g.started }

// Finished reports whether a winner has been decided.
func (g *Game) Finished() bool { return g.finished }

// Winner returns the winning team once the game is finished.
func (g *Game) Winner() (TeamID, bool) { return g.winner, g.finished }

// Entity returns a live entity by id.
func (g *Game) Entity(id EntityID) (*Entity, bool) { return g.store.Get(id) }

// OccupantAt returns the id of the non-held entity at loc.
func (g *Game) OccupantAt(loc Location) (EntityID, bool) {
	id, ok, err := g.occupancy.Get(loc)
	if err != nil {
		return 0, false
	}
	return id, ok
}

// SectorAt returns the sector covering loc.
func (g *Game) SectorAt(loc Location) *Sector { return g.sectors.SectorAt(loc) }

// FirstTurn produces the turn-0 diff listing every initial entity and every
// sector with a non-neutral controller.
func (g *Game) FirstTurn() (*NextTurn, error) {
	if g.started {
		return nil, ErrAlreadyStarted
	}
	g.started = true
	g.turn = 0
	g.nextTeam = 1
	return g.diff(nil, nil, nil), nil
}

// MakeTurn validates and resolves one team's batch. Client errors leave the
// game untouched.
func (g *Game) MakeTurn(team TeamID, turn int, actions []Action) (*NextTurn, error) {
	switch {
	case !g.started:
		return nil, clientErrorf(CodeNotStarted, "game %s hasn't started yet", g.id)
	case g.finished:
		return nil, clientErrorf(CodeGameOver, "game %s is over", g.id)
	case turn != g.turn+1:
		return nil, clientErrorf(CodeWrongTurn, "wrong turn: %d, should be: %d", turn, g.turn+1)
	case team != g.nextTeam:
		return nil, clientErrorf(CodeWrongTeam, "wrong team for turn: %d, should be: %d", team, g.nextTeam)
	case len(actions) > MaxBatchSize:
		return nil, clientErrorf(CodeBatchTooBig, "batch of %d actions exceeds %d", len(actions), MaxBatchSize)
	}

	g.turn = turn
	g.nextTeam = g.followingTeam(team)

	successful := make([]Action, 0, len(actions))
	failed := make([]Action, 0)
	reasons := make([]string, 0)
	for _, action := range actions {
		if rej := g.resolve(team, action); rej != nil {
			failed = append(failed, action)
			reasons = append(reasons, rej.Error())
			continue
		}
		successful = append(successful, action)
	}

	if turn%SpawnPeriod == 0 {
		g.spawnThrowers()
	}
	g.applyFatigue()

	diff := g.diff(successful, failed, reasons)

	if winner, ok := g.options.WinPolicy.Winner(g); ok {
		g.winner = winner
		g.finished = true
		diff.Winner = &winner
	}

	if g.options.Debug {
		if err := g.ValidateInvariants(); err != nil {
			panic(err)
		}
	}

	return diff, nil
}

// followingTeam returns the team after team in round-robin order, skipping
// the neutral team.
func (g *Game) followingTeam(team TeamID) TeamID {
	players := TeamID(len(g.teams) - 1)
	return team%players + 1
}

// spawnThrowers gives every controlled sector a new thrower next to its
// controller's oldest statue.
func (g *Game) spawnThrowers() {
	for _, sector := range g.sectors.Sectors() {
		team := sector.Controller()
		if team == NeutralTeamID {
			continue
		}
		oldest, ok := sector.OldestStatue(team)
		if !ok {
			continue
		}
		statue := g.store.MustGet(oldest)
		loc, ok := g.nearestFree(statue.Location())
		if !ok {
			continue
		}
		g.place(g.store.Spawn(Thrower, loc, team, SpawnedThrowerHP))
	}
}

// applyFatigue damages every entity holding past its deadline.
func (g *Game) applyFatigue() {
	for _, id := range g.store.IDs() {
		e, ok := g.store.Get(id)
		if !ok {
			continue
		}
		if end, holding := e.HoldingEnd(); holding && end < g.turn {
			g.dealDamage(e, FatigueDamage)
		}
	}
}

func (g *Game) diff(successful, failed []Action, reasons []string) *NextTurn {
	if successful == nil {
		successful = []Action{}
	}
	if failed == nil {
		failed = []Action{}
	}
	if reasons == nil {
		reasons = []string{}
	}
	dead := g.dead
	if dead == nil {
		dead = []EntityID{}
	}
	g.dead = nil

	return &NextTurn{
		Command:        "next_turn",
		GameID:         g.id,
		Turn:           g.turn,
		Changed:        g.store.ChangedSince(),
		Dead:           dead,
		ChangedSectors: g.sectors.DrainChanged(),
		Successful:     successful,
		Failed:         failed,
		Reasons:        reasons,
		NextTeam:       g.nextTeam,
	}
}

// Keyframe returns a full snapshot of the current state.
func (g *Game) Keyframe() *Keyframe {
	return &Keyframe{
		Command:  "keyframe",
		GameID:   g.id,
		Turn:     g.turn,
		Sectors:  g.sectors.Snapshot(),
		Entities: g.store.Snapshot(),
		NextTeam: g.nextTeam,
	}
}

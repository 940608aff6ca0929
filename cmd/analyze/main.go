// Command analyze prints quick, human-readable heuristics about map files:
// dimensions, sector layout and starting control, team rosters, and how far
// apart the opposing throwers start.
//
// Usage: analyze [map files...] (defaults to every map in maps/)
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

// TeamSummary describes one team's starting position.
type TeamSummary struct {
	ID       engine.TeamID
	Throwers int
	Statues  int
	// NearestEnemy is the smallest number of moves between one of the team's
	// throwers and an enemy thrower, or -1 when there is none.
	NearestEnemy int
}

// Analysis summarises one map.
type Analysis struct {
	Name       string
	Width      int
	Height     int
	SectorSize int
	Sectors    int
	DirtTiles  int
	Hedges     int
	Controlled map[engine.TeamID]int
	// Contested counts sectors holding statues of more than one team.
	Contested int
	Teams     []TeamSummary
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		files, _ = filepath.Glob(filepath.Join("maps", "*.json"))
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		world, err := engine.LoadMapFile(file)
		if err != nil {
			fmt.Printf("Error loading map: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, analyzeMap(world))
	}
}

func analyzeMap(world *engine.MapFile) *Analysis {
	a := &Analysis{
		Name:       world.Name,
		Width:      world.Width,
		Height:     world.Height,
		SectorSize: world.SectorSize,
		DirtTiles:  engine.CountTiles(world, engine.Dirt),
		Hedges:     engine.CountEntities(world.Entities, engine.NeutralTeamID, engine.Hedge),
		Controlled: make(map[engine.TeamID]int),
	}
	cols := (world.Width + world.SectorSize - 1) / world.SectorSize
	rows := (world.Height + world.SectorSize - 1) / world.SectorSize
	a.Sectors = cols * rows

	// Statue owners per sector
	owners := make(map[engine.Location]map[engine.TeamID]bool)
	for _, e := range world.Entities {
		if e.Type != engine.Statue {
			continue
		}
		corner := engine.SectorTopLeft(e.Location, world.SectorSize)
		if owners[corner] == nil {
			owners[corner] = make(map[engine.TeamID]bool)
		}
		owners[corner][e.TeamID] = true
	}
	for _, teams := range owners {
		if len(teams) > 1 {
			a.Contested++
			continue
		}
		for team := range teams {
			if team != engine.NeutralTeamID {
				a.Controlled[team]++
			}
		}
	}

	for team := 1; team <= world.RequiredTeams(); team++ {
		id := engine.TeamID(team)
		a.Teams = append(a.Teams, TeamSummary{
			ID:           id,
			Throwers:     engine.CountEntities(world.Entities, id, engine.Thrower),
			Statues:      engine.CountEntities(world.Entities, id, engine.Statue),
			NearestEnemy: nearestEnemy(world.Entities, id),
		})
	}
	return a
}

// nearestEnemy returns the king-move distance between the closest pair of
// team and enemy throwers.
func nearestEnemy(entities []engine.EntityData, team engine.TeamID) int {
	best := -1
	for _, own := range entities {
		if own.Type != engine.Thrower || own.TeamID != team {
			continue
		}
		for _, other := range entities {
			if other.Type != engine.Thrower || other.TeamID == team || other.TeamID == engine.NeutralTeamID {
				continue
			}
			if d := moves(own.Location, other.Location); best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// moves is the number of single-cell moves, diagonals included, from a to b.
func moves(a, b engine.Location) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Size: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(w, "Sectors: %d (size %d)\n", a.Sectors, a.SectorSize)
	fmt.Fprintf(w, "Dirt: %d tiles (%.0f%%)\n", a.DirtTiles, math.Round(100*float64(a.DirtTiles)/float64(a.Width*a.Height)))
	fmt.Fprintf(w, "Neutral hedges: %d\n", a.Hedges)

	teams := make([]engine.TeamID, 0, len(a.Controlled))
	for team := range a.Controlled {
		teams = append(teams, team)
	}
	slices.Sort(teams)
	for _, team := range teams {
		fmt.Fprintf(w, "Team %d controls %d sectors at start\n", team, a.Controlled[team])
	}
	if a.Contested > 0 {
		fmt.Fprintf(w, "⚠️  %d sectors start contested\n", a.Contested)
	}

	for _, t := range a.Teams {
		fmt.Fprintf(w, "Team %d: %d throwers, %d statues", t.ID, t.Throwers, t.Statues)
		if t.NearestEnemy >= 0 {
			fmt.Fprintf(w, ", nearest enemy thrower %d moves away", t.NearestEnemy)
		}
		fmt.Fprintln(w)
	}

	if len(a.Teams) > 1 {
		first := a.Teams[0]
		balanced := true
		for _, t := range a.Teams[1:] {
			if t.Throwers != first.Throwers || t.Statues != first.Statues || a.Controlled[t.ID] != a.Controlled[first.ID] {
				balanced = false
			}
		}
		if balanced {
			fmt.Fprintln(w, "✅ Rosters and starting sectors are balanced")
		} else {
			fmt.Fprintln(w, "⚠️  WARNING: teams start with different rosters or sectors")
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Command validate checks map files before they are served. It checks:
//   - JSON structure, dimensions, tiles and the initial roster
//   - that the engine accepts the map for its required team count
//   - that every team starts with at least one thrower
//
// Missing statues and uneven rosters are reported as warnings, since such
// maps are legal but rarely fair.
//
// Usage: validate [map dir] (defaults to ../maps)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateMap loads and validates a single map file.
func validateMap(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	world, err := engine.ParseMapFile(data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	teamCount := world.RequiredTeams()
	names := make([]string, teamCount)
	for i := range names {
		names[i] = fmt.Sprintf("team%d", i+1)
	}

	game, err := engine.New("validate", world, engine.TeamsFor(names...), engine.Options{Debug: true})
	if err != nil {
		result.fail("Engine rejected map for %d teams: %v", teamCount, err)
		return result
	}
	if _, err := game.FirstTurn(); err != nil {
		result.fail("Initial turn failed: %v", err)
		return result
	}

	throwers := make([]int, teamCount+1)
	statues := make([]int, teamCount+1)
	for team := 1; team <= teamCount; team++ {
		id := engine.TeamID(team)
		throwers[team] = engine.CountEntities(world.Entities, id, engine.Thrower)
		statues[team] = engine.CountEntities(world.Entities, id, engine.Statue)
		if throwers[team] == 0 {
			result.fail("Team %d has no throwers", team)
		}
		if statues[team] == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Team %d has no statues and will never spawn throwers", team))
		}
		if team > 1 && (throwers[team] != throwers[1] || statues[team] != statues[1]) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Team %d roster (%d throwers, %d statues) differs from team 1 (%d, %d)",
				team, throwers[team], statues[team], throwers[1], statues[1]))
		}
	}

	controlled := 0
	for _, s := range game.Keyframe().Sectors {
		if s.ControllingTeamID != engine.NeutralTeamID {
			controlled++
		}
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", world.Name),
		fmt.Sprintf("✓ Size: %dx%d, sector size %d (%d sectors, %d controlled at start)",
			world.Width, world.Height, world.SectorSize, len(game.Keyframe().Sectors), controlled),
		fmt.Sprintf("✓ Dirt tiles: %d", engine.CountTiles(world, engine.Dirt)),
		fmt.Sprintf("✓ Neutral: %d hedges, %d statues",
			engine.CountEntities(world.Entities, engine.NeutralTeamID, engine.Hedge),
			engine.CountEntities(world.Entities, engine.NeutralTeamID, engine.Statue)),
	)
	for team := 1; team <= teamCount; team++ {
		result.Info = append(result.Info, fmt.Sprintf("✓ Team %d: %d throwers, %d statues", team, throwers[team], statues[team]))
	}

	return result
}

// main validates every *.json file in the map directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	mapDir := "../maps"
	if len(os.Args) > 1 {
		mapDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(mapDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding map files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No map files in %s\n", mapDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateMap(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Println("  ⚠️  " + warning)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All maps are valid!")
	} else {
		fmt.Println("❌ Some maps have errors")
		os.Exit(1)
	}
}

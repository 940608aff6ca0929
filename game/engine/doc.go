// Package engine is the authoritative turn engine of the battlecode hackathon
// game.
//
// A Game owns three pieces of state and is the only thing allowed to write to
// them:
//   - a Store of live entities with explicit mutators and a per-turn change log
//   - a grid.Index mapping every cell to at most one non-held entity
//   - a Tracker of sectors with per-team statue rosters and controllers
//
// Usage:
//
//	world, err := engine.LoadMapFile("maps/default.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.New("game-1", world, engine.TeamsFor("red", "blue"), engine.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	start, _ := game.FirstTurn()
//	diff, err := game.MakeTurn(1, start.Turn+1, []engine.Action{...})
//
// Game Rules:
//
// Teams alternate submitting batches of actions for their throwers. Throwers
// move, build statues, pick each other up and throw each other. Statues claim
// the sector they stand in; every tenth turn each controlled sector spawns a
// thrower next to its controller's oldest statue. Holding a unit past its
// deadline causes fatigue damage every turn until it is thrown.
//
// Identical maps, teams and batches always produce byte-identical diffs, which
// replays depend on.
package engine

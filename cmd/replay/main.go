// Command replay inspects and verifies recorded matches. It accepts either a
// bare match blob or a game_replay command, from a file or stdin, and
// re-simulates every recorded batch to prove the recorded diffs are what the
// engine produces.
//
// Usage: replay [-trace] <file|->
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/replay"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	trace := fs.Bool("trace", false, "Print every turn")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: replay [-trace] <file|->")
	}

	in := stdin
	if path := fs.Arg(0); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	match, err := replay.Read(in)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Game: %s\n", match.GameID)
	fmt.Fprintf(stdout, "Map: %s (%dx%d)\n", match.Map.Name, match.Map.Width, match.Map.Height)
	for _, team := range match.Teams {
		if team.ID != engine.NeutralTeamID {
			fmt.Fprintf(stdout, "Team %d: %s\n", team.ID, team.Name)
		}
	}
	fmt.Fprintf(stdout, "Turns recorded: %d\n", len(match.Turns))
	if match.Winner != nil {
		fmt.Fprintf(stdout, "Winner: team %d\n", *match.Winner)
	} else {
		fmt.Fprintln(stdout, "Winner: none (unfinished)")
	}

	if *trace {
		err := replay.Play(match, func(t replay.Turn, state *engine.Snapshot) error {
			kf := state.Keyframe(match.GameID, match.Map)
			fmt.Fprintf(stdout, "turn %4d team %d: %d ok, %d failed, %d dead, %d entities\n",
				t.Diff.Turn, t.Team, len(t.Diff.Successful), len(t.Diff.Failed), len(t.Diff.Dead), len(kf.Entities))
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := replay.Verify(match); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	fmt.Fprintln(stdout, "✅ Replay verified")
	return nil
}

package replay

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

// DivergenceError reports the first turn whose re-simulated diff differs from
// the recorded one.
type DivergenceError struct {
	Turn     int
	Expected []byte
	Got      []byte
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("replay diverged at turn %d: expected %s, got %s", e.Turn, e.Expected, e.Got)
}

// Verify replays every recorded batch on a fresh engine and checks that each
// produced diff serialises to exactly the recorded bytes.
func Verify(m *MatchData) error {
	if len(m.Turns) == 0 {
		return fmt.Errorf("replay has no turns")
	}

	g, err := engine.New(m.GameID, m.Map, m.Teams, m.Options)
	if err != nil {
		return fmt.Errorf("rebuild game: %w", err)
	}

	first, err := g.FirstTurn()
	if err != nil {
		return err
	}
	if err := compare(0, m.Turns[0].Diff, first); err != nil {
		return err
	}

	for _, t := range m.Turns[1:] {
		if t.Diff == nil {
			return fmt.Errorf("turn record without diff")
		}
		got, err := g.MakeTurn(t.Team, t.Diff.Turn, t.Batch)
		if err != nil {
			return fmt.Errorf("turn %d: %w", t.Diff.Turn, err)
		}
		if err := compare(t.Diff.Turn, t.Diff, got); err != nil {
			return err
		}
	}

	winner, finished := g.Winner()
	switch {
	case m.Winner == nil && finished:
		return fmt.Errorf("replay has no winner but re-simulation decided %d", winner)
	case m.Winner != nil && (!finished || winner != *m.Winner):
		return fmt.Errorf("replay winner %d not reproduced", *m.Winner)
	}
	return nil
}

func compare(turn int, expected, got *engine.NextTurn) error {
	want, err := json.Marshal(expected)
	if err != nil {
		return err
	}
	have, err := json.Marshal(got)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, have) {
		return &DivergenceError{Turn: turn, Expected: want, Got: have}
	}
	return nil
}

// Play applies the recorded diffs to a snapshot in order, calling fn after
// each one. It stops at the first error.
func Play(m *MatchData, fn func(turn Turn, state *engine.Snapshot) error) error {
	state := engine.NewSnapshot()
	for _, t := range m.Turns {
		if t.Diff == nil {
			return fmt.Errorf("turn record without diff")
		}
		if err := state.Apply(t.Diff); err != nil {
			return err
		}
		if err := fn(t, state); err != nil {
			return err
		}
	}
	return nil
}

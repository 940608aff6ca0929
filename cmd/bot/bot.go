package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
	"github.com/battlecode/battlecode-hackathon-sub000/replay"
)

var directions = []engine.Location{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Result summarizes a finished game from the bot's point of view.
type Result struct {
	GameID string
	Team   engine.TeamID
	Status string
	Winner *engine.TeamID
	Turns  int
	Missed int
}

// Bot plays one game over a line-delimited JSON connection.
type Bot struct {
	Name   string
	Key    string
	GameID string

	rng    *rand.Rand
	team   engine.TeamID
	world  *engine.MapFile
	state  *engine.Snapshot
	result Result
}

// NewBot creates a bot whose choices are fully determined by seed.
func NewBot(name string, seed uint64) *Bot {
	return &Bot{
		Name:  name,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		state: engine.NewSnapshot(),
	}
}

type envelope struct {
	Command string `json:"command"`
}

// Play logs in and answers every turn of the bot's team until the game
// finishes or is cancelled.
func (b *Bot) Play(conn io.ReadWriter) (*Result, error) {
	login := protocol.Login{Command: protocol.CmdLogin, Name: b.Name, Key: b.Key, GameID: b.GameID}
	return b.run(conn, login)
}

// Watch spectates the game without playing. A game already under way
// arrives as a keyframe followed by the remaining diffs.
func (b *Bot) Watch(conn io.ReadWriter) (*Result, error) {
	return b.run(conn, protocol.Spectate{Command: protocol.CmdSpectate, GameID: b.GameID})
}

func (b *Bot) run(conn io.ReadWriter, hello any) (*Result, error) {
	enc := json.NewEncoder(conn)
	if err := enc.Encode(hello); err != nil {
		return nil, fmt.Errorf("send %T: %w", hello, err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			return nil, fmt.Errorf("decode server message: %w", err)
		}

		switch env.Command {
		case protocol.CmdLoginConfirm:
			var msg protocol.LoginConfirm
			if err := json.Unmarshal(line, &msg); err != nil {
				return nil, err
			}
			b.team = msg.TeamID
			b.result.GameID = msg.GameID
			b.result.Team = msg.TeamID
			log.Printf("[BOT] %s joined game %s as team %d", b.Name, msg.GameID, msg.TeamID)

		case protocol.CmdStart:
			var msg protocol.Start
			if err := json.Unmarshal(line, &msg); err != nil {
				return nil, err
			}
			b.world = msg.World

		case protocol.CmdKeyframe:
			var kf engine.Keyframe
			if err := json.Unmarshal(line, &kf); err != nil {
				return nil, err
			}
			b.state = engine.SnapshotFromKeyframe(&kf)
			b.result.GameID = kf.GameID
			b.result.Turns = kf.Turn
			log.Printf("[BOT] %s watching game %s from turn %d", b.Name, kf.GameID, kf.Turn)

		case protocol.CmdNextTurn:
			var diff engine.NextTurn
			if err := json.Unmarshal(line, &diff); err != nil {
				return nil, err
			}
			if err := b.state.Apply(&diff); err != nil {
				return nil, err
			}
			b.result.Turns = diff.Turn
			b.result.GameID = diff.GameID
			if b.team == engine.NeutralTeamID || diff.Winner != nil || diff.NextTeam != b.team || b.world == nil {
				continue
			}
			turn := protocol.MakeTurn{
				Command: protocol.CmdMakeTurn,
				GameID:  b.result.GameID,
				Turn:    diff.Turn + 1,
				Actions: b.planTurn(diff.Turn + 1),
			}
			if err := enc.Encode(turn); err != nil {
				return nil, fmt.Errorf("send turn %d: %w", turn.Turn, err)
			}

		case protocol.CmdMissedTurn:
			b.result.Missed++
			log.Printf("[BOT] %s missed a turn", b.Name)

		case protocol.CmdError:
			var msg protocol.Error
			if err := json.Unmarshal(line, &msg); err != nil {
				return nil, err
			}
			if b.team == 0 {
				return nil, &msg
			}
			log.Printf("[BOT] server error: %s", msg.Error())

		case protocol.CmdGameReplay:
			// Spectating a finished game yields its replay instead of a status.
			if b.team != engine.NeutralTeamID || b.result.Status != "" {
				continue
			}
			var msg protocol.GameReplay
			if err := json.Unmarshal(line, &msg); err != nil {
				return nil, err
			}
			match, err := replay.Decode(msg.MatchData)
			if err != nil {
				return nil, err
			}
			b.result.Status = protocol.StatusFinished
			b.result.Winner = match.Winner
			return &b.result, nil

		case protocol.CmdGameStatus:
			var msg protocol.GameStatus
			if err := json.Unmarshal(line, &msg); err != nil {
				return nil, err
			}
			if msg.Status == protocol.StatusFinished || msg.Status == protocol.StatusCancelled {
				b.result.Status = msg.Status
				b.result.Winner = msg.Winner
				return &b.result, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

// planTurn picks one action for every ready thrower of the bot's team.
// Throwers carrying a unit throw it, throwers next to an enemy thrower try to
// pick it up, and the rest either build a statue or wander.
func (b *Bot) planTurn(turn int) []engine.Action {
	occupied := make(map[engine.Location]engine.EntityID)
	for id, e := range b.state.Entities {
		if e.HeldBy == nil {
			occupied[e.Location] = id
		}
	}

	var actions []engine.Action
	for _, id := range slices.Sorted(maps.Keys(b.state.Entities)) {
		e := b.state.Entities[id]
		if e.Type != engine.Thrower || e.TeamID != b.team || e.HeldBy != nil {
			continue
		}
		if e.CooldownEnd != nil && *e.CooldownEnd > turn {
			continue
		}

		if e.Holding != nil {
			dir := directions[b.rng.IntN(len(directions))]
			actions = append(actions, engine.Action{Kind: engine.ActionThrow, ID: id, DX: &dir.X, DY: &dir.Y})
			continue
		}

		if target, ok := b.adjacentEnemy(e, occupied); ok {
			actions = append(actions, engine.Action{Kind: engine.ActionPickup, ID: id, PickupID: &target})
			continue
		}

		free := b.freeNeighbors(e.Location, occupied)
		if len(free) == 0 {
			continue
		}
		loc := free[0]
		if b.rng.IntN(4) == 0 && b.state.Sectors[engine.SectorTopLeft(loc, b.world.SectorSize)] != b.team {
			actions = append(actions, engine.Action{Kind: engine.ActionBuild, ID: id, Loc: &loc})
			occupied[loc] = -1
			continue
		}
		actions = append(actions, engine.Action{Kind: engine.ActionMove, ID: id, Loc: &loc})
		delete(occupied, e.Location)
		occupied[loc] = id
	}
	return actions
}

func (b *Bot) adjacentEnemy(e engine.EntityData, occupied map[engine.Location]engine.EntityID) (engine.EntityID, bool) {
	for _, d := range directions {
		other, ok := occupied[engine.Location{X: e.Location.X + d.X, Y: e.Location.Y + d.Y}]
		if !ok || other < 0 {
			continue
		}
		target := b.state.Entities[other]
		if target.Type == engine.Thrower && target.TeamID != b.team && target.Holding == nil {
			return other, true
		}
	}
	return 0, false
}

// freeNeighbors returns the in-bounds unoccupied cells around loc in random
// order.
func (b *Bot) freeNeighbors(loc engine.Location, occupied map[engine.Location]engine.EntityID) []engine.Location {
	var free []engine.Location
	for _, d := range directions {
		next := engine.Location{X: loc.X + d.X, Y: loc.Y + d.Y}
		if !b.world.InBounds(next) {
			continue
		}
		if _, taken := occupied[next]; taken {
			continue
		}
		free = append(free, next)
	}
	b.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	return free
}

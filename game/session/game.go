package session

import (
	"log"
	"slices"
	"sync"
	"time"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
	"github.com/battlecode/battlecode-hackathon-sub000/replay"
)

// jobQueueSize bounds the number of pending requests per game.
const jobQueueSize = 64

type slot struct {
	name   string
	key    string
	fixed  bool // name came from the game request
	client service.Client
}

// Game hosts one match. Every engine call and every piece of mutable state
// below the queue fields is owned by the worker goroutine; other goroutines
// submit closures through the job queue.
type Game struct {
	id      string
	world   *engine.MapFile
	options service.MatchOptions
	pickup  bool
	created time.Time

	jobs      chan func()
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	status     string
	updated    time.Time
	slots      []*slot
	spectators []service.Client
	eng        *engine.Game
	recorder   *replay.Recorder
	timer      *time.Timer
	replay     *protocol.GameReplay
}

func newGame(id string, world *engine.MapFile, teams []protocol.TeamSpec, options service.MatchOptions, pickup bool) *Game {
	now := time.Now()
	g := &Game{
		id:      id,
		world:   world,
		options: options,
		pickup:  pickup,
		created: now,
		updated: now,
		jobs:    make(chan func(), jobQueueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		status:  protocol.StatusLobby,
	}

	if len(teams) == 0 {
		for i := 0; i < world.RequiredTeams(); i++ {
			g.slots = append(g.slots, &slot{})
		}
	} else {
		for _, t := range teams {
			g.slots = append(g.slots, &slot{name: t.Name, key: t.Key, fixed: t.Name != ""})
		}
	}

	go g.run()
	return g
}

func (g *Game) run() {
	defer close(g.done)
	for {
		select {
		case job := <-g.jobs:
			job()
		case <-g.stop:
			if g.timer != nil {
				g.timer.Stop()
			}
			return
		}
	}
}

// enqueue schedules fn on the worker without waiting for it.
func (g *Game) enqueue(fn func()) bool {
	select {
	case g.jobs <- fn:
		return true
	case <-g.done:
		return false
	}
}

// do runs fn on the worker and waits for it to finish.
func (g *Game) do(fn func()) error {
	finished := make(chan struct{})
	if !g.enqueue(func() {
		defer close(finished)
		fn()
	}) {
		return service.ErrGameClosed
	}
	select {
	case <-finished:
		return nil
	case <-g.done:
		select {
		case <-finished:
			return nil
		default:
			return service.ErrGameClosed
		}
	}
}

// ID returns the game id
func (g *Game) ID() string { return g.id }

// Info returns a summary of the game
func (g *Game) Info() *service.GameInfo {
	info := &service.GameInfo{
		ID:        g.id,
		Map:       g.world.Name,
		Status:    protocol.StatusCancelled,
		Turn:      -1,
		TimeoutMS: int(g.options.Timeout / time.Millisecond),
		Pickup:    g.pickup,
		CreatedAt: g.created,
		UpdatedAt: g.created,
	}
	g.do(func() {
		info.Status = g.status
		info.UpdatedAt = g.updated
		info.Spectators = len(g.spectators)
		for i, s := range g.slots {
			info.Teams = append(info.Teams, service.TeamInfo{
				ID:        engine.TeamID(i + 1),
				Name:      s.name,
				Keyed:     s.key != "",
				Connected: s.client != nil,
			})
		}
		if g.eng != nil {
			info.Turn = g.eng.Turn()
			info.NextTeam = g.eng.NextTeam()
			if winner, ok := g.eng.Winner(); ok {
				info.Winner = &winner
			}
		}
	})
	return info
}

// Join assigns client a team slot and sends it login_confirm. The game
// starts once every slot is taken.
func (g *Game) Join(client service.Client, name, key string) (*protocol.LoginConfirm, error) {
	var confirm *protocol.LoginConfirm
	var err error
	if doErr := g.do(func() { confirm, err = g.join(client, name, key) }); doErr != nil {
		return nil, doErr
	}
	return confirm, err
}

func (g *Game) join(client service.Client, name, key string) (*protocol.LoginConfirm, error) {
	if g.status != protocol.StatusLobby {
		return nil, service.ErrLobbyFull
	}
	if g.teamOf(client) != engine.NeutralTeamID {
		return nil, service.ErrAlreadyLoggedIn
	}

	index := -1
	for i, s := range g.slots {
		if key != "" {
			if s.key == key {
				index = i
				break
			}
			continue
		}
		if s.key == "" && s.client == nil {
			index = i
			break
		}
	}
	switch {
	case index < 0 && key != "":
		return nil, service.ErrBadKey
	case index < 0:
		return nil, service.ErrLobbyFull
	case g.slots[index].client != nil:
		return nil, service.ErrAlreadyLoggedIn
	}

	s := g.slots[index]
	s.client = client
	if !s.fixed {
		s.name = name
	}
	g.touch()

	team := engine.TeamID(index + 1)
	confirm := &protocol.LoginConfirm{
		Command: protocol.CmdLoginConfirm,
		Name:    s.name,
		TeamID:  team,
		GameID:  g.id,
	}
	g.send(client, confirm)
	log.Printf("[LOBBY] game=%s team=%d name=%q client=%s", g.id, team, s.name, client.ID())

	if g.full() {
		g.start()
	}
	return confirm, nil
}

func (g *Game) full() bool {
	for _, s := range g.slots {
		if s.client == nil {
			return false
		}
	}
	return true
}

// open reports whether the game is a pickup lobby with a free slot.
func (g *Game) open() bool {
	var open bool
	g.do(func() {
		if !g.pickup || g.status != protocol.StatusLobby {
			return
		}
		for _, s := range g.slots {
			if s.key == "" && s.client == nil {
				open = true
				return
			}
		}
	})
	return open
}

func (g *Game) start() {
	names := make([]string, len(g.slots))
	for i, s := range g.slots {
		names[i] = s.name
	}
	teams := engine.TeamsFor(names...)
	options := engine.Options{Debug: g.options.Debug, MaxTurns: g.options.MaxTurns}

	eng, err := engine.New(g.id, g.world, teams, options)
	if err != nil {
		log.Printf("[GAME] id=%s start failed: %v", g.id, err)
		g.broadcast(protocol.AsError(err, protocol.CodeInvalidSetup))
		g.cancel()
		return
	}
	first, err := eng.FirstTurn()
	if err != nil {
		log.Printf("[GAME] id=%s first turn failed: %v", g.id, err)
		g.cancel()
		return
	}

	g.eng = eng
	g.recorder = replay.NewRecorder(g.id, g.world, teams, options)
	g.status = protocol.StatusRunning
	g.touch()
	log.Printf("[GAME] started id=%s map=%s teams=%v", g.id, g.world.Name, names)

	g.broadcast(&protocol.Start{
		Command:   protocol.CmdStart,
		GameID:    g.id,
		World:     g.world,
		Teams:     teams,
		TimeoutMS: int(g.options.Timeout / time.Millisecond),
	})
	g.advance(engine.NeutralTeamID, nil, first)
}

// Submit plays the client's batch. Client errors from the engine are
// returned unchanged.
func (g *Game) Submit(client service.Client, turn int, actions []engine.Action) error {
	var err error
	if doErr := g.do(func() { err = g.submit(client, turn, actions) }); doErr != nil {
		return doErr
	}
	return err
}

func (g *Game) submit(client service.Client, turn int, actions []engine.Action) error {
	team := g.teamOf(client)
	if team == engine.NeutralTeamID {
		return service.ErrNotPlayer
	}
	if g.eng == nil {
		return service.ErrNotStarted
	}
	if g.status == protocol.StatusCancelled {
		return protocol.NewError(protocol.CodeGameOver, "game %s was cancelled", g.id)
	}

	diff, err := g.eng.MakeTurn(team, turn, actions)
	if err != nil {
		return err
	}
	g.advance(team, actions, diff)
	return nil
}

// advance records and broadcasts a produced diff, then either finishes the
// game or arms the timeout for the next turn.
func (g *Game) advance(team engine.TeamID, batch []engine.Action, diff *engine.NextTurn) {
	g.recorder.Record(team, batch, diff)
	g.touch()
	log.Printf("[TURN] game=%s turn=%d team=%d ok=%d failed=%d changed=%d dead=%d",
		g.id, diff.Turn, team, len(diff.Successful), len(diff.Failed), len(diff.Changed), len(diff.Dead))

	g.broadcast(diff)

	if diff.Winner != nil {
		g.finish(*diff.Winner)
		return
	}
	g.arm()
}

func (g *Game) arm() {
	if g.timer != nil {
		g.timer.Stop()
	}
	if g.options.Timeout <= 0 {
		return
	}
	turn := g.eng.Turn()
	g.timer = time.AfterFunc(g.options.Timeout, func() {
		g.enqueue(func() { g.expire(turn) })
	})
}

// expire plays an empty batch for the expected team if the game is still
// waiting on turn+1.
func (g *Game) expire(turn int) {
	if g.status != protocol.StatusRunning || g.eng.Turn() != turn {
		return
	}

	team := g.eng.NextTeam()
	log.Printf("[TURN] game=%s turn=%d team=%d timed out", g.id, turn+1, team)
	if s := g.slots[team-1]; s.client != nil {
		g.send(s.client, &protocol.MissedTurn{
			Command: protocol.CmdMissedTurn,
			GameID:  g.id,
			Turn:    turn + 1,
			TeamID:  team,
		})
	}

	diff, err := g.eng.MakeTurn(team, turn+1, nil)
	if err != nil {
		log.Printf("[TURN] game=%s empty batch rejected: %v", g.id, err)
		return
	}
	g.advance(team, nil, diff)
}

func (g *Game) finish(winner engine.TeamID) {
	g.status = protocol.StatusFinished
	if g.timer != nil {
		g.timer.Stop()
	}
	log.Printf("[GAME] finished id=%s turn=%d winner=%d", g.id, g.eng.Turn(), winner)

	g.broadcast(&protocol.GameStatus{
		Command: protocol.CmdGameStatus,
		GameID:  g.id,
		Status:  protocol.StatusFinished,
		Winner:  &winner,
	})

	blob, err := replay.Encode(g.recorder.Match())
	if err != nil {
		log.Printf("[GAME] id=%s replay encode failed: %v", g.id, err)
		return
	}
	g.replay = &protocol.GameReplay{Command: protocol.CmdGameReplay, GameID: g.id, MatchData: blob}
	g.broadcast(g.replay)
}

func (g *Game) cancel() {
	g.status = protocol.StatusCancelled
	if g.timer != nil {
		g.timer.Stop()
	}
	g.touch()
	log.Printf("[GAME] cancelled id=%s", g.id)
	g.broadcast(&protocol.GameStatus{
		Command: protocol.CmdGameStatus,
		GameID:  g.id,
		Status:  protocol.StatusCancelled,
	})
}

// Spectate subscribes client to every following broadcast. A game in
// progress first sends a keyframe.
func (g *Game) Spectate(client service.Client) error {
	return g.do(func() {
		if !slices.ContainsFunc(g.spectators, sameClient(client)) {
			g.spectators = append(g.spectators, client)
		}
		if g.eng == nil {
			g.send(client, &protocol.GameStatus{Command: protocol.CmdGameStatus, GameID: g.id, Status: g.status})
			return
		}
		g.send(client, g.eng.Keyframe())
		if g.replay != nil {
			g.send(client, g.replay)
		}
	})
}

// Keyframe returns a full snapshot of a started game
func (g *Game) Keyframe() (*engine.Keyframe, error) {
	var kf *engine.Keyframe
	if err := g.do(func() {
		if g.eng != nil {
			kf = g.eng.Keyframe()
		}
	}); err != nil {
		return nil, err
	}
	if kf == nil {
		return nil, service.ErrNotStarted
	}
	return kf, nil
}

// Replay returns the replay of a finished game
func (g *Game) Replay() (*protocol.GameReplay, error) {
	var r *protocol.GameReplay
	if err := g.do(func() { r = g.replay }); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, service.ErrNotFinished
	}
	return r, nil
}

// Leave removes client from the game. A player leaving a running game
// cancels it.
func (g *Game) Leave(client service.Client) {
	g.do(func() {
		g.spectators = slices.DeleteFunc(g.spectators, sameClient(client))

		team := g.teamOf(client)
		if team == engine.NeutralTeamID {
			return
		}
		s := g.slots[team-1]
		s.client = nil
		if !s.fixed {
			s.name = ""
		}
		log.Printf("[LOBBY] game=%s team=%d left", g.id, team)

		if g.status == protocol.StatusRunning {
			g.cancel()
		}
		g.touch()
	})
}

// Close stops the worker. Pending requests fail with ErrGameClosed.
func (g *Game) Close() {
	g.closeOnce.Do(func() { close(g.stop) })
	<-g.done
}

// finishedBefore reports whether the game ended before cutoff.
func (g *Game) finishedBefore(cutoff time.Time) bool {
	var old bool
	g.do(func() {
		ended := g.status == protocol.StatusFinished || g.status == protocol.StatusCancelled
		old = ended && g.updated.Before(cutoff)
	})
	return old
}

func (g *Game) teamOf(client service.Client) engine.TeamID {
	for i, s := range g.slots {
		if s.client != nil && s.client.ID() == client.ID() {
			return engine.TeamID(i + 1)
		}
	}
	return engine.NeutralTeamID
}

func (g *Game) touch() { g.updated = time.Now() }

func (g *Game) send(client service.Client, cmd any) {
	if err := client.Send(cmd); err != nil {
		log.Printf("[SEND] game=%s client=%s failed: %v", g.id, client.ID(), err)
	}
}

// broadcast sends cmd to every player and spectator, once per client.
func (g *Game) broadcast(cmd any) {
	seen := make(map[string]bool, len(g.slots)+len(g.spectators))
	for _, s := range g.slots {
		if s.client != nil && !seen[s.client.ID()] {
			seen[s.client.ID()] = true
			g.send(s.client, cmd)
		}
	}
	for _, c := range g.spectators {
		if !seen[c.ID()] {
			seen[c.ID()] = true
			g.send(c, cmd)
		}
	}
}

func sameClient(client service.Client) func(service.Client) bool {
	return func(c service.Client) bool { return c.ID() == client.ID() }
}

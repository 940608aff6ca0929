package protocol

import (
	"fmt"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

// Command names. Inbound commands are sent by clients, outbound by the server.
const (
	CmdLogin           = "login"
	CmdMakeTurn        = "make_turn"
	CmdCreateGame      = "create_game"
	CmdSpectate        = "spectate"
	CmdKeyframeRequest = "keyframe_request"
	CmdListMapsRequest = "list_maps_request"

	CmdLoginConfirm     = "login_confirm"
	CmdStart            = "start"
	CmdNextTurn         = "next_turn"
	CmdKeyframe         = "keyframe"
	CmdMissedTurn       = "missed_turn"
	CmdGameStatus       = "game_status"
	CmdGameReplay       = "game_replay"
	CmdListMapsResponse = "list_maps_response"
	CmdError            = "error"
)

// Game status values carried by game_status.
const (
	StatusLobby     = "lobby"
	StatusRunning   = "running"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
)

// Login joins a game as a player. Without a game id the client joins the
// pickup lobby.
type Login struct {
	Command string `json:"command"`
	Name    string `json:"name"`
	Key     string `json:"key,omitempty"`
	GameID  string `json:"gameID,omitempty"`
}

// MakeTurn submits the batch of the logged in team.
type MakeTurn struct {
	Command string          `json:"command"`
	GameID  string          `json:"gameID,omitempty"`
	Turn    int             `json:"turn"`
	Actions []engine.Action `json:"actions"`
}

// TeamSpec reserves a team slot in a new game.
type TeamSpec struct {
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

// CreateGame opens a lobby on a named map.
type CreateGame struct {
	Command   string     `json:"command"`
	Map       string     `json:"map"`
	Teams     []TeamSpec `json:"teams,omitempty"`
	TimeoutMS int        `json:"timeoutMS,omitempty"`
	MaxTurns  int        `json:"maxTurns,omitempty"`
}

// Spectate subscribes to a game's broadcasts.
type Spectate struct {
	Command string `json:"command"`
	GameID  string `json:"gameID,omitempty"`
}

// KeyframeRequest asks for a full snapshot of a game.
type KeyframeRequest struct {
	Command string `json:"command"`
	GameID  string `json:"gameID"`
}

// ListMapsRequest asks for the names of the available maps.
type ListMapsRequest struct {
	Command string `json:"command"`
}

// LoginConfirm assigns a team to a logged in player.
type LoginConfirm struct {
	Command string        `json:"command"`
	Name    string        `json:"name"`
	TeamID  engine.TeamID `json:"teamID"`
	GameID  string        `json:"gameID"`
}

// Start is broadcast when a lobby fills and the game begins.
type Start struct {
	Command   string            `json:"command"`
	GameID    string            `json:"gameID"`
	World     *engine.MapFile   `json:"world"`
	Teams     []engine.TeamData `json:"teams"`
	TimeoutMS int               `json:"timeoutMS,omitempty"`
}

// MissedTurn tells a team its turn timed out and was played empty.
type MissedTurn struct {
	Command string        `json:"command"`
	GameID  string        `json:"gameID"`
	Turn    int           `json:"turn"`
	TeamID  engine.TeamID `json:"teamID"`
}

// GameStatus reports a lifecycle change of a game.
type GameStatus struct {
	Command string         `json:"command"`
	GameID  string         `json:"gameID"`
	Status  string         `json:"status"`
	Winner  *engine.TeamID `json:"winner,omitempty"`
}

// GameReplay carries the encoded match of a finished game.
type GameReplay struct {
	Command   string `json:"command"`
	GameID    string `json:"gameID"`
	MatchData string `json:"matchData"`
}

// ListMapsResponse lists the available map names.
type ListMapsResponse struct {
	Command string   `json:"command"`
	Maps    []string `json:"maps"`
}

// Error is both the outbound error command and a Go error.
type Error struct {
	Command string `json:"command"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Reason
}

// NewError builds an outbound error.
func NewError(code, format string, args ...any) *Error {
	return &Error{Command: CmdError, Code: code, Reason: fmt.Sprintf(format, args...)}
}

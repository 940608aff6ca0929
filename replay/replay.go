// Package replay records finished matches, packs them into the compressed
// blob sent with game_replay, and re-simulates them to check determinism.
package replay

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

// Version is bumped whenever MatchData changes shape.
const Version = 1

// Turn is one recorded batch and the diff it produced. The first turn of a
// match is the turn-0 diff, which has no batch.
type Turn struct {
	Team  engine.TeamID    `json:"team"`
	Batch []engine.Action  `json:"batch"`
	Diff  *engine.NextTurn `json:"diff"`
}

// MatchData is everything needed to replay a match.
type MatchData struct {
	Version int               `json:"version"`
	GameID  string            `json:"gameID"`
	Map     *engine.MapFile   `json:"map"`
	Teams   []engine.TeamData `json:"teams"`
	Options engine.Options    `json:"options"`
	Turns   []Turn            `json:"turns"`
	Winner  *engine.TeamID    `json:"winner,omitempty"`
}

// Recorder accumulates the turns of a running match.
type Recorder struct {
	mu   sync.Mutex
	data MatchData
}

// NewRecorder starts recording a match.
func NewRecorder(gameID string, world *engine.MapFile, teams []engine.TeamData, options engine.Options) *Recorder {
	return &Recorder{
		data: MatchData{
			Version: Version,
			GameID:  gameID,
			Map:     world,
			Teams:   append([]engine.TeamData(nil), teams...),
			Options: options,
		},
	}
}

// Record appends a produced diff. A diff carrying a winner also sets the
// match winner.
func (r *Recorder) Record(team engine.TeamID, batch []engine.Action, diff *engine.NextTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.Turns = append(r.data.Turns, Turn{Team: team, Batch: batch, Diff: diff})
	if diff.Winner != nil {
		winner := *diff.Winner
		r.data.Winner = &winner
	}
}

// Len returns the number of recorded turns.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data.Turns)
}

// Match returns a copy of the recorded match.
func (r *Recorder) Match() *MatchData {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.data
	m.Turns = append([]Turn(nil), r.data.Turns...)
	return &m
}

// Encode packs a match as base64(zstd(json)).
func Encode(m *MatchData) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal match: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()

	return base64.StdEncoding.EncodeToString(enc.EncodeAll(raw, nil)), nil
}

// Decode unpacks a blob produced by Encode.
func Decode(blob string) (*MatchData, error) {
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}

	var m MatchData
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal match: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("unsupported replay version %d", m.Version)
	}
	if m.Map == nil {
		return nil, fmt.Errorf("replay has no map")
	}
	return &m, nil
}

// Read decodes a replay from r. It accepts either a bare blob or a
// game_replay command carrying one.
func Read(r io.Reader) (*MatchData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var envelope struct {
			MatchData string `json:"matchData"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("unmarshal game_replay: %w", err)
		}
		return Decode(envelope.MatchData)
	}
	return Decode(string(data))
}

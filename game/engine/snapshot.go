package engine

import (
	"fmt"
	"maps"
	"slices"
)

// Snapshot is a client-side copy of game state rebuilt from keyframes and
// diffs. Spectators and replay verification use it.
type Snapshot struct {
	Turn     int
	NextTeam TeamID
	Entities map[EntityID]EntityData
	Sectors  map[Location]TeamID
}

// NewSnapshot returns the empty state that precedes the turn-0 diff.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Turn:     -1,
		Entities: make(map[EntityID]EntityData),
		Sectors:  make(map[Location]TeamID),
	}
}

// SnapshotFromKeyframe rebuilds a snapshot from a full keyframe.
func SnapshotFromKeyframe(k *Keyframe) *Snapshot {
	s := NewSnapshot()
	s.Turn = k.Turn
	s.NextTeam = k.NextTeam
	for _, e := range k.Entities {
		s.Entities[e.ID] = e
	}
	for _, sec := range k.Sectors {
		s.Sectors[sec.TopLeft] = sec.ControllingTeamID
	}
	return s
}

// Apply advances the snapshot by one diff.
func (s *Snapshot) Apply(d *NextTurn) error {
	if d.Turn != s.Turn+1 {
		return fmt.Errorf("wrong turns: %d should be %d", d.Turn, s.Turn+1)
	}
	for _, id := range d.Dead {
		delete(s.Entities, id)
	}
	for _, e := range d.Changed {
		s.Entities[e.ID] = e
	}
	for _, sec := range d.ChangedSectors {
		s.Sectors[sec.TopLeft] = sec.ControllingTeamID
	}
	s.Turn = d.Turn
	s.NextTeam = d.NextTeam
	return nil
}

// Keyframe renders the snapshot in canonical order. Sectors missing from the
// snapshot are filled in as neutral.
func (s *Snapshot) Keyframe(gameID string, world *MapFile) *Keyframe {
	entities := make([]EntityData, 0, len(s.Entities))
	for _, id := range slices.Sorted(maps.Keys(s.Entities)) {
		entities = append(entities, s.Entities[id])
	}

	var sectors []SectorData
	for y := 0; y < world.Height; y += world.SectorSize {
		for x := 0; x < world.Width; x += world.SectorSize {
			loc := Location{X: x, Y: y}
			sectors = append(sectors, SectorData{TopLeft: loc, ControllingTeamID: s.Sectors[loc]})
		}
	}

	return &Keyframe{
		Command:  "keyframe",
		GameID:   gameID,
		Turn:     s.Turn,
		Sectors:  sectors,
		Entities: entities,
		NextTeam: s.NextTeam,
	}
}

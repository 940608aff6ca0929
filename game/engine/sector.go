package engine

import (
	"fmt"
	"slices"
)

// Sector is a fixed-size square of the map that tracks statue rosters per team.
type Sector struct {
	topLeft    Location
	index      int
	rosters    map[TeamID][]EntityID
	controller TeamID
	changed    bool
}

// TopLeft returns the sector corner with the lowest coordinates.
func (s *Sector) TopLeft() Location { return s.topLeft }

// Controller returns the controlling team, or the neutral team.
func (s *Sector) Controller() TeamID { return s.controller }

// Statues returns a copy of the team's roster.
func (s *Sector) Statues(team TeamID) []EntityID {
	return slices.Clone(s.rosters[team])
}

// CheckChanged reports whether control changed since the previous call and
// clears the flag.
func (s *Sector) CheckChanged() bool {
	changed := s.changed
	s.changed = false
	return changed
}

// OldestStatue returns the team's statue with the lowest id.
func (s *Sector) OldestStatue(team TeamID) (EntityID, bool) {
	roster := s.rosters[team]
	if len(roster) == 0 {
		return 0, false
	}
	return slices.Min(roster), true
}

// Snapshot returns the wire representation of the sector.
func (s *Sector) Snapshot() SectorData {
	return SectorData{TopLeft: s.topLeft, ControllingTeamID: s.controller}
}

func (s *Sector) add(team TeamID, id EntityID) {
	if slices.Contains(s.rosters[team], id) {
		violation("statue %d already in sector %v", id, s.topLeft)
	}
	s.rosters[team] = append(s.rosters[team], id)
}

func (s *Sector) remove(team TeamID, id EntityID) {
	roster := s.rosters[team]
	i := slices.Index(roster, id)
	if i < 0 {
		violation("can't delete nonexistent statue %d from sector %v", id, s.topLeft)
	}
	roster = slices.Delete(roster, i, i+1)
	if len(roster) == 0 {
		delete(s.rosters, team)
	} else {
		s.rosters[team] = roster
	}
}

// computeController derives control from the rosters alone. Neutral statues
// count as a team of their own, so they contest a sector like any other.
func (s *Sector) computeController() TeamID {
	controller := NeutralTeamID
	found := false
	for team, roster := range s.rosters {
		if len(roster) == 0 {
			continue
		}
		if found {
			return NeutralTeamID
		}
		controller, found = team, true
	}
	return controller
}

// Tracker partitions a map into sectors and keeps a log of sectors whose
// controller changed since the last drain.
type Tracker struct {
	size    int
	cols    int
	rows    int
	sectors []*Sector
	log     []*Sector
}

// NewTracker creates a tracker for a width×height map. Sectors on the right
// and top edges may be truncated.
func NewTracker(width, height, size int) (*Tracker, error) {
	if width <= 0 || height <= 0 || size <= 0 {
		return nil, fmt.Errorf("invalid sector layout: %dx%d size %d", width, height, size)
	}
	t := &Tracker{
		size: size,
		cols: (width + size - 1) / size,
		rows: (height + size - 1) / size,
	}
	t.sectors = make([]*Sector, 0, t.cols*t.rows)
	for row := 0; row < t.rows; row++ {
		for col := 0; col < t.cols; col++ {
			t.sectors = append(t.sectors, &Sector{
				topLeft:    Location{X: col * size, Y: row * size},
				index:      len(t.sectors),
				rosters:    make(map[TeamID][]EntityID),
				controller: NeutralTeamID,
			})
		}
	}
	return t, nil
}

// Size returns the sector edge length.
func (t *Tracker) Size() int { return t.size }

// SectorAt returns the sector covering loc.
func (t *Tracker) SectorAt(loc Location) *Sector {
	col, row := loc.X/t.size, loc.Y/t.size
	if loc.X < 0 || loc.Y < 0 || col >= t.cols || row >= t.rows {
		violation("no sector at %v", loc)
	}
	return t.sectors[row*t.cols+col]
}

// Sectors returns every sector in row-major order.
func (t *Tracker) Sectors() []*Sector {
	return t.sectors
}

// AddStatue adds a statue to the roster of the sector covering it.
func (t *Tracker) AddStatue(e *Entity) {
	s := t.SectorAt(e.Location())
	s.add(e.Team(), e.ID())
	t.recompute(s)
}

// RemoveStatue removes a statue from the roster of the sector covering it.
func (t *Tracker) RemoveStatue(e *Entity) {
	s := t.SectorAt(e.Location())
	s.remove(e.Team(), e.ID())
	t.recompute(s)
}

func (t *Tracker) recompute(s *Sector) {
	controller := s.computeController()
	if controller == s.controller {
		return
	}
	s.controller = controller
	s.changed = true
	t.log = append(t.log, s)
}

// DrainChanged consumes the change flag of every sector logged since the
// previous drain and returns the ones that changed, in row-major order.
func (t *Tracker) DrainChanged() []SectorData {
	slices.SortFunc(t.log, func(a, b *Sector) int { return a.index - b.index })
	out := make([]SectorData, 0, len(t.log))
	for _, s := range t.log {
		if s.CheckChanged() {
			out = append(out, s.Snapshot())
		}
	}
	t.log = t.log[:0]
	return out
}

// Snapshot returns every sector in row-major order.
func (t *Tracker) Snapshot() []SectorData {
	out := make([]SectorData, len(t.sectors))
	for i, s := range t.sectors {
		out[i] = s.Snapshot()
	}
	return out
}

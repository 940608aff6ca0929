package engine

// SpiralOffsets returns the offsets visited by the clockwise square spiral
// used to find a free cell next to a statue: right, down, left, up with side
// lengths 1, 1, 2, 2, 3, 3 and so on, truncated to SpiralSteps.
func SpiralOffsets() []Location {
	directions := [4]Location{{X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 1}}
	offsets := make([]Location, 0, SpiralSteps)
	var cur Location
	side := 1
	for turn := 0; len(offsets) < SpiralSteps; turn++ {
		dir := directions[turn%4]
		for i := 0; i < side && len(offsets) < SpiralSteps; i++ {
			cur = cur.Add(dir.X, dir.Y)
			offsets = append(offsets, cur)
		}
		if turn%2 == 1 {
			side++
		}
	}
	return offsets
}

var spiral = SpiralOffsets()

// nearestFree returns the first in-bounds unoccupied cell on the spiral
// around origin.
func (g *Game) nearestFree(origin Location) (Location, bool) {
	for _, off := range spiral {
		loc := origin.Add(off.X, off.Y)
		if !g.occupancy.InBounds(loc) {
			continue
		}
		if has, _ := g.occupancy.Has(loc); !has {
			return loc, true
		}
	}
	return Location{}, false
}

// CountTiles counts the tiles of type t in a map
func CountTiles(m *MapFile, t Tile) int {
	count := 0
	for _, row := range m.Tiles {
		for _, tile := range row {
			if tile == t {
				count++
			}
		}
	}
	return count
}

// CountEntities counts the entities of a type owned by a team in a roster
func CountEntities(entities []EntityData, team TeamID, kind EntityType) int {
	count := 0
	for _, e := range entities {
		if e.TeamID == team && e.Type == kind {
			count++
		}
	}
	return count
}

// SectorTopLeft returns the corner of the sector covering loc.
func SectorTopLeft(loc Location, sectorSize int) Location {
	return Location{X: loc.X - loc.X%sectorSize, Y: loc.Y - loc.Y%sectorSize}
}

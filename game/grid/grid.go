// Package grid provides the spatial occupancy index used by the turn engine.
//
// An Index is a bounded width×height grid where every cell holds at most one
// entity id. All accessors validate coordinates and return an *OutOfRangeError
// for cells outside [0,width)×[0,height).
package grid

import (
	"fmt"
	"iter"
)

// Location is an integer world coordinate. The origin is the bottom-left cell.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns l offset by (dx, dy).
func (l Location) Add(dx, dy int) Location {
	return Location{X: l.X + dx, Y: l.Y + dy}
}

// DistanceSquared returns the squared euclidean distance between two locations.
func DistanceSquared(a, b Location) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// OutOfRangeError is returned for any access outside the grid bounds.
type OutOfRangeError struct {
	Loc           Location
	Width, Height int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of bounds: %d,%d [%d,%d]", e.Loc.X, e.Loc.Y, e.Width, e.Height)
}

// Index maps grid cells to occupant ids.
type Index[ID comparable] struct {
	width  int
	height int
	cells  []ID
	set    []bool
	count  int
}

// New creates an empty index. Width and height must be positive.
func New[ID comparable](width, height int) (*Index[ID], error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size: %d,%d", width, height)
	}
	return &Index[ID]{
		width:  width,
		height: height,
		cells:  make([]ID, width*height),
		set:    make([]bool, width*height),
	}, nil
}

// Width returns the number of columns.
func (g *Index[ID]) Width() int { return g.width }

// Height returns the number of rows.
func (g *Index[ID]) Height() int { return g.height }

// Len returns the number of occupied cells.
func (g *Index[ID]) Len() int { return g.count }

// InBounds reports whether loc lies inside the grid.
func (g *Index[ID]) InBounds(loc Location) bool {
	return loc.X >= 0 && loc.Y >= 0 && loc.X < g.width && loc.Y < g.height
}

func (g *Index[ID]) offset(loc Location) (int, error) {
	if !g.InBounds(loc) {
		return 0, &OutOfRangeError{Loc: loc, Width: g.width, Height: g.height}
	}
	return loc.Y*g.width + loc.X, nil
}

// Set stores id at loc, replacing any previous occupant.
func (g *Index[ID]) Set(loc Location, id ID) error {
	i, err := g.offset(loc)
	if err != nil {
		return err
	}
	if !g.set[i] {
		g.count++
	}
	g.cells[i] = id
	g.set[i] = true
	return nil
}

// Delete clears loc. Clearing an empty cell is a no-op.
func (g *Index[ID]) Delete(loc Location) error {
	i, err := g.offset(loc)
	if err != nil {
		return err
	}
	if g.set[i] {
		g.count--
	}
	var zero ID
	g.cells[i] = zero
	g.set[i] = false
	return nil
}

// Get returns the occupant of loc, if any.
func (g *Index[ID]) Get(loc Location) (ID, bool, error) {
	var zero ID
	i, err := g.offset(loc)
	if err != nil {
		return zero, false, err
	}
	if !g.set[i] {
		return zero, false, nil
	}
	return g.cells[i], true, nil
}

// Has reports whether loc is occupied.
func (g *Index[ID]) Has(loc Location) (bool, error) {
	i, err := g.offset(loc)
	if err != nil {
		return false, err
	}
	return g.set[i], nil
}

// All yields every occupied cell and its occupant in row-major order.
// Each call starts a fresh iteration.
func (g *Index[ID]) All() iter.Seq2[Location, ID] {
	return func(yield func(Location, ID) bool) {
		for i, ok := range g.set {
			if !ok {
				continue
			}
			loc := Location{X: i % g.width, Y: i / g.width}
			if !yield(loc, g.cells[i]) {
				return
			}
		}
	}
}

// IDs yields every occupant id in row-major order.
func (g *Index[ID]) IDs() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for _, id := range g.All() {
			if !yield(id) {
				return
			}
		}
	}
}

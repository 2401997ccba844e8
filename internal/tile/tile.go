// Package tile is the level grid as far as the simulation cares: bounds,
// doors and exit tiles. Floor layout and textures belong to the renderer.
package tile

import (
	"math"
	"sort"

	"github.com/jakecoffman/cp"
)

// Coord is an integer tile coordinate.
type Coord struct {
	X, Y int
}

// CoordOf returns the tile containing p.
func CoordOf(p cp.Vector) Coord {
	return Coord{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Vector returns the lower-left corner of the tile.
func (c Coord) Vector() cp.Vector {
	return cp.Vector{X: float64(c.X), Y: float64(c.Y)}
}

type Door struct {
	At   Coord
	open bool
}

func (d *Door) Open()        { d.open = true }
func (d *Door) Close()       { d.open = false }
func (d *Door) IsOpen() bool { return d.open }

// Map holds the tiles of one level. The zero size means unbounded.
type Map struct {
	width, height int
	doors         map[Coord]*Door
	exits         map[Coord]struct{}
}

func NewMap(width, height int) *Map {
	return &Map{
		width:  width,
		height: height,
		doors:  make(map[Coord]*Door),
		exits:  make(map[Coord]struct{}),
	}
}

func (m *Map) InBounds(c Coord) bool {
	if m.width <= 0 || m.height <= 0 {
		return true
	}
	return c.X >= 0 && c.Y >= 0 && c.X < m.width && c.Y < m.height
}

// PlaceDoor turns the tile at p into a closed door, or returns the door
// already there. It fails outside the map.
func (m *Map) PlaceDoor(p cp.Vector) (*Door, bool) {
	c := CoordOf(p)
	if !m.InBounds(c) {
		return nil, false
	}
	if d, ok := m.doors[c]; ok {
		return d, true
	}
	d := &Door{At: c}
	m.doors[c] = d
	return d, true
}

// RemoveDoor turns a door tile back into floor.
func (m *Map) RemoveDoor(c Coord) {
	delete(m.doors, c)
}

func (m *Map) DoorAt(c Coord) (*Door, bool) {
	d, ok := m.doors[c]
	return d, ok
}

// Doors returns all doors ordered by row, then column.
func (m *Map) Doors() []*Door {
	out := make([]*Door, 0, len(m.doors))
	for _, d := range m.doors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Y != out[j].At.Y {
			return out[i].At.Y < out[j].At.Y
		}
		return out[i].At.X < out[j].At.X
	})
	return out
}

func (m *Map) MarkExit(c Coord) {
	if m.InBounds(c) {
		m.exits[c] = struct{}{}
	}
}

func (m *Map) IsExit(c Coord) bool {
	_, ok := m.exits[c]
	return ok
}

// Passable reports whether an entity may stand on c: inside the map and not a
// closed door.
func (m *Map) Passable(c Coord) bool {
	if !m.InBounds(c) {
		return false
	}
	if d, ok := m.doors[c]; ok && !d.open {
		return false
	}
	return true
}

package component

import "github.com/jakecoffman/cp"

// Position is an entity's world position in tile units.
type Position struct {
	Point cp.Vector
}

// Tile offsets: entities stand at the middle-bottom of their tile.
const (
	XOffset = 0.5
	YOffset = 0.25
)

// Offset moves a tile corner to where an entity on that tile stands.
func Offset(p cp.Vector) cp.Vector {
	return p.Add(cp.Vector{X: XOffset, Y: YOffset})
}

package game

import (
	"fmt"

	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/tile"
	"github.com/jakecoffman/cp"
)

// The Game is the host of the level scripts.

func (g *Game) TransitionTo(label, point, message string) bool {
	return g.Loader.TransitionTo(label, g.Loader.Player(), point, message, 1)
}

func (g *Game) PlaySound(names ...string) error {
	sounds := make([]audio.Sound, 0, len(names))
	for _, name := range names {
		s, ok := audio.ParseSound(name)
		if !ok {
			return fmt.Errorf("unknown sound %q", name)
		}
		sounds = append(sounds, s)
	}
	return audio.PlayOneOf(g.Sounds, g.rng, sounds...)
}

func (g *Game) NamedPoint(name string) (cp.Vector, bool) {
	cur := g.Loader.Current()
	if cur == nil {
		return cp.Vector{}, false
	}
	return cur.Point(name)
}

func (g *Game) HeroPosition() (cp.Vector, bool) {
	hero, ok := g.World.Hero()
	if !ok {
		return cp.Vector{}, false
	}
	return g.World.PositionOf(hero)
}

func (g *Game) SetDoor(x, y int, open bool) bool {
	cur := g.Loader.Current()
	if cur == nil {
		return false
	}
	return cur.SetDoor(x, y, open)
}

func (g *Game) Player() int { return g.Loader.Player() }

// DoorOpen reports whether the door on tile c of the current level is open.
func (g *Game) DoorOpen(c tile.Coord) (open, found bool) {
	cur := g.Loader.Current()
	if cur == nil {
		return false, false
	}
	d, ok := cur.Tiles().DoorAt(c)
	if !ok {
		return false, false
	}
	return d.IsOpen(), true
}

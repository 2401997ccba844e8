package puzzle

import (
	"errors"
	"fmt"

	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/component"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/entity"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/escaperoom/dungeon/internal/system"
	"github.com/escaperoom/dungeon/internal/tile"
	"github.com/escaperoom/dungeon/internal/world"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

var (
	ErrEmptyCombination    = errors.New("lever puzzle: empty target combination")
	ErrCombinationMismatch = errors.New("lever puzzle: target combination length differs from lever count")
)

// Env is what a puzzle may touch while loaded.
type Env struct {
	World   *world.State
	Factory *entity.Factory
	Tiles   *tile.Map
	Store   *persist.Store
	Sounds  audio.Player
	Log     *zap.Logger
}

// Hint is a text placed relative to the puzzle anchor.
type Hint struct {
	Text   string
	Offset cp.Vector
}

// LeverConfig describes a row of levers that opens a door when set to the
// target combination.
type LeverConfig struct {
	Tag        string // save key tag
	Levers     int
	Spacing    float64   // distance between neighbouring levers
	DoorOffset cp.Vector // from the anchor
	Target     []bool
	Hints      map[int][]Hint // per player; 0 applies to any player without its own
	HintStyle  entity.HintStyle

	// RepelRadius > 0 makes levers slide away from an approaching hero.
	RepelRadius   float64
	RepelStrength float64
}

func (c LeverConfig) validate() error {
	if len(c.Target) == 0 {
		return ErrEmptyCombination
	}
	if c.Levers != len(c.Target) {
		return fmt.Errorf("%w: %d levers, %d target entries", ErrCombinationMismatch, c.Levers, len(c.Target))
	}
	if c.Tag == "" {
		return errors.New("lever puzzle: empty tag")
	}
	return nil
}

// LeverPuzzle is a row of levers that must all match a target combination
// for the door to open. The lever states are saved per player.
type LeverPuzzle struct {
	cfg    LeverConfig
	anchor cp.Vector
	env    Env
	log    *zap.Logger

	state   *[]bool
	levers  []ecs.EntityID
	hints   []ecs.EntityID
	door    *tile.Door
	matched bool
}

// NewLeverPuzzle validates cfg. An invalid combination is a configuration
// error and is returned as such.
func NewLeverPuzzle(cfg LeverConfig, anchor cp.Vector, env Env) (*LeverPuzzle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Spacing == 0 {
		cfg.Spacing = 3
	}
	if cfg.HintStyle == (entity.HintStyle{}) {
		cfg.HintStyle = entity.DefaultHintStyle
	}
	log := env.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &LeverPuzzle{
		cfg:    cfg,
		anchor: anchor,
		env:    env,
		log:    log.With(zap.String("puzzle", cfg.Tag)),
	}, nil
}

func (p *LeverPuzzle) Name() string      { return p.cfg.Tag }
func (p *LeverPuzzle) Anchor() cp.Vector { return p.anchor }

// LoadResources fetches the saved lever states for player.
func (p *LeverPuzzle) LoadResources(player int) {
	key := persist.Key{Owner: player, Tag: p.cfg.Tag}
	def := make([]bool, p.cfg.Levers)
	p.state = persist.Resource(p.env.Store, key, def)
	if len(*p.state) != p.cfg.Levers {
		p.log.Warn("saved lever states have the wrong length, resetting",
			zap.Int("saved", len(*p.state)), zap.Int("levers", p.cfg.Levers))
		p.state = persist.SetResource(p.env.Store, key, def)
	}
}

// CreateSystems asks for hint fading when the player gets hints.
func (p *LeverPuzzle) CreateSystems(player int) []coresys.System {
	if len(p.hintsFor(player)) == 0 {
		return nil
	}
	return []coresys.System{system.NewHintFadeSystem(p.env.World)}
}

func (p *LeverPuzzle) hintsFor(player int) []Hint {
	if hints, ok := p.cfg.Hints[player]; ok {
		return hints
	}
	return p.cfg.Hints[0]
}

func (p *LeverPuzzle) LoadEntities(player int) {
	cmd := component.LeverCommand{Execute: p.check, Undo: p.check}
	mid := float64(p.cfg.Levers-1) / 2
	for i := 0; i < p.cfg.Levers; i++ {
		pos := p.anchor.Add(cp.Vector{X: (float64(i) - mid) * p.cfg.Spacing})
		id := p.env.Factory.Lever(pos, cmd)
		if p.cfg.RepelRadius > 0 {
			p.addRepel(id)
		}
		p.levers = append(p.levers, id)
	}

	if p.env.Tiles != nil {
		if d, ok := p.env.Tiles.PlaceDoor(p.anchor.Add(p.cfg.DoorOffset)); ok {
			d.Close()
			p.door = d
		} else {
			p.log.Warn("door position outside the level, puzzle has no door")
		}
	}

	for _, h := range p.hintsFor(player) {
		p.hints = append(p.hints, p.env.Factory.Hint(h.Text, p.anchor.Add(h.Offset), p.cfg.HintStyle))
	}

	for i, id := range p.levers {
		if (*p.state)[i] {
			system.SetLever(p.env.World, id, true)
		}
	}
	p.check()
}

func (p *LeverPuzzle) UnloadEntities(int) {
	for _, id := range p.levers {
		p.env.World.Destroy(id)
	}
	for _, id := range p.hints {
		p.env.World.Destroy(id)
	}
	p.levers = nil
	p.hints = nil
	if p.door != nil && p.env.Tiles != nil {
		p.env.Tiles.RemoveDoor(p.door.At)
	}
	p.door = nil
	p.matched = false
}

// check compares the levers with the target, saves their states and drives
// the door. The door sound plays only when the combination becomes correct.
func (p *LeverPuzzle) check() {
	match := true
	for i, id := range p.levers {
		on := false
		if lc, ok := p.env.World.Levers.Get(id); ok {
			on = lc.On
		}
		(*p.state)[i] = on
		match = match && on == p.cfg.Target[i]
	}

	if match && !p.matched && p.env.Sounds != nil {
		p.env.Sounds.Play(audio.DoorOpened)
	}
	p.matched = match
	if p.door != nil {
		if match {
			p.door.Open()
		} else {
			p.door.Close()
		}
	}
}

// addRepel pushes the lever away from the hero while the hero is within
// RepelRadius, stronger the closer the hero gets.
func (p *LeverPuzzle) addRepel(id ecs.EntityID) {
	hero, _ := p.env.World.Hero()
	radius := p.cfg.RepelRadius
	strength := p.cfg.RepelStrength
	if strength == 0 {
		strength = 0.25
	}
	// A lever carries the tint link from the factory; the repel link replaces it.
	p.env.World.Vicinities.Set(id, &component.Vicinity{
		Target: hero,
		Radius: radius,
		Command: component.VicinityCommand{
			OnInRange: func(distance float64) {
				if distance == 0 {
					return
				}
				pos, ok := p.env.World.PositionOf(id)
				if !ok {
					return
				}
				heroPos, ok := p.env.World.PositionOf(hero)
				if !ok {
					return
				}
				away := pos.Sub(heroPos).Normalize()
				p.env.World.MoveTo(id, pos.Add(away.Mult(strength*(1-distance/radius))))
			},
		},
	})
}

// States returns a copy of the current lever states.
func (p *LeverPuzzle) States() []bool {
	if p.state == nil {
		return nil
	}
	return append([]bool(nil), (*p.state)...)
}

// Levers returns the lever entities in position order.
func (p *LeverPuzzle) Levers() []ecs.EntityID { return append([]ecs.EntityID(nil), p.levers...) }

func (p *LeverPuzzle) Hints() []ecs.EntityID { return append([]ecs.EntityID(nil), p.hints...) }

func (p *LeverPuzzle) Door() *tile.Door { return p.door }

// Solved reports whether the levers match the target.
func (p *LeverPuzzle) Solved() bool { return p.matched }

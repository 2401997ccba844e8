package world

import (
	"github.com/escaperoom/dungeon/internal/component"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/jakecoffman/cp"
)

// State holds the live entities of the running game and their components.
// Accessed only from the frame loop goroutine; no locks needed.
type State struct {
	ecs *ecs.World

	Positions    *ecs.PtrComponentStore[component.Position]
	Vicinities   *ecs.PtrComponentStore[component.Vicinity]
	Levers       *ecs.PtrComponentStore[component.Lever]
	Draws        *ecs.PtrComponentStore[component.Draw]
	Texts        *ecs.PtrComponentStore[component.Text]
	Keypads      *ecs.PtrComponentStore[component.Keypad]
	ShowImages   *ecs.PtrComponentStore[component.ShowImage]
	Interactions *ecs.PtrComponentStore[component.Interaction]

	hero ecs.EntityID
}

func NewState() *State {
	w := ecs.NewWorld()
	return &State{
		ecs:          w,
		Positions:    ecs.NewStore[component.Position](w),
		Vicinities:   ecs.NewStore[component.Vicinity](w),
		Levers:       ecs.NewStore[component.Lever](w),
		Draws:        ecs.NewStore[component.Draw](w),
		Texts:        ecs.NewStore[component.Text](w),
		Keypads:      ecs.NewStore[component.Keypad](w),
		ShowImages:   ecs.NewStore[component.ShowImage](w),
		Interactions: ecs.NewStore[component.Interaction](w),
	}
}

func (s *State) ECS() *ecs.World { return s.ecs }

// Spawn creates an entity standing at pos.
func (s *State) Spawn(pos cp.Vector) ecs.EntityID {
	id := s.ecs.CreateEntity()
	s.Positions.Set(id, &component.Position{Point: pos})
	return id
}

// Destroy removes an entity and its components immediately. Stale ids are
// ignored.
func (s *State) Destroy(id ecs.EntityID) {
	if id == s.hero {
		s.hero = 0
	}
	s.ecs.Destroy(id)
}

func (s *State) Alive(id ecs.EntityID) bool { return s.ecs.Alive(id) }

// PositionOf resolves an entity's position. It fails for destroyed entities
// and for entities without a Position.
func (s *State) PositionOf(id ecs.EntityID) (cp.Vector, bool) {
	if !s.ecs.Alive(id) {
		return cp.Vector{}, false
	}
	pc, ok := s.Positions.Get(id)
	if !ok {
		return cp.Vector{}, false
	}
	return pc.Point, true
}

// MoveTo sets the position of a live entity.
func (s *State) MoveTo(id ecs.EntityID, pos cp.Vector) bool {
	pc, ok := s.Positions.Get(id)
	if !ok || !s.ecs.Alive(id) {
		return false
	}
	pc.Point = pos
	return true
}

// SpawnHero creates the player-controlled entity, replacing any previous one.
func (s *State) SpawnHero(pos cp.Vector) ecs.EntityID {
	if s.hero != 0 {
		s.ecs.Destroy(s.hero)
	}
	s.hero = s.Spawn(pos)
	return s.hero
}

// Hero returns the hero entity if one is alive.
func (s *State) Hero() (ecs.EntityID, bool) {
	if s.hero == 0 || !s.ecs.Alive(s.hero) {
		return 0, false
	}
	return s.hero, true
}

// SetAnimation switches the entity's current animation. Entities without a
// Draw component are left alone.
func (s *State) SetAnimation(id ecs.EntityID, name string) {
	if dc, ok := s.Draws.Get(id); ok {
		dc.Animation = name
	}
}

// SetTint sets the entity's draw tint; 0 clears it.
func (s *State) SetTint(id ecs.EntityID, rgba uint32) {
	if dc, ok := s.Draws.Get(id); ok {
		dc.Tint = rgba
	}
}

// EntityCount returns the number of live entities, the hero included.
func (s *State) EntityCount() int { return s.ecs.Pool().Live() }

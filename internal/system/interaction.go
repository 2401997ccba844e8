package system

import (
	"math"
	"time"

	"github.com/escaperoom/dungeon/internal/core/ecs"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/world"
	"go.uber.org/zap"
)

// InteractionSystem resolves the hero's interact action. Requests are queued
// by Request and handled at the start of the next frame: the closest usable
// entity whose interaction radius covers the hero receives the callback.
// Phase 0 (Input).
type InteractionSystem struct {
	world  *world.State
	paused func() bool
	log    *zap.Logger

	requested bool
}

// NewInteractionSystem builds the system. paused may be nil; while it
// returns true requests are discarded.
func NewInteractionSystem(ws *world.State, paused func() bool, log *zap.Logger) *InteractionSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &InteractionSystem{world: ws, paused: paused, log: log}
}

func (s *InteractionSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Request queues one interact action for the next frame.
func (s *InteractionSystem) Request() { s.requested = true }

func (s *InteractionSystem) Update(_ time.Duration) {
	if !s.requested {
		return
	}
	s.requested = false
	if s.paused != nil && s.paused() {
		s.log.Debug("interaction dropped during transition")
		return
	}
	hero, ok := s.world.Hero()
	if !ok {
		return
	}
	target, ok := s.Nearest(hero)
	if !ok {
		return
	}
	ic, _ := s.world.Interactions.Get(target)
	if !ic.Repeatable {
		ic.Used = true
	}
	if ic.OnInteract != nil {
		ic.OnInteract(target, hero)
	}
}

// Nearest returns the closest entity the hero can use. Ties go to the lower
// entity id.
func (s *InteractionSystem) Nearest(hero ecs.EntityID) (ecs.EntityID, bool) {
	heroPos, ok := s.world.PositionOf(hero)
	if !ok {
		return 0, false
	}
	best := ecs.EntityID(0)
	bestDist := math.Inf(1)
	for _, id := range s.world.Interactions.IDs() {
		if id == hero {
			continue
		}
		ic, _ := s.world.Interactions.Get(id)
		if ic.Used && !ic.Repeatable {
			continue
		}
		pos, ok := s.world.PositionOf(id)
		if !ok {
			continue
		}
		d := pos.Distance(heroPos)
		if d <= ic.Radius && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != 0
}

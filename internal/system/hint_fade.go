package system

import (
	"time"

	"github.com/escaperoom/dungeon/internal/component"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/world"
)

// HintFadeSystem fades world texts by their distance to the hero. Texts stay
// untouched while no hero exists. Phase 2 (Update).
type HintFadeSystem struct {
	world *world.State
}

func NewHintFadeSystem(ws *world.State) *HintFadeSystem {
	return &HintFadeSystem{world: ws}
}

func (s *HintFadeSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *HintFadeSystem) Update(_ time.Duration) {
	hero, ok := s.world.Hero()
	if !ok {
		return
	}
	heroPos, ok := s.world.PositionOf(hero)
	if !ok {
		return
	}
	s.world.Texts.Each(func(id ecs.EntityID, t *component.Text) {
		pos, ok := s.world.PositionOf(id)
		if !ok {
			return
		}
		t.Alpha = t.FadeAt(pos.Distance(heroPos))
	})
}

package system

import (
	"time"

	"github.com/escaperoom/dungeon/internal/component"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/world"
)

// VicinitySystem evaluates every proximity link once per frame. Enter and
// leave callbacks fire on the frame the in-range flag flips; the in-range
// callback fires on every frame the target is within the radius, the entering
// frame included. Phase 2 (Update).
type VicinitySystem struct {
	world *world.State
}

func NewVicinitySystem(ws *world.State) *VicinitySystem {
	return &VicinitySystem{world: ws}
}

func (s *VicinitySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *VicinitySystem) Update(_ time.Duration) {
	ecs.Sorted2(s.world.Positions, s.world.Vicinities, s.evaluate)
}

func (s *VicinitySystem) evaluate(_ ecs.EntityID, pos *component.Position, v *component.Vicinity) {
	target, ok := s.world.PositionOf(v.Target)
	if !ok {
		return // target gone or not placed yet
	}
	distance := pos.Point.Distance(target)
	inRange := distance <= v.Radius

	cmd := v.Command
	if inRange != v.InRange {
		if inRange {
			if cmd.OnEnterRange != nil {
				cmd.OnEnterRange()
			}
		} else if cmd.OnLeaveRange != nil {
			cmd.OnLeaveRange()
		}
	}
	if inRange && cmd.OnInRange != nil {
		cmd.OnInRange(distance)
	}
	v.InRange = inRange
}

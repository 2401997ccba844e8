package component

import "github.com/escaperoom/dungeon/internal/core/ecs"

// VicinityCommand holds the callbacks of a proximity link. Nil slots are
// skipped.
type VicinityCommand struct {
	OnEnterRange func()
	OnLeaveRange func()
	OnInRange    func(distance float64)
}

// Vicinity links the owning entity to a watched target. InRange is the state
// seen on the previous frame and is only written by VicinitySystem.
type Vicinity struct {
	Target  ecs.EntityID
	Radius  float64
	Command VicinityCommand
	InRange bool
}

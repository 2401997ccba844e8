package component

import "github.com/escaperoom/dungeon/internal/core/ecs"

// Interaction makes an entity usable by the hero's interact action.
type Interaction struct {
	Radius     float64
	Repeatable bool
	Used       bool
	OnInteract func(self, who ecs.EntityID)
}

package component

import (
	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/keypad"
)

// Keypad attaches a digit lock to an entity. UIOpen is the requested dialog
// state; Overlay is the dialog entity while it is shown.
type Keypad struct {
	State   *keypad.State
	UIOpen  bool
	Overlay ecs.EntityID
}

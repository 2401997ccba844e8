package system

import (
	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/world"
)

// ToggleLever flips a lever and runs its command: Execute when it turns on,
// Undo when it turns off. The draw animation follows the lever state.
func ToggleLever(ws *world.State, id ecs.EntityID) bool {
	lc, ok := ws.Levers.Get(id)
	if !ok {
		return false
	}
	lc.On = !lc.On
	ws.SetAnimation(id, animationFor(lc.On))
	if lc.On {
		if lc.Command.Execute != nil {
			lc.Command.Execute()
		}
	} else if lc.Command.Undo != nil {
		lc.Command.Undo()
	}
	return true
}

// SetLever puts a lever into the given state without running its command.
// Used when restoring saved puzzle state.
func SetLever(ws *world.State, id ecs.EntityID, on bool) bool {
	lc, ok := ws.Levers.Get(id)
	if !ok {
		return false
	}
	lc.On = on
	ws.SetAnimation(id, animationFor(on))
	return true
}

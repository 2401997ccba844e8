package system

import (
	"strconv"
	"time"

	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/core/event"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/world"
	"go.uber.org/zap"
)

// KeypadButtons is the dialog layout, row by row.
var KeypadButtons = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "Back", "0", "Submit"}

// KeypadSystem keeps each keypad's dialog overlay in step with its UIOpen
// flag: an overlay entity is created when the dialog should be shown and
// destroyed when it should not. The widget layer follows KeypadOpened and
// KeypadClosed. Phase 2 (Update).
type KeypadSystem struct {
	world *world.State
	bus   *event.Bus
	log   *zap.Logger
}

func NewKeypadSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *KeypadSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &KeypadSystem{world: ws, bus: bus, log: log}
}

func (s *KeypadSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *KeypadSystem) Update(_ time.Duration) {
	for _, id := range s.world.Keypads.IDs() {
		kc, ok := s.world.Keypads.Get(id)
		if !ok {
			continue
		}
		switch {
		case kc.UIOpen && kc.Overlay == 0:
			kc.Overlay = s.world.ECS().CreateEntity()
			event.Emit(s.bus, event.KeypadOpened{Keypad: id, Overlay: kc.Overlay})
		case !kc.UIOpen && kc.Overlay != 0:
			overlay := kc.Overlay
			s.world.Destroy(overlay)
			kc.Overlay = 0
			event.Emit(s.bus, event.KeypadClosed{Keypad: id, Overlay: overlay})
		}
	}
}

// OpenKeypad requests the dialog of a keypad entity.
func OpenKeypad(ws *world.State, id ecs.EntityID) bool {
	kc, ok := ws.Keypads.Get(id)
	if !ok {
		return false
	}
	kc.UIOpen = true
	ws.SetAnimation(id, "on")
	return true
}

// CloseKeypad hides the dialog of a keypad entity. The keypad goes dark again
// unless it was unlocked.
func CloseKeypad(ws *world.State, id ecs.EntityID) {
	if kc, ok := ws.Keypads.Get(id); ok {
		kc.UIOpen = false
		ws.SetAnimation(id, animationFor(kc.State != nil && kc.State.Unlocked()))
	}
}

// PressKeypadButton applies a dialog button to the keypad entity. Digits
// append, "Back" deletes, "Submit" checks the code and switches the keypad
// animation. Unknown labels are ignored. It reports whether the keypad exists.
func PressKeypadButton(ws *world.State, sounds audio.Player, log *zap.Logger, id ecs.EntityID, label string) bool {
	kc, ok := ws.Keypads.Get(id)
	if !ok || kc.State == nil {
		return false
	}
	if log != nil {
		log.Debug("keypad button", zap.Uint64("keypad", uint64(id)), zap.String("button", label))
	}
	if d, err := strconv.Atoi(label); err == nil && d >= 0 && d <= 9 {
		if kc.State.AddDigit(d) && sounds != nil {
			sounds.Play(audio.KeypadButtonClicked)
		}
		return true
	}
	switch label {
	case "Back":
		kc.State.Backspace()
	case "Submit":
		if kc.State.Unlocked() {
			return true
		}
		unlocked := kc.State.CheckUnlock()
		ws.SetAnimation(id, animationFor(unlocked))
		if sounds != nil {
			if unlocked {
				sounds.Play(audio.KeypadUnlocked)
			} else {
				sounds.Play(audio.KeypadWrong)
			}
		}
	}
	return true
}

func animationFor(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

package system

import (
	"time"

	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/core/event"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/world"
	"go.uber.org/zap"
)

// ShowImageSystem keeps each picture view in step with its UIOpen flag, the
// same way KeypadSystem handles keypad dialogs. OnOpen runs after the overlay
// exists, OnClose after it is gone. Phase 2 (Update).
type ShowImageSystem struct {
	world *world.State
	bus   *event.Bus
	log   *zap.Logger
}

func NewShowImageSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *ShowImageSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShowImageSystem{world: ws, bus: bus, log: log}
}

func (s *ShowImageSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ShowImageSystem) Update(_ time.Duration) {
	for _, id := range s.world.ShowImages.IDs() {
		sc, ok := s.world.ShowImages.Get(id)
		if !ok {
			continue
		}
		switch {
		case sc.UIOpen && sc.Overlay == 0:
			sc.Overlay = s.world.ECS().CreateEntity()
			s.log.Debug("image shown", zap.Uint64("entity", uint64(id)), zap.String("image", sc.ImagePath))
			if s.bus != nil {
				event.Emit(s.bus, event.ImageShown{Entity: id, Overlay: sc.Overlay, ImagePath: sc.ImagePath, MaxSize: sc.MaxSize})
			}
			if sc.OnOpen != nil {
				sc.OnOpen(id, sc.Overlay)
			}
		case !sc.UIOpen && sc.Overlay != 0:
			overlay := sc.Overlay
			s.world.Destroy(overlay)
			sc.Overlay = 0
			if s.bus != nil {
				event.Emit(s.bus, event.ImageHidden{Entity: id, Overlay: overlay})
			}
			if sc.OnClose != nil {
				sc.OnClose(id, overlay)
			}
		}
	}
}

// OpenImage requests the picture view of an entity.
func OpenImage(ws *world.State, id ecs.EntityID) bool {
	sc, ok := ws.ShowImages.Get(id)
	if !ok {
		return false
	}
	sc.UIOpen = true
	return true
}

func CloseImage(ws *world.State, id ecs.EntityID) {
	if sc, ok := ws.ShowImages.Get(id); ok {
		sc.UIOpen = false
	}
}

// SetImagePath swaps the picture of an entity. An open view picks it up on
// its next draw.
func SetImagePath(ws *world.State, id ecs.EntityID, path string) bool {
	sc, ok := ws.ShowImages.Get(id)
	if !ok {
		return false
	}
	sc.ImagePath = path
	return true
}

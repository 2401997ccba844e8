package component

import "github.com/escaperoom/dungeon/internal/core/ecs"

// ShowImage attaches a full-screen picture to an entity. UIOpen is the
// requested view state; Overlay is the view entity while it is shown.
// ImagePath may change while the view is open.
type ShowImage struct {
	ImagePath string
	MaxSize   float64 // share of the screen the picture may cover
	UIOpen    bool
	Overlay   ecs.EntityID

	OnOpen  func(self, overlay ecs.EntityID)
	OnClose func(self, overlay ecs.EntityID)
}

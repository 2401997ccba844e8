// Package entity builds the interactive objects placed by levels and
// puzzles.
package entity

import (
	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/component"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/keypad"
	"github.com/escaperoom/dungeon/internal/system"
	"github.com/escaperoom/dungeon/internal/world"
	"github.com/jakecoffman/cp"
)

// Tints, RGBA8888.
const (
	TintHighlight uint32 = 0x9999FFFF
	TintActive    uint32 = 0x00FF00FF
)

const (
	LeverRadius      = 1.5
	KeypadRadius     = 2.0
	TeleporterRadius = 2.0
	ShowImageRadius  = 1.5
)

// DefaultImageSize is the share of the screen a picture may cover.
const DefaultImageSize = 0.85

// Factory places entities into a world. Proximity effects follow the hero
// alive at creation time.
type Factory struct {
	World  *world.State
	Sounds audio.Player
}

func New(ws *world.State, sounds audio.Player) *Factory {
	return &Factory{World: ws, Sounds: sounds}
}

func (f *Factory) hero() ecs.EntityID {
	id, _ := f.World.Hero()
	return id
}

// tintNearby highlights an entity while the hero is within radius.
func (f *Factory) tintNearby(id ecs.EntityID, radius float64, tint uint32) {
	f.World.Vicinities.Set(id, &component.Vicinity{
		Target: f.hero(),
		Radius: radius,
		Command: component.VicinityCommand{
			OnEnterRange: func() { f.World.SetTint(id, tint) },
			OnLeaveRange: func() { f.World.SetTint(id, 0) },
		},
	})
}

// Lever places an off lever on tile pos. Using it flips it, runs cmd and plays
// the flip sound.
func (f *Factory) Lever(pos cp.Vector, cmd component.LeverCommand) ecs.EntityID {
	id := f.World.Spawn(component.Offset(pos))
	f.World.Draws.Set(id, &component.Draw{Animation: "off", Animations: []string{"off", "on"}})
	f.World.Levers.Set(id, &component.Lever{Command: cmd})
	f.tintNearby(id, LeverRadius, TintHighlight)
	f.World.Interactions.Set(id, &component.Interaction{
		Radius:     LeverRadius,
		Repeatable: true,
		OnInteract: func(self, _ ecs.EntityID) {
			system.ToggleLever(f.World, self)
			if f.Sounds != nil {
				f.Sounds.Play(audio.LeverFlipped)
			}
		},
	})
	return id
}

// Teleporter places a teleporter on tile pos that calls use when the hero
// interacts with it. It glows while the hero is close.
func (f *Factory) Teleporter(pos cp.Vector, use func()) ecs.EntityID {
	id := f.World.Spawn(component.Offset(pos))
	f.World.Draws.Set(id, &component.Draw{Animation: "teleporter"})
	f.tintNearby(id, TeleporterRadius, TintActive)
	f.World.Interactions.Set(id, &component.Interaction{
		Radius:     TeleporterRadius,
		Repeatable: true,
		OnInteract: func(_, _ ecs.EntityID) {
			if use != nil {
				use()
			}
		},
	})
	return id
}

// Keypad places a keypad on tile pos. Interacting opens its dialog; action
// runs once the right code is submitted.
func (f *Factory) Keypad(pos cp.Vector, code []int, action func(), showDigitCount bool) ecs.EntityID {
	id := f.World.Spawn(component.Offset(pos))
	f.World.Draws.Set(id, &component.Draw{Animation: "off", Animations: []string{"off", "on"}})
	f.World.Keypads.Set(id, &component.Keypad{State: keypad.New(code, action, showDigitCount)})
	f.World.Interactions.Set(id, &component.Interaction{
		Radius:     KeypadRadius,
		Repeatable: true,
		OnInteract: func(self, _ ecs.EntityID) {
			system.OpenKeypad(f.World, self)
		},
	})
	return id
}

// ShowImage places an object drawn with sprite on tile pos. Using it opens a
// full-screen view of image; onClose, if set, runs when the view is closed.
// maxSize <= 0 means DefaultImageSize.
func (f *Factory) ShowImage(pos cp.Vector, sprite, image string, maxSize float64, onClose func(self, overlay ecs.EntityID)) ecs.EntityID {
	if maxSize <= 0 {
		maxSize = DefaultImageSize
	}
	id := f.World.Spawn(component.Offset(pos))
	f.World.Draws.Set(id, &component.Draw{Animation: sprite})
	f.World.ShowImages.Set(id, &component.ShowImage{ImagePath: image, MaxSize: maxSize, OnClose: onClose})
	f.tintNearby(id, ShowImageRadius, TintHighlight)
	f.World.Interactions.Set(id, &component.Interaction{
		Radius:     ShowImageRadius,
		Repeatable: true,
		OnInteract: func(self, _ ecs.EntityID) {
			system.OpenImage(f.World, self)
		},
	})
	return id
}

// HintStyle is how a world-space hint text is drawn.
type HintStyle struct {
	Scale     float64
	Color     uint32
	MaxRadius float64
	MinAlpha  float64
}

var DefaultHintStyle = HintStyle{Scale: 0.7, Color: 0xFFFFFFFF, MaxRadius: 7, MinAlpha: 0.3}

// Hint places a text label at pos.
func (f *Factory) Hint(text string, pos cp.Vector, style HintStyle) ecs.EntityID {
	id := f.World.Spawn(pos)
	f.World.Texts.Set(id, &component.Text{
		Text:      text,
		Scale:     style.Scale,
		Color:     style.Color,
		MaxRadius: style.MaxRadius,
		MinAlpha:  style.MinAlpha,
		Alpha:     1,
	})
	return id
}

// HintAlpha is the opacity of a hint seen from distance.
func HintAlpha(t *component.Text, distance float64) float64 {
	return t.FadeAt(distance)
}

// Label places a fixed caption at pos. Labels never fade.
func (f *Factory) Label(text string, pos cp.Vector, scale float64) ecs.EntityID {
	if scale <= 0 {
		scale = 1
	}
	id := f.World.Spawn(pos)
	f.World.Texts.Set(id, &component.Text{Text: text, Scale: scale, Color: 0xFFFFFFFF, Alpha: 1})
	return id
}

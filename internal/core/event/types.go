package event

import "github.com/escaperoom/dungeon/internal/core/ecs"

// SoundRequested asks the audio collaborator to play a named sound.
type SoundRequested struct {
	Sound    string
	Path     string
	MinPitch float64
	MaxPitch float64
}

// LevelLoaded is emitted after the level loader swapped the current level.
type LevelLoaded struct {
	Label  string
	Player int
}

// KeypadOpened and KeypadClosed tell the widget layer to show or hide the
// keypad dialog for an entity.
type KeypadOpened struct {
	Keypad  ecs.EntityID
	Overlay ecs.EntityID
}

type KeypadClosed struct {
	Keypad  ecs.EntityID
	Overlay ecs.EntityID
}

// ImageShown and ImageHidden tell the widget layer to show or hide the
// picture view of an entity.
type ImageShown struct {
	Entity    ecs.EntityID
	Overlay   ecs.EntityID
	ImagePath string
	MaxSize   float64
}

type ImageHidden struct {
	Entity  ecs.EntityID
	Overlay ecs.EntityID
}

// TransitionFinished is emitted when a screen transition returns to waiting.
type TransitionFinished struct {
	Message string
}

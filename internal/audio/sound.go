// Package audio is the fire-and-forget boundary to the sound collaborator.
package audio

import (
	"errors"
	"math/rand"

	"github.com/escaperoom/dungeon/internal/core/event"
)

// Sound names a sound effect asset.
type Sound int

const (
	FootSteps Sound = iota
	KeypadButtonClicked
	KeypadUnlocked
	KeypadWrong
	LeverFlipped
	DoorOpened
)

var soundFiles = map[Sound]string{
	FootSteps:           "footsteps/retro",
	KeypadButtonClicked: "retro-beep-01",
	KeypadUnlocked:      "retro-event-ui-01",
	KeypadWrong:         "retro-event-wrong",
	LeverFlipped:        "wood-block-1",
	DoorOpened:          "creaky-door-open",
}

var soundNames = map[Sound]string{
	FootSteps:           "FootSteps",
	KeypadButtonClicked: "KeypadButtonClicked",
	KeypadUnlocked:      "KeypadUnlocked",
	KeypadWrong:         "KeypadWrong",
	LeverFlipped:        "LeverFlipped",
	DoorOpened:          "DoorOpened",
}

func (s Sound) String() string {
	if n, ok := soundNames[s]; ok {
		return n
	}
	return "Unknown"
}

// Path returns the asset path of the sound.
func (s Sound) Path() string {
	return "sounds/" + soundFiles[s] + ".wav"
}

// ParseSound looks a sound up by its String name.
func ParseSound(name string) (Sound, bool) {
	for s, n := range soundNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// ErrNoSounds is returned by PlayOneOf for an empty candidate list.
var ErrNoSounds = errors.New("audio: no sounds to choose from")

// Player plays sounds. Calls never block and never fail.
type Player interface {
	Play(s Sound)
	PlayPitched(s Sound, minPitch, maxPitch float64)
}

// PlayOneOf plays a random element of sounds.
func PlayOneOf(p Player, rng *rand.Rand, sounds ...Sound) error {
	if len(sounds) == 0 {
		return ErrNoSounds
	}
	var i int
	if rng != nil {
		i = rng.Intn(len(sounds))
	} else {
		i = rand.Intn(len(sounds))
	}
	p.Play(sounds[i])
	return nil
}

// BusPlayer forwards sound requests to the event bus, where the platform audio
// layer subscribes to SoundRequested.
type BusPlayer struct {
	bus *event.Bus
}

func NewBusPlayer(bus *event.Bus) *BusPlayer {
	return &BusPlayer{bus: bus}
}

func (p *BusPlayer) Play(s Sound) { p.PlayPitched(s, 1, 1) }

func (p *BusPlayer) PlayPitched(s Sound, minPitch, maxPitch float64) {
	event.Emit(p.bus, event.SoundRequested{
		Sound:    s.String(),
		Path:     s.Path(),
		MinPitch: minPitch,
		MaxPitch: maxPitch,
	})
}

// Recorder is a Player that remembers what it was asked to play.
type Recorder struct {
	Played []Sound
}

func (r *Recorder) Play(s Sound)                      { r.Played = append(r.Played, s) }
func (r *Recorder) PlayPitched(s Sound, _, _ float64) { r.Play(s) }
func (r *Recorder) Count(s Sound) int {
	n := 0
	for _, p := range r.Played {
		if p == s {
			n++
		}
	}
	return n
}

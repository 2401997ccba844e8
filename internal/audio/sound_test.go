package audio

import (
	"math/rand"
	"testing"

	"github.com/escaperoom/dungeon/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoundPath(t *testing.T) {
	assert.Equal(t, "sounds/footsteps/retro.wav", FootSteps.Path())
	assert.Equal(t, "sounds/creaky-door-open.wav", DoorOpened.Path())
	assert.Equal(t, "LeverFlipped", LeverFlipped.String())
	assert.Equal(t, "Unknown", Sound(99).String())
}

func TestParseSound(t *testing.T) {
	s, ok := ParseSound("KeypadWrong")
	require.True(t, ok)
	assert.Equal(t, KeypadWrong, s)

	_, ok = ParseSound("Trumpet")
	assert.False(t, ok)
}

func TestPlayOneOfEmpty(t *testing.T) {
	var rec Recorder
	err := PlayOneOf(&rec, nil)
	assert.ErrorIs(t, err, ErrNoSounds)
	assert.Empty(t, rec.Played)
}

func TestPlayOneOfPicksCandidate(t *testing.T) {
	var rec Recorder
	rng := rand.New(rand.NewSource(7))
	candidates := []Sound{KeypadWrong, KeypadUnlocked}
	for i := 0; i < 20; i++ {
		require.NoError(t, PlayOneOf(&rec, rng, candidates...))
	}
	require.Len(t, rec.Played, 20)
	for _, s := range rec.Played {
		assert.Contains(t, candidates, s)
	}
}

func TestBusPlayerEmits(t *testing.T) {
	bus := event.NewBus()
	var got []event.SoundRequested
	event.Subscribe(bus, func(e event.SoundRequested) { got = append(got, e) })

	p := NewBusPlayer(bus)
	p.Play(LeverFlipped)
	p.PlayPitched(FootSteps, 0.9, 1.1)
	assert.Empty(t, got, "delivered on the next frame")

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, got, 2)
	assert.Equal(t, "LeverFlipped", got[0].Sound)
	assert.Equal(t, "sounds/wood-block-1.wav", got[0].Path)
	assert.Equal(t, 1.0, got[0].MinPitch)
	assert.Equal(t, 0.9, got[1].MinPitch)
	assert.Equal(t, 1.1, got[1].MaxPitch)
}

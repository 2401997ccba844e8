package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_EventsAreReadableNextFrame(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e SoundRequested) { got = append(got, e.Sound) })

	Emit(b, SoundRequested{Sound: "DoorOpened"})
	b.DispatchAll()
	assert.Empty(t, got, "not visible before swap")
	assert.Equal(t, 1, Pending[SoundRequested](b))

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"DoorOpened"}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "delivered once")
}

func TestBus_DispatchFollowsFirstEmitOrder(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(LevelLoaded) { got = append(got, "level") })
	Subscribe(b, func(SoundRequested) { got = append(got, "sound") })

	Emit(b, SoundRequested{})
	Emit(b, LevelLoaded{})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, []string{"sound", "level"}, got)
}

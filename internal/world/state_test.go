package world

import (
	"testing"

	"github.com/escaperoom/dungeon/internal/component"
	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_PositionOfDestroyedEntityFails(t *testing.T) {
	s := NewState()
	id := s.Spawn(cp.Vector{X: 3, Y: 4})

	p, ok := s.PositionOf(id)
	require.True(t, ok)
	assert.Equal(t, cp.Vector{X: 3, Y: 4}, p)

	s.Destroy(id)
	_, ok = s.PositionOf(id)
	assert.False(t, ok)
	assert.False(t, s.Positions.Has(id))
}

func TestState_HeroLifecycle(t *testing.T) {
	s := NewState()
	_, ok := s.Hero()
	assert.False(t, ok)

	first := s.SpawnHero(cp.Vector{})
	second := s.SpawnHero(cp.Vector{X: 1})
	hero, ok := s.Hero()
	require.True(t, ok)
	assert.Equal(t, second, hero)
	assert.False(t, s.Alive(first))

	s.Destroy(hero)
	_, ok = s.Hero()
	assert.False(t, ok)
}

func TestState_SetAnimationAndTint(t *testing.T) {
	s := NewState()
	id := s.Spawn(cp.Vector{})
	s.SetAnimation(id, "on") // no Draw: ignored
	s.Draws.Set(id, &component.Draw{Animation: "off"})

	s.SetAnimation(id, "on")
	s.SetTint(id, 0x9999ffff)

	dc, _ := s.Draws.Get(id)
	assert.Equal(t, "on", dc.Animation)
	assert.Equal(t, uint32(0x9999ffff), dc.Tint)
	assert.Equal(t, 1, s.EntityCount())
}

package system

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/core/event"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/escaperoom/dungeon/internal/world"
	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistenceAutosave(t *testing.T) {
	ws := world.NewState()
	ws.SpawnHero(cp.Vector{X: 4, Y: 2})
	path := filepath.Join(t.TempDir(), "state.yaml")
	store := persist.NewStore(persist.NewFileBackend(path), nil)
	store.CurrentLevel = "Floor1"

	sys := NewPersistenceSystem(ws, store, func() bool { return true }, nil, 3)
	sys.Update(0)
	sys.Update(0)
	assert.NoFileExists(t, path)
	sys.Update(0)
	assert.FileExists(t, path)

	loaded := persist.NewStore(persist.NewFileBackend(path), nil)
	require.NoError(t, loaded.Load(context.Background()))
	require.NotNil(t, loaded.LastHeroPos)
	assert.Equal(t, cp.Vector{X: 4, Y: 2}, *loaded.LastHeroPos)
}

func TestPersistenceSkipsHeroInMenus(t *testing.T) {
	ws := world.NewState()
	ws.SpawnHero(cp.Vector{X: 9, Y: 9})
	store := persist.NewStore(persist.NewFileBackend(filepath.Join(t.TempDir(), "s.yaml")), nil)

	sys := NewPersistenceSystem(ws, store, func() bool { return false }, nil, 0)
	require.NoError(t, sys.SaveNow(context.Background()))
	assert.Nil(t, store.LastHeroPos)

	for i := 0; i < 10; i++ {
		sys.Update(0) // interval 0 never autosaves
	}
}

func TestCleanupFlushesQueue(t *testing.T) {
	ws := world.NewState()
	id := ws.Spawn(cp.Vector{})
	ws.ECS().MarkForDestruction(id)
	ws.ECS().MarkForDestruction(id)

	NewCleanupSystem(ws.ECS(), nil).Update(0)
	assert.False(t, ws.Alive(id))
	_, ok := ws.Positions.Get(id)
	assert.False(t, ok)
}

func TestEventDispatchDeliversPreviousFrame(t *testing.T) {
	bus := event.NewBus()
	var got []ecs.EntityID
	event.Subscribe(bus, func(e event.KeypadOpened) { got = append(got, e.Keypad) })
	sys := NewEventDispatchSystem(bus)

	event.Emit(bus, event.KeypadOpened{Keypad: 7})
	sys.Update(0)
	assert.Equal(t, []ecs.EntityID{7}, got)
	sys.Update(0)
	assert.Len(t, got, 1, "events are delivered once")
}

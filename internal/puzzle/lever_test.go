package puzzle

import (
	"testing"

	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/entity"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/escaperoom/dungeon/internal/system"
	"github.com/escaperoom/dungeon/internal/tile"
	"github.com/escaperoom/dungeon/internal/world"
	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var floorTarget = []bool{false, true, false, true, true}

type fixture struct {
	ws    *world.State
	env   Env
	rec   *audio.Recorder
	store *persist.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ws := world.NewState()
	ws.SpawnHero(cp.Vector{X: 100, Y: 100})
	rec := &audio.Recorder{}
	store := persist.NewStore(nil, nil)
	return &fixture{
		ws:    ws,
		rec:   rec,
		store: store,
		env: Env{
			World:   ws,
			Factory: entity.New(ws, rec),
			Tiles:   tile.NewMap(0, 0),
			Store:   store,
			Sounds:  rec,
		},
	}
}

func floorConfig() LeverConfig {
	return LeverConfig{
		Tag:        "Floor1LeversPuzzle",
		Levers:     5,
		Spacing:    3,
		DoorOffset: cp.Vector{Y: 3},
		Target:     floorTarget,
		Hints: map[int][]Hint{
			1: {{Text: "C = 5", Offset: cp.Vector{X: 25.5, Y: -3}}},
			2: {{Text: "B = 1", Offset: cp.Vector{X: 18.5, Y: 9.5}}, {Text: "A = 4", Offset: cp.Vector{X: -18, Y: -10}}},
		},
	}
}

func load(t *testing.T, f *fixture, cfg LeverConfig, player int) (*LeverPuzzle, *Controller) {
	t.Helper()
	p, err := NewLeverPuzzle(cfg, cp.Vector{X: 52, Y: 28}, f.env)
	require.NoError(t, err)
	c := NewController(p, player, nil, nil)
	c.Load()
	return p, c
}

func setLevers(f *fixture, p *LeverPuzzle, want []bool) {
	for i, id := range p.Levers() {
		lc, _ := f.ws.Levers.Get(id)
		if lc.On != want[i] {
			system.ToggleLever(f.ws, id)
		}
	}
}

func TestLeverPuzzleDoorOpensOnlyOnFullMatch(t *testing.T) {
	f := newFixture(t)
	p, _ := load(t, f, floorConfig(), 1)
	require.NotNil(t, p.Door())
	assert.Equal(t, tile.Coord{X: 52, Y: 31}, p.Door().At)
	assert.False(t, p.Door().IsOpen())

	setLevers(f, p, floorTarget)
	assert.True(t, p.Door().IsOpen())
	assert.True(t, p.Solved())

	for i := range floorTarget {
		system.ToggleLever(f.ws, p.Levers()[i])
		assert.False(t, p.Door().IsOpen(), "lever %d differs", i)
		system.ToggleLever(f.ws, p.Levers()[i])
		assert.True(t, p.Door().IsOpen())
	}
}

func TestLeverPuzzleDoorSoundOnlyOnEdge(t *testing.T) {
	f := newFixture(t)
	p, _ := load(t, f, floorConfig(), 1)
	assert.Zero(t, f.rec.Count(audio.DoorOpened))

	setLevers(f, p, floorTarget)
	assert.Equal(t, 1, f.rec.Count(audio.DoorOpened))

	// Re-checking while still correct does not replay.
	p.check()
	p.check()
	assert.Equal(t, 1, f.rec.Count(audio.DoorOpened))

	system.ToggleLever(f.ws, p.Levers()[0])
	system.ToggleLever(f.ws, p.Levers()[0])
	assert.Equal(t, 2, f.rec.Count(audio.DoorOpened), "closing and reopening is a new edge")
}

func TestLeverPuzzlePersistsEveryCheck(t *testing.T) {
	f := newFixture(t)
	p, _ := load(t, f, floorConfig(), 2)

	system.ToggleLever(f.ws, p.Levers()[3])
	saved := persist.Resource(f.store, persist.Key{Owner: 2, Tag: "Floor1LeversPuzzle"}, []bool(nil))
	assert.Equal(t, []bool{false, false, false, true, false}, *saved, "saved even when wrong")
	assert.Equal(t, *saved, p.States())
}

func TestLeverPuzzleRestoresSavedState(t *testing.T) {
	f := newFixture(t)
	persist.SetResource(f.store, persist.Key{Owner: 1, Tag: "Floor1LeversPuzzle"}, append([]bool(nil), floorTarget...))

	p, _ := load(t, f, floorConfig(), 1)
	for i, id := range p.Levers() {
		lc, _ := f.ws.Levers.Get(id)
		assert.Equal(t, floorTarget[i], lc.On)
	}
	assert.True(t, p.Door().IsOpen())
	assert.Equal(t, 1, f.rec.Count(audio.DoorOpened))
	assert.Zero(t, f.rec.Count(audio.LeverFlipped), "restoring does not flip audibly")
}

func TestLeverPuzzleResetsWrongLengthSave(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	f.env.Log = zap.New(core)
	persist.SetResource(f.store, persist.Key{Owner: 1, Tag: "Floor1LeversPuzzle"}, []bool{true})

	p, _ := load(t, f, floorConfig(), 1)
	assert.Equal(t, make([]bool, 5), p.States())
	assert.Equal(t, 1, logs.FilterMessage("saved lever states have the wrong length, resetting").Len())
}

func TestLeverPuzzleHintsPerPlayer(t *testing.T) {
	f := newFixture(t)
	p, _ := load(t, f, floorConfig(), 2)
	require.Len(t, p.Hints(), 2)
	tc, _ := f.ws.Texts.Get(p.Hints()[0])
	assert.Equal(t, "B = 1", tc.Text)
	pos, _ := f.ws.PositionOf(p.Hints()[0])
	assert.Equal(t, cp.Vector{X: 70.5, Y: 37.5}, pos)

	f2 := newFixture(t)
	cfg := floorConfig()
	cfg.Hints[0] = []Hint{{Text: "shared"}}
	p2, _ := load(t, f2, cfg, 3)
	require.Len(t, p2.Hints(), 1)
}

func TestLeverPuzzleUnloadIsInverseOfLoad(t *testing.T) {
	f := newFixture(t)
	before := f.ws.EntityCount()

	p, c := load(t, f, floorConfig(), 1)
	assert.Equal(t, before+5+1, f.ws.EntityCount())
	levers := p.Levers()

	c.Unload()
	assert.Equal(t, before, f.ws.EntityCount())
	for _, id := range levers {
		assert.False(t, f.ws.Alive(id))
	}
	_, ok := f.env.Tiles.DoorAt(tile.Coord{X: 52, Y: 31})
	assert.False(t, ok)

	c.Load()
	assert.Equal(t, before+5+1, f.ws.EntityCount(), "reload spawns the same set")
}

func TestLeverPuzzleDoorOutsideLevel(t *testing.T) {
	f := newFixture(t)
	f.env.Tiles = tile.NewMap(10, 10)
	p, _ := load(t, f, floorConfig(), 1)
	assert.Nil(t, p.Door())

	setLevers(f, p, floorTarget)
	assert.True(t, p.Solved())
}

func TestLeverPuzzleInvalidConfig(t *testing.T) {
	f := newFixture(t)
	cfg := floorConfig()
	cfg.Target = nil
	_, err := NewLeverPuzzle(cfg, cp.Vector{}, f.env)
	assert.ErrorIs(t, err, ErrEmptyCombination)

	cfg = floorConfig()
	cfg.Levers = 4
	_, err = NewLeverPuzzle(cfg, cp.Vector{}, f.env)
	assert.ErrorIs(t, err, ErrCombinationMismatch)

	cfg = floorConfig()
	cfg.Tag = ""
	_, err = NewLeverPuzzle(cfg, cp.Vector{}, f.env)
	assert.Error(t, err)
}

func TestLeverPuzzleRepel(t *testing.T) {
	f := newFixture(t)
	cfg := floorConfig()
	cfg.Hints = nil
	cfg.RepelRadius = 2
	p, _ := load(t, f, cfg, 1)

	lever := p.Levers()[2]
	start, _ := f.ws.PositionOf(lever)
	hero, _ := f.ws.Hero()
	f.ws.MoveTo(hero, start.Add(cp.Vector{X: -0.5}))

	system.NewVicinitySystem(f.ws).Update(0)
	moved, _ := f.ws.PositionOf(lever)
	assert.Greater(t, moved.X, start.X, "pushed away from the hero")
	assert.Equal(t, start.Y, moved.Y)

	var untouched []ecs.EntityID
	for _, id := range p.Levers() {
		if id != lever {
			untouched = append(untouched, id)
		}
	}
	for _, id := range untouched {
		vc, _ := f.ws.Vicinities.Get(id)
		assert.False(t, vc.InRange)
	}
}

func TestLeverPuzzleRepelAtRadiusIsZero(t *testing.T) {
	f := newFixture(t)
	cfg := floorConfig()
	cfg.Hints = nil
	cfg.RepelRadius = 2
	p, _ := load(t, f, cfg, 1)

	levers := p.Levers()
	neighbour := levers[1]
	before, _ := f.ws.PositionOf(neighbour)
	start, _ := f.ws.PositionOf(levers[2])
	hero, _ := f.ws.Hero()
	f.ws.MoveTo(hero, start.Add(cp.Vector{X: -1}))

	system.NewVicinitySystem(f.ws).Update(0)
	vc, _ := f.ws.Vicinities.Get(neighbour)
	assert.True(t, vc.InRange, "radius is inclusive")
	after, _ := f.ws.PositionOf(neighbour)
	assert.Equal(t, before, after, "no push at the edge")
}

func TestLeverPuzzlesShareHintFade(t *testing.T) {
	f := newFixture(t)
	runner := coresys.NewRunner()
	refs := NewSystemRefs(runner, nil)
	fade := system.NewHintFadeSystem(f.ws)

	a, err := NewLeverPuzzle(floorConfig(), cp.Vector{X: 52, Y: 28}, f.env)
	require.NoError(t, err)
	cfgB := floorConfig()
	cfgB.Tag = "Other"
	b, err := NewLeverPuzzle(cfgB, cp.Vector{X: 15, Y: 28}, f.env)
	require.NoError(t, err)

	ca := NewController(a, 1, refs, nil)
	cb := NewController(b, 2, refs, nil)
	ca.Load()
	cb.Load()
	assert.True(t, runner.Has(fade))
	assert.Equal(t, 2, refs.Count(fade))

	ca.Unload()
	assert.True(t, runner.Has(fade), "still needed by the second puzzle")
	cb.Unload()
	assert.False(t, runner.Has(fade))
}

func TestLeverPuzzleWithoutHintsNeedsNoSystems(t *testing.T) {
	f := newFixture(t)
	cfg := floorConfig()
	cfg.Hints = nil
	p, err := NewLeverPuzzle(cfg, cp.Vector{}, f.env)
	require.NoError(t, err)
	assert.Empty(t, p.CreateSystems(1))

	withHints, err := NewLeverPuzzle(floorConfig(), cp.Vector{}, f.env)
	require.NoError(t, err)
	assert.Len(t, withHints.CreateSystems(1), 1)
	assert.Empty(t, withHints.CreateSystems(3), "no own hints and no fallback")
}

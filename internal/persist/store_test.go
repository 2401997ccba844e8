package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memBackend struct {
	snap  *Snapshot
	saves int
	err   error
}

func (m *memBackend) Load(context.Context) (*Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.snap == nil {
		return nil, ErrNoSave
	}
	return m.snap, nil
}

func (m *memBackend) Save(_ context.Context, snap *Snapshot) error {
	m.snap = snap
	m.saves++
	return nil
}

type leverState struct {
	States []bool `yaml:"states"`
}

func TestKeyRoundTrip(t *testing.T) {
	k := Key{Owner: 1, Tag: "Floor1LeversPuzzle"}
	assert.Equal(t, "1_Floor1LeversPuzzle", k.String())

	got, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, got)

	got, err = ParseKey("0_with_underscores")
	require.NoError(t, err)
	assert.Equal(t, Key{Owner: 0, Tag: "with_underscores"}, got)

	_, err = ParseKey("nounderscore")
	assert.Error(t, err)
	_, err = ParseKey("x_tag")
	assert.Error(t, err)
}

func TestResourceMissSeedsDefaultAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewStore(&memBackend{}, zap.New(core))
	k := Key{Owner: 2, Tag: "levers"}

	p := Resource(s, k, []bool{false, false})
	require.NotNil(t, p)
	assert.Equal(t, []bool{false, false}, *p)
	assert.Equal(t, 1, logs.FilterMessage("didn't find resource object, using default").Len())

	(*p)[1] = true
	again := Resource(s, k, []bool{false, false})
	assert.Same(t, p, again, "second lookup returns the live object")
	assert.Equal(t, []bool{false, true}, *again)
	assert.Equal(t, 1, logs.Len(), "hit does not warn")
}

func TestStoreSaveLoadKeepsResources(t *testing.T) {
	backend := &memBackend{}
	s := NewStore(backend, nil)
	s.CurrentLevel = "Floor1"
	s.PlayerNumber = 1
	s.LastHeroPos = &cp.Vector{X: 3.5, Y: 7.25}
	st := Resource(s, Key{1, "levers"}, leverState{States: []bool{true, false, true}})
	st.States[1] = true
	require.NoError(t, s.Save(context.Background()))

	loaded := NewStore(backend, nil)
	require.NoError(t, loaded.Load(context.Background()))
	assert.Equal(t, "Floor1", loaded.CurrentLevel)
	assert.Equal(t, 1, loaded.PlayerNumber)
	require.NotNil(t, loaded.LastHeroPos)
	assert.Equal(t, cp.Vector{X: 3.5, Y: 7.25}, *loaded.LastHeroPos)
	assert.Equal(t, []Key{{1, "levers"}}, loaded.Keys())

	got := Resource(loaded, Key{1, "levers"}, leverState{})
	assert.Equal(t, []bool{true, true, true}, got.States)
}

func TestStoreLoadWithoutSaveStartsFresh(t *testing.T) {
	backend := &memBackend{}
	s := NewStore(backend, nil)
	s.CurrentLevel = "stale"

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, "", s.CurrentLevel)
	assert.Equal(t, Volumes{Master: 50, BGM: 50, SFX: 50}, s.Volumes)
	assert.Equal(t, 1, backend.saves, "initial save written")
}

func TestStoreLoadError(t *testing.T) {
	boom := errors.New("disk on fire")
	s := NewStore(&memBackend{err: boom}, nil)
	err := s.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStoreWithoutBackend(t *testing.T) {
	s := NewStore(nil, nil)
	assert.ErrorIs(t, s.Load(context.Background()), ErrNotInitialized)
	assert.ErrorIs(t, s.Save(context.Background()), ErrNotInitialized)
}

func TestResourceUndecodableIsReplaced(t *testing.T) {
	backend := &memBackend{snap: &Snapshot{
		Resources: map[Key][]byte{{0, "levers"}: []byte("not: [a, list")},
	}}
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewStore(backend, zap.New(core))
	require.NoError(t, s.Load(context.Background()))

	p := Resource(s, Key{0, "levers"}, []bool{true})
	assert.Equal(t, []bool{true}, *p)
	assert.Equal(t, 1, logs.FilterMessage("resource object does not decode, replacing with default").Len())
}

func TestResourceTypeChangeIsReplaced(t *testing.T) {
	s := NewStore(&memBackend{}, nil)
	k := Key{0, "thing"}
	Resource(s, k, 5)
	p := Resource(s, k, "five")
	assert.Equal(t, "five", *p)
}

func TestSetResourceAndForget(t *testing.T) {
	s := NewStore(&memBackend{}, nil)
	k := Key{0, "code"}
	SetResource(s, k, []int{2, 3, 4})
	assert.Equal(t, []int{2, 3, 4}, *Resource(s, k, []int(nil)))

	s.Forget(k)
	assert.Empty(t, s.Keys())
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save", "state.yaml")
	b := NewFileBackend(path)

	_, err := b.Load(context.Background())
	require.ErrorIs(t, err, ErrNoSave)

	s := NewStore(b, nil)
	require.NoError(t, s.Load(context.Background()), "writes the initial save")
	s.CurrentLevel = "Tutorial"
	s.Volumes.SFX = 10
	*Resource(s, Key{1, "Floor1LeversPuzzle"}, []bool{false, true, false, true, true}) = []bool{true, true, true, true, true}
	require.NoError(t, s.Save(context.Background()))

	loaded := NewStore(b, nil)
	require.NoError(t, loaded.Load(context.Background()))
	assert.Equal(t, "Tutorial", loaded.CurrentLevel)
	assert.Equal(t, 10, loaded.Volumes.SFX)
	assert.Nil(t, loaded.LastHeroPos)
	got := Resource(loaded, Key{1, "Floor1LeversPuzzle"}, []bool(nil))
	assert.Equal(t, []bool{true, true, true, true, true}, *got)
}

func TestFileBackendScalarResource(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "state.yaml"))
	snap := &Snapshot{Resources: map[Key][]byte{{Owner: 0, Tag: "ok"}: []byte("1\n")}}
	require.NoError(t, b.Save(context.Background(), snap))
	got, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(got.Resources[Key{0, "ok"}]))
}

func TestFileBackendSurvivesSecondSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamestate.yaml")
	ctx := context.Background()

	first := NewStore(NewFileBackend(path), nil)
	require.NoError(t, first.Load(ctx))
	*Resource(first, Key{1, "Floor1LeversPuzzle"}, make([]bool, 5)) = []bool{true, false, true, true, false}
	Resource(first, Key{2, "lever"}, leverState{}).States = []bool{true}
	require.NoError(t, first.Save(ctx))

	second := NewStore(NewFileBackend(path), nil)
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, []bool{true, false, true, true, false}, *Resource(second, Key{1, "Floor1LeversPuzzle"}, make([]bool, 5)))
	require.NoError(t, second.Save(ctx))

	third := NewStore(NewFileBackend(path), nil)
	require.NoError(t, third.Load(ctx))
	assert.Equal(t, []bool{true}, Resource(third, Key{2, "lever"}, leverState{}).States)
	assert.Equal(t, []bool{true, false, true, true, false}, *Resource(third, Key{1, "Floor1LeversPuzzle"}, make([]bool, 5)))
}

func TestEmbeddedMigrations(t *testing.T) {
	n, err := MigrationCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

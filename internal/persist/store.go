package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotInitialized is returned when a Store without a backend is loaded or saved.
	ErrNotInitialized = errors.New("persist: store has no backend")
	// ErrNoSave is returned by a Backend that holds no saved state yet.
	ErrNoSave = errors.New("persist: no saved state")
)

// Key addresses one resource object: the player it belongs to and what it is.
type Key struct {
	Owner int
	Tag   string
}

// String renders the key as "<owner>_<tag>", the save-file map key.
func (k Key) String() string {
	return strconv.Itoa(k.Owner) + "_" + k.Tag
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	owner, tag, ok := strings.Cut(s, "_")
	if !ok || tag == "" {
		return Key{}, fmt.Errorf("parse key %q: missing tag", s)
	}
	n, err := strconv.Atoi(owner)
	if err != nil {
		return Key{}, fmt.Errorf("parse key %q: %w", s, err)
	}
	return Key{Owner: n, Tag: tag}, nil
}

type Volumes struct {
	Master int `yaml:"master"`
	BGM    int `yaml:"bgm"`
	SFX    int `yaml:"sfx"`
}

// Snapshot is the state exchanged with a Backend. Resource values are YAML
// documents.
type Snapshot struct {
	CurrentLevel string
	PlayerNumber int
	LastHeroPos  *cp.Vector
	Volumes      Volumes
	Resources    map[Key][]byte
}

// Backend reads and writes snapshots. Load returns ErrNoSave when nothing
// was saved yet.
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Store is the game state that outlives a session: the current level, the
// selected player, the last hero position outside menus, volumes and the
// per-player resource objects such as puzzle states. Accessed only from the
// frame loop goroutine.
type Store struct {
	backend Backend
	log     *zap.Logger

	CurrentLevel string
	PlayerNumber int
	LastHeroPos  *cp.Vector
	Volumes      Volumes

	raw  map[Key][]byte // loaded, not yet requested
	live map[Key]any    // *T handed out by Resource
}

func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{backend: backend, log: log}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.CurrentLevel = ""
	s.PlayerNumber = 0
	s.LastHeroPos = nil
	s.Volumes = Volumes{Master: 50, BGM: 50, SFX: 50}
	s.raw = make(map[Key][]byte)
	s.live = make(map[Key]any)
}

// Load replaces the in-memory state with the saved one. When the backend has
// nothing saved the store starts fresh and writes an initial save.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return ErrNotInitialized
	}
	snap, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoSave) {
		s.log.Info("no saved game state, starting fresh")
		s.reset()
		return s.Save(ctx)
	}
	if err != nil {
		return fmt.Errorf("load game state: %w", err)
	}
	s.reset()
	s.CurrentLevel = snap.CurrentLevel
	s.PlayerNumber = snap.PlayerNumber
	s.LastHeroPos = snap.LastHeroPos
	s.Volumes = snap.Volumes
	for k, v := range snap.Resources {
		s.raw[k] = v
	}
	s.log.Info("loaded game state",
		zap.String("level", s.CurrentLevel),
		zap.Int("player", s.PlayerNumber),
		zap.Strings("resources", keyStrings(s.raw)))
	return nil
}

// Save writes the current state through the backend.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		return ErrNotInitialized
	}
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

// Snapshot encodes the current state.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		CurrentLevel: s.CurrentLevel,
		PlayerNumber: s.PlayerNumber,
		Volumes:      s.Volumes,
		Resources:    make(map[Key][]byte, len(s.raw)+len(s.live)),
	}
	if s.LastHeroPos != nil {
		p := *s.LastHeroPos
		snap.LastHeroPos = &p
	}
	for k, v := range s.raw {
		snap.Resources[k] = v
	}
	for k, v := range s.live {
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode resource %s: %w", k, err)
		}
		snap.Resources[k] = b
	}
	return snap, nil
}

// Keys lists every resource key known to the store in ascending order.
func (s *Store) Keys() []Key {
	seen := make(map[Key]struct{}, len(s.raw)+len(s.live))
	for k := range s.raw {
		seen[k] = struct{}{}
	}
	for k := range s.live {
		seen[k] = struct{}{}
	}
	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Forget drops a resource object.
func (s *Store) Forget(k Key) {
	delete(s.raw, k)
	delete(s.live, k)
}

// Resource returns the live resource object stored under k. On a miss the
// default is stored and returned, and a warning is logged. A saved value that
// no longer decodes into T is replaced by the default the same way. The
// returned pointer stays valid: changes through it are saved with the store.
func Resource[T any](s *Store, k Key, def T) *T {
	if v, ok := s.live[k]; ok {
		if p, ok := v.(*T); ok {
			return p
		}
		s.log.Warn("resource object has a different type, replacing with default",
			zap.Stringer("key", k))
		return seed(s, k, def)
	}
	if b, ok := s.raw[k]; ok {
		delete(s.raw, k)
		p := new(T)
		if err := yaml.Unmarshal(b, p); err != nil {
			s.log.Warn("resource object does not decode, replacing with default",
				zap.Stringer("key", k), zap.Error(err))
			return seed(s, k, def)
		}
		s.live[k] = p
		return p
	}
	s.log.Warn("didn't find resource object, using default", zap.Stringer("key", k))
	return seed(s, k, def)
}

// SetResource stores v under k, replacing whatever was there.
func SetResource[T any](s *Store, k Key, v T) *T {
	delete(s.raw, k)
	p := &v
	s.live[k] = p
	return p
}

func seed[T any](s *Store, k Key, def T) *T {
	p := &def
	s.live[k] = p
	return p
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Owner != keys[j].Owner {
			return keys[i].Owner < keys[j].Owner
		}
		return keys[i].Tag < keys[j].Tag
	})
}

func keyStrings(m map[Key][]byte) []string {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortKeys(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

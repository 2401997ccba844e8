package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jakecoffman/cp"
	"gopkg.in/yaml.v3"
)

// FileBackend keeps the game state in a single YAML file.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Path() string { return b.path }

type fileState struct {
	CurrentLevel string               `yaml:"current_level"`
	PlayerNumber int                  `yaml:"player_number"`
	LastHeroPos  *filePoint           `yaml:"last_hero_pos,omitempty"`
	Volumes      Volumes              `yaml:"volumes"`
	Resources    map[string]yaml.Node `yaml:"resources,omitempty"`
}

type filePoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (b *FileBackend) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}

	var fsState fileState
	if err := yaml.Unmarshal(data, &fsState); err != nil {
		return nil, fmt.Errorf("parse %s: %w", b.path, err)
	}

	snap := &Snapshot{
		CurrentLevel: fsState.CurrentLevel,
		PlayerNumber: fsState.PlayerNumber,
		Volumes:      fsState.Volumes,
		Resources:    make(map[Key][]byte, len(fsState.Resources)),
	}
	if p := fsState.LastHeroPos; p != nil {
		snap.LastHeroPos = &cp.Vector{X: p.X, Y: p.Y}
	}
	for name, node := range fsState.Resources {
		k, err := ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.path, err)
		}
		raw, err := yaml.Marshal(&node)
		if err != nil {
			return nil, fmt.Errorf("%s: resource %s: %w", b.path, name, err)
		}
		snap.Resources[k] = raw
	}
	return snap, nil
}

// Save writes the snapshot to a temporary file next to the target and renames
// it into place.
func (b *FileBackend) Save(_ context.Context, snap *Snapshot) error {
	fsState := fileState{
		CurrentLevel: snap.CurrentLevel,
		PlayerNumber: snap.PlayerNumber,
		Volumes:      snap.Volumes,
	}
	if p := snap.LastHeroPos; p != nil {
		fsState.LastHeroPos = &filePoint{X: p.X, Y: p.Y}
	}
	if len(snap.Resources) > 0 {
		fsState.Resources = make(map[string]yaml.Node, len(snap.Resources))
		for k, raw := range snap.Resources {
			var doc yaml.Node
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("resource %s: %w", k, err)
			}
			if len(doc.Content) == 0 {
				continue
			}
			fsState.Resources[k.String()] = *doc.Content[0]
		}
	}

	data, err := yaml.Marshal(&fsState)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}
	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

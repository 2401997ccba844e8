package data

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/jakecoffman/cp"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ErrUnknownLevel is returned for labels missing from the level table.
var ErrUnknownLevel = errors.New("unknown level")

// Point is a tile-space position as written in the data files.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) Vector() cp.Vector { return cp.Vector{X: p.X, Y: p.Y} }

// LevelDef describes one level.
type LevelDef struct {
	Label     string           `yaml:"label"`
	File      string           `yaml:"file"`
	Actual    bool             `yaml:"actual"`     // a playable level, not a menu
	PerPlayer bool             `yaml:"per_player"` // the file differs per player
	Next      string           `yaml:"next"`
	Intro     string           `yaml:"intro"` // message of the transition into this level
	Width     int              `yaml:"width"`
	Height    int              `yaml:"height"`
	HeroStart Point            `yaml:"hero_start"`
	Points    map[string]Point `yaml:"points"`
	Exits     []Point          `yaml:"exits"`
	Script    string           `yaml:"script"`

	Texts        []TextDef        `yaml:"texts"`
	LeverPuzzles []LeverPuzzleDef `yaml:"lever_puzzles"`
	Keypads      []KeypadDef      `yaml:"keypads"`
	Images       []ImageDef       `yaml:"images"`
	Teleporters  []TeleporterDef  `yaml:"teleporters"`
}

// FileName is the level layout file to load for player. Per-player levels
// are stored as "<player>_<file>".
func (d *LevelDef) FileName(player int) string {
	name := d.File + ".level"
	if d.PerPlayer && player > 0 {
		name = fmt.Sprintf("%d_%s", player, name)
	}
	return name
}

// TextDef is a fixed label such as a menu caption.
type TextDef struct {
	Text  string  `yaml:"text"`
	At    Point   `yaml:"at"`
	Scale float64 `yaml:"scale"`
}

type HintDef struct {
	Text   string `yaml:"text"`
	Offset Point  `yaml:"offset"`
}

type LeverPuzzleDef struct {
	Tag         string            `yaml:"tag"`
	Anchor      Point             `yaml:"anchor"`
	Anchors     map[int]Point     `yaml:"anchors"` // per player, overrides Anchor
	Levers      int               `yaml:"levers"`
	Spacing     float64           `yaml:"spacing"`
	DoorOffset  Point             `yaml:"door_offset"`
	Target      []bool            `yaml:"target"`
	Hints       map[int][]HintDef `yaml:"hints"`
	RepelRadius float64           `yaml:"repel_radius"`
}

// AnchorFor returns the anchor used for player.
func (d *LeverPuzzleDef) AnchorFor(player int) Point {
	if p, ok := d.Anchors[player]; ok {
		return p
	}
	return d.Anchor
}

type KeypadDef struct {
	At             Point  `yaml:"at"`
	Code           []int  `yaml:"code"`
	ShowDigitCount bool   `yaml:"show_digit_count"`
	DoorOffset     *Point `yaml:"door_offset"` // door opened by the code, optional
	Image          string `yaml:"image"`       // named image of this level swapped on unlock
	UnlockImage    string `yaml:"unlock_image"`
}

// ImageDef is an object that opens a full-screen picture when used.
type ImageDef struct {
	Name    string  `yaml:"name"`
	At      Point   `yaml:"at"`
	Sprite  string  `yaml:"sprite"`
	Image   string  `yaml:"image"`
	MaxSize float64 `yaml:"max_size"`
}

// Image returns the image object called name.
func (d *LevelDef) Image(name string) (ImageDef, bool) {
	for _, img := range d.Images {
		if img.Name == name {
			return img, true
		}
	}
	return ImageDef{}, false
}

type TeleporterDef struct {
	At      Point   `yaml:"at"`
	Level   string  `yaml:"level"`
	Point   string  `yaml:"point"` // named point in the target level, empty = its hero start
	Message string  `yaml:"message"`
	Speed   float64 `yaml:"speed"`
	Player  int     `yaml:"player"` // selects the player number when > 0
}

// LevelTable provides lookup of level definitions by label.
type LevelTable struct {
	levels map[string]*LevelDef
	order  []string
}

// LoadLevelTable loads levels.yaml.
func LoadLevelTable(path string) (*LevelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level list: %w", err)
	}
	return ParseLevelTable(raw)
}

func ParseLevelTable(raw []byte) (*LevelTable, error) {
	var file struct {
		Levels []LevelDef `yaml:"levels"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse level list: %w", err)
	}
	t := &LevelTable{levels: make(map[string]*LevelDef, len(file.Levels))}
	for i := range file.Levels {
		d := &file.Levels[i]
		if d.Label == "" {
			return nil, fmt.Errorf("level #%d: empty label", i)
		}
		if _, dup := t.levels[d.Label]; dup {
			return nil, fmt.Errorf("level %s: defined twice", d.Label)
		}
		if d.File == "" {
			d.File = d.Label
		}
		d.normalizeText()
		t.levels[d.Label] = d
		t.order = append(t.order, d.Label)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// normalizeText brings every player-visible string to NFC, so umlauts typed
// as base letter plus combining mark match their precomposed form.
func (d *LevelDef) normalizeText() {
	d.Intro = norm.NFC.String(d.Intro)
	for i := range d.Texts {
		d.Texts[i].Text = norm.NFC.String(d.Texts[i].Text)
	}
	for i := range d.Teleporters {
		d.Teleporters[i].Message = norm.NFC.String(d.Teleporters[i].Message)
	}
	for i := range d.LeverPuzzles {
		for _, hints := range d.LeverPuzzles[i].Hints {
			for j := range hints {
				hints[j].Text = norm.NFC.String(hints[j].Text)
			}
		}
	}
}

func (t *LevelTable) validate() error {
	for _, label := range t.order {
		d := t.levels[label]
		if d.Next != "" {
			if _, ok := t.levels[d.Next]; !ok {
				return fmt.Errorf("level %s: next %q: %w", label, d.Next, ErrUnknownLevel)
			}
		}
		for i, tp := range d.Teleporters {
			target, ok := t.levels[tp.Level]
			if !ok {
				return fmt.Errorf("level %s: teleporter #%d to %q: %w", label, i, tp.Level, ErrUnknownLevel)
			}
			if tp.Point != "" {
				if _, ok := target.Points[tp.Point]; !ok {
					return fmt.Errorf("level %s: teleporter #%d: level %s has no point %q", label, i, tp.Level, tp.Point)
				}
			}
		}
		for i, k := range d.Keypads {
			if len(k.Code) == 0 {
				return fmt.Errorf("level %s: keypad #%d: empty code", label, i)
			}
			for _, digit := range k.Code {
				if digit < 0 || digit > 9 {
					return fmt.Errorf("level %s: keypad #%d: digit %d out of range", label, i, digit)
				}
			}
			if k.Image != "" {
				if _, ok := d.Image(k.Image); !ok {
					return fmt.Errorf("level %s: keypad #%d: no image %q", label, i, k.Image)
				}
				if k.UnlockImage == "" {
					return fmt.Errorf("level %s: keypad #%d: image %q without unlock_image", label, i, k.Image)
				}
			}
		}
		for i, img := range d.Images {
			if img.Image == "" {
				return fmt.Errorf("level %s: image #%d: empty image path", label, i)
			}
		}
	}
	return nil
}

// Get returns the definition of label.
func (t *LevelTable) Get(label string) (*LevelDef, error) {
	d, ok := t.levels[label]
	if !ok {
		return nil, fmt.Errorf("level %q: %w", label, ErrUnknownLevel)
	}
	return d, nil
}

// Next returns the label following label, if any.
func (t *LevelTable) Next(label string) (string, bool) {
	d, ok := t.levels[label]
	if !ok || d.Next == "" {
		return "", false
	}
	return d.Next, true
}

// Labels returns all labels in file order.
func (t *LevelTable) Labels() []string {
	return append([]string(nil), t.order...)
}

// Actual returns the labels of playable levels, sorted.
func (t *LevelTable) Actual() []string {
	var out []string
	for _, l := range t.order {
		if t.levels[l].Actual {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of levels loaded.
func (t *LevelTable) Count() int {
	return len(t.levels)
}

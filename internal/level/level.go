// Package level turns level definitions into running levels and swaps them.
package level

import (
	"fmt"

	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/core/ecs"
	"github.com/escaperoom/dungeon/internal/core/event"
	"github.com/escaperoom/dungeon/internal/core/tick"
	"github.com/escaperoom/dungeon/internal/data"
	"github.com/escaperoom/dungeon/internal/entity"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/escaperoom/dungeon/internal/puzzle"
	"github.com/escaperoom/dungeon/internal/scripting"
	"github.com/escaperoom/dungeon/internal/system"
	"github.com/escaperoom/dungeon/internal/tile"
	"github.com/escaperoom/dungeon/internal/world"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// Scripts runs level hooks (scripting.Engine).
type Scripts interface {
	CallLevelHook(label, hook string, ctx scripting.HookContext) (ret, found bool, err error)
	HasLevel(label string) bool
}

// Env is everything a level touches while it runs.
type Env struct {
	World      *world.State
	Factory    *entity.Factory
	Scheduler  *tick.Scheduler
	Refs       *puzzle.SystemRefs
	Transition *system.TransitionSystem
	Store      *persist.Store
	Sounds     audio.Player
	Bus        *event.Bus
	Scripts    Scripts // nil runs levels unscripted
	Log        *zap.Logger
}

// Level is a running level. It is a level-scoped tickable: the first tick
// spawns its content, every tick runs the script hooks and watches the exits.
type Level struct {
	def    *data.LevelDef
	player int
	loader *Loader
	env    Env
	log    *zap.Logger

	tiles   *tile.Map
	puzzles []*puzzle.Controller

	entities []ecs.EntityID
	keypads  []ecs.EntityID
	images   map[string]ecs.EntityID
	doors    []*tile.Door

	frame   int
	spawned bool
	onExit  bool
}

func newLevel(def *data.LevelDef, player int, loader *Loader) (*Level, error) {
	env := loader.env
	l := &Level{
		def:    def,
		player: player,
		loader: loader,
		env:    env,
		log:    env.Log.With(zap.String("level", def.Label), zap.Int("player", player)),
		tiles:  tile.NewMap(def.Width, def.Height),
	}
	for _, p := range def.Exits {
		l.tiles.MarkExit(tile.CoordOf(p.Vector()))
	}

	penv := puzzle.Env{
		World:   env.World,
		Factory: env.Factory,
		Tiles:   l.tiles,
		Store:   env.Store,
		Sounds:  env.Sounds,
		Log:     env.Log,
	}
	for i := range def.LeverPuzzles {
		pd := &def.LeverPuzzles[i]
		p, err := puzzle.NewLeverPuzzle(leverConfig(pd), pd.AnchorFor(player).Vector(), penv)
		if err != nil {
			return nil, fmt.Errorf("level %s: %w", def.Label, err)
		}
		l.puzzles = append(l.puzzles, puzzle.NewController(p, player, env.Refs, env.Log))
	}

	if def.Script != "" && env.Scripts != nil && !env.Scripts.HasLevel(def.Label) {
		l.log.Warn("level script did not register hooks", zap.String("script", def.Script))
	}
	return l, nil
}

func leverConfig(pd *data.LeverPuzzleDef) puzzle.LeverConfig {
	cfg := puzzle.LeverConfig{
		Tag:         pd.Tag,
		Levers:      pd.Levers,
		Spacing:     pd.Spacing,
		DoorOffset:  pd.DoorOffset.Vector(),
		Target:      pd.Target,
		RepelRadius: pd.RepelRadius,
	}
	if len(pd.Hints) > 0 {
		cfg.Hints = make(map[int][]puzzle.Hint, len(pd.Hints))
		for player, hints := range pd.Hints {
			for _, h := range hints {
				cfg.Hints[player] = append(cfg.Hints[player], puzzle.Hint{Text: h.Text, Offset: h.Offset.Vector()})
			}
		}
	}
	return cfg
}

func (l *Level) Label() string                 { return l.def.Label }
func (l *Level) Player() int                   { return l.player }
func (l *Level) Def() *data.LevelDef           { return l.def }
func (l *Level) Tiles() *tile.Map              { return l.tiles }
func (l *Level) Puzzles() []*puzzle.Controller { return l.puzzles }
func (l *Level) Spawned() bool                 { return l.spawned }

// Actual reports whether this is a playable level rather than a menu.
func (l *Level) Actual() bool { return l.def.Actual }

// Point resolves a named point. The empty name is the hero start.
func (l *Level) Point(name string) (cp.Vector, bool) {
	if name == "" {
		return l.def.HeroStart.Vector(), true
	}
	p, ok := l.def.Points[name]
	if !ok {
		return cp.Vector{}, false
	}
	return p.Vector(), true
}

// SetDoor opens or closes the door on tile (x, y).
func (l *Level) SetDoor(x, y int, open bool) bool {
	d, ok := l.tiles.DoorAt(tile.Coord{X: x, Y: y})
	if !ok {
		return false
	}
	if open {
		d.Open()
	} else {
		d.Close()
	}
	return true
}

func (l *Level) OnTick(isFirstTick bool) {
	l.frame++
	if isFirstTick {
		l.spawn()
		l.hook("on_first_tick")
	}
	l.hook("on_tick")
	l.checkExit()
}

func (l *Level) hook(name string) (ret, found bool) {
	if l.env.Scripts == nil {
		return false, false
	}
	ret, found, err := l.env.Scripts.CallLevelHook(l.def.Label, name, scripting.HookContext{
		Label:  l.def.Label,
		Player: l.player,
		Frame:  l.frame,
	})
	if err != nil {
		l.log.Warn("level script failed", zap.String("hook", name), zap.Error(err))
		return false, false
	}
	return ret, found
}

func (l *Level) spawn() {
	if l.spawned {
		return
	}
	f := l.env.Factory
	for _, td := range l.def.Texts {
		l.entities = append(l.entities, f.Label(td.Text, td.At.Vector(), td.Scale))
	}
	for _, td := range l.def.Teleporters {
		l.entities = append(l.entities, f.Teleporter(td.At.Vector(), func() { l.teleport(td) }))
	}
	for _, c := range l.puzzles {
		c.Load()
	}
	l.images = make(map[string]ecs.EntityID, len(l.def.Images))
	for _, img := range l.def.Images {
		l.images[img.Name] = f.ShowImage(img.At.Vector(), img.Sprite, img.Image, img.MaxSize, nil)
	}
	for _, kd := range l.def.Keypads {
		l.spawnKeypad(kd)
	}
	l.spawned = true
	l.log.Debug("level spawned", zap.Int("entities", len(l.entities)+len(l.keypads)+len(l.images)))
}

func (l *Level) spawnKeypad(kd data.KeypadDef) {
	var door *tile.Door
	if kd.DoorOffset != nil {
		d, ok := l.tiles.PlaceDoor(kd.At.Vector().Add(kd.DoorOffset.Vector()))
		if ok {
			d.Close()
			door = d
			l.doors = append(l.doors, d)
		} else {
			l.log.Warn("keypad door outside the level")
		}
	}
	action := func() {
		if kd.Image != "" {
			system.SetImagePath(l.env.World, l.images[kd.Image], kd.UnlockImage)
		}
		if door == nil || door.IsOpen() {
			return
		}
		door.Open()
		if l.env.Sounds != nil {
			l.env.Sounds.Play(audio.DoorOpened)
		}
	}
	l.keypads = append(l.keypads, l.env.Factory.Keypad(kd.At.Vector(), kd.Code, action, kd.ShowDigitCount))
}

func (l *Level) teleport(td data.TeleporterDef) {
	player := l.player
	if td.Player > 0 {
		player = td.Player
	}
	l.loader.TransitionTo(td.Level, player, td.Point, td.Message, td.Speed)
}

// checkExit reacts when the hero steps onto an exit tile. A level script may
// take over by returning false from on_exit.
func (l *Level) checkExit() {
	on := l.heroOnExit()
	if !on || l.onExit {
		l.onExit = on
		return
	}
	if l.env.Transition != nil && l.env.Transition.Active() {
		return // retried next frame
	}
	l.onExit = true
	if ret, found := l.hook("on_exit"); found && !ret {
		return
	}
	l.loader.Exit()
}

func (l *Level) heroOnExit() bool {
	hero, ok := l.env.World.Hero()
	if !ok {
		return false
	}
	pos, ok := l.env.World.PositionOf(hero)
	if !ok {
		return false
	}
	return l.tiles.IsExit(tile.CoordOf(pos))
}

// unload removes everything the level spawned.
func (l *Level) unload() {
	for _, c := range l.puzzles {
		c.Unload()
	}
	ws := l.env.World
	for _, id := range l.keypads {
		if kc, ok := ws.Keypads.Get(id); ok && kc.Overlay != 0 {
			overlay := kc.Overlay
			ws.Destroy(overlay)
			if l.env.Bus != nil {
				event.Emit(l.env.Bus, event.KeypadClosed{Keypad: id, Overlay: overlay})
			}
		}
		ws.Destroy(id)
	}
	for _, id := range l.images {
		if sc, ok := ws.ShowImages.Get(id); ok && sc.Overlay != 0 {
			overlay := sc.Overlay
			ws.Destroy(overlay)
			if l.env.Bus != nil {
				event.Emit(l.env.Bus, event.ImageHidden{Entity: id, Overlay: overlay})
			}
		}
		ws.Destroy(id)
	}
	for _, id := range l.entities {
		ws.Destroy(id)
	}
	for _, d := range l.doors {
		l.tiles.RemoveDoor(d.At)
	}
	l.keypads = nil
	l.images = nil
	l.entities = nil
	l.doors = nil
	l.spawned = false
}

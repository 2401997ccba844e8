// Package puzzle runs the lifecycle of puzzle instances placed by levels.
//
// A puzzle owns the entities it spawns and may depend on frame systems that
// other puzzles share. Load brings up resources, then systems, then entities;
// Unload tears down entities, then systems.
package puzzle

import (
	"reflect"

	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// Puzzle is implemented by concrete puzzles. CreateSystems may return nil.
type Puzzle interface {
	Name() string
	Anchor() cp.Vector
	LoadResources(player int)
	CreateSystems(player int) []coresys.System
	LoadEntities(player int)
	UnloadEntities(player int)
}

// Controller drives one puzzle instance for one player.
type Controller struct {
	puzzle Puzzle
	player int
	refs   *SystemRefs
	log    *zap.Logger

	loaded  bool
	systems []coresys.System
}

func NewController(p Puzzle, player int, refs *SystemRefs, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{puzzle: p, player: player, refs: refs, log: log}
}

func (c *Controller) Puzzle() Puzzle { return c.puzzle }
func (c *Controller) Player() int    { return c.player }
func (c *Controller) Loaded() bool   { return c.loaded }

// Load is a no-op on a loaded controller.
func (c *Controller) Load() {
	if c.loaded {
		return
	}
	c.puzzle.LoadResources(c.player)
	c.loadSystems()
	c.puzzle.LoadEntities(c.player)
	c.loaded = true
	c.log.Debug("puzzle loaded",
		zap.String("puzzle", c.puzzle.Name()),
		zap.Int("player", c.player),
		zap.Int("systems", len(c.systems)))
}

// Unload is a no-op on an unloaded controller.
func (c *Controller) Unload() {
	if !c.loaded {
		return
	}
	c.puzzle.UnloadEntities(c.player)
	c.unloadSystems()
	c.loaded = false
	c.log.Debug("puzzle unloaded",
		zap.String("puzzle", c.puzzle.Name()),
		zap.Int("player", c.player))
}

func (c *Controller) loadSystems() {
	c.systems = c.puzzle.CreateSystems(c.player)
	if c.refs == nil {
		return
	}
	for _, s := range c.systems {
		c.refs.Acquire(s)
	}
}

func (c *Controller) unloadSystems() {
	if c.refs != nil {
		for _, s := range c.systems {
			c.refs.Release(s)
		}
	}
	c.systems = nil
}

// SystemRefs shares frame systems between puzzles. A system type is added to
// the runner by the first puzzle that needs it, unless something else already
// registered one, and removed when the last puzzle needing it unloads. Systems
// the puzzles did not add are never removed.
type SystemRefs struct {
	runner *coresys.Runner
	log    *zap.Logger
	counts map[reflect.Type]int
	owned  map[reflect.Type]bool
}

func NewSystemRefs(runner *coresys.Runner, log *zap.Logger) *SystemRefs {
	if log == nil {
		log = zap.NewNop()
	}
	return &SystemRefs{
		runner: runner,
		log:    log,
		counts: make(map[reflect.Type]int),
		owned:  make(map[reflect.Type]bool),
	}
}

func (r *SystemRefs) Acquire(s coresys.System) {
	if s == nil {
		return
	}
	t := reflect.TypeOf(s)
	if r.counts[t] == 0 && !r.runner.Has(s) {
		r.runner.Register(s)
		r.owned[t] = true
		r.log.Debug("puzzle system added", zap.Stringer("system", t))
	}
	r.counts[t]++
}

func (r *SystemRefs) Release(s coresys.System) {
	if s == nil {
		return
	}
	t := reflect.TypeOf(s)
	if r.counts[t] == 0 {
		return
	}
	r.counts[t]--
	if r.counts[t] > 0 {
		return
	}
	delete(r.counts, t)
	if r.owned[t] {
		delete(r.owned, t)
		if r.runner.Remove(s) {
			r.log.Debug("puzzle system removed", zap.Stringer("system", t))
		}
	}
}

// Count returns how many loaded puzzles hold the type of s.
func (r *SystemRefs) Count(s coresys.System) int {
	return r.counts[reflect.TypeOf(s)]
}

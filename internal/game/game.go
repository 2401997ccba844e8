// Package game wires the simulation together and drives it frame by frame.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/escaperoom/dungeon/internal/audio"
	"github.com/escaperoom/dungeon/internal/config"
	"github.com/escaperoom/dungeon/internal/core/event"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/core/tick"
	"github.com/escaperoom/dungeon/internal/data"
	"github.com/escaperoom/dungeon/internal/entity"
	"github.com/escaperoom/dungeon/internal/level"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/escaperoom/dungeon/internal/puzzle"
	"github.com/escaperoom/dungeon/internal/scripting"
	"github.com/escaperoom/dungeon/internal/system"
	"github.com/escaperoom/dungeon/internal/world"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// Options configures New. Sounds defaults to a player that emits
// SoundRequested events on the game bus.
type Options struct {
	Config *config.Config
	Levels *data.LevelTable
	Store  *persist.Store
	Sounds audio.Player
	Log    *zap.Logger
}

// Game owns the world, the frame systems and the level loader. All methods
// must be called from the goroutine running the frame loop.
type Game struct {
	cfg *config.Config
	log *zap.Logger

	World       *world.State
	Bus         *event.Bus
	Runner      *coresys.Runner
	Scheduler   *tick.Scheduler
	Transition  *system.TransitionSystem
	Interaction *system.InteractionSystem
	Persistence *system.PersistenceSystem
	Loader      *level.Loader
	Levels      *data.LevelTable
	Store       *persist.Store
	Scripts     *scripting.Engine
	Sounds      audio.Player

	watcher *scripting.Watcher
	rng     *rand.Rand
	frame   int
	quit    bool
}

func New(opts Options) (*Game, error) {
	if opts.Config == nil || opts.Levels == nil || opts.Store == nil {
		return nil, fmt.Errorf("game: config, levels and store are required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config

	g := &Game{
		cfg:       cfg,
		log:       log,
		World:     world.NewState(),
		Bus:       event.NewBus(),
		Runner:    coresys.NewRunner(),
		Scheduler: tick.NewScheduler(log),
		Levels:    opts.Levels,
		Store:     opts.Store,
		Sounds:    opts.Sounds,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if g.Sounds == nil {
		g.Sounds = audio.NewBusPlayer(g.Bus)
	}
	g.Transition = system.NewTransitionSystem(g.Bus, log)
	g.Interaction = system.NewInteractionSystem(g.World, g.Transition.Active, log)

	scripts, err := scripting.NewEngine(cfg.Data.ScriptsDir, g, log)
	if err != nil {
		return nil, fmt.Errorf("lua engine: %w", err)
	}
	g.Scripts = scripts

	g.Loader = level.NewLoader(opts.Levels, level.Env{
		World:      g.World,
		Factory:    entity.New(g.World, g.Sounds),
		Scheduler:  g.Scheduler,
		Refs:       puzzle.NewSystemRefs(g.Runner, log),
		Transition: g.Transition,
		Store:      g.Store,
		Sounds:     g.Sounds,
		Bus:        g.Bus,
		Scripts:    scripts,
		Log:        log,
	}, g.RequestQuit)
	g.Persistence = system.NewPersistenceSystem(g.World, g.Store, g.Loader.InActualLevel, log, cfg.Game.AutosaveFrames)

	if cfg.Data.HotReload {
		w, err := scripting.NewWatcher(cfg.Data.ScriptsDir, log)
		if err != nil {
			log.Warn("script hot reload unavailable", zap.Error(err))
		} else {
			g.watcher = w
			g.Runner.Register(system.NewScriptReloadSystem(w, scripts, log))
		}
	}

	g.Runner.Register(g.Interaction)
	g.Runner.Register(system.NewEventDispatchSystem(g.Bus))
	g.Runner.Register(g.Scheduler)
	g.Runner.Register(system.NewVicinitySystem(g.World))
	g.Runner.Register(system.NewKeypadSystem(g.World, g.Bus, log))
	g.Runner.Register(system.NewShowImageSystem(g.World, g.Bus, log))
	g.Runner.Register(g.Transition)
	g.Runner.Register(g.Persistence)
	g.Runner.Register(system.NewCleanupSystem(g.World.ECS(), log))

	g.subscribe()
	return g, nil
}

func (g *Game) subscribe() {
	event.Subscribe(g.Bus, func(e event.LevelLoaded) {
		g.log.Info("level loaded", zap.String("level", e.Label), zap.Int("player", e.Player))
	})
	event.Subscribe(g.Bus, func(e event.SoundRequested) {
		g.log.Debug("sound", zap.String("sound", e.Sound), zap.String("path", e.Path))
	})
	event.Subscribe(g.Bus, func(e event.KeypadOpened) {
		g.log.Debug("keypad dialog opened", zap.Uint64("keypad", uint64(e.Keypad)))
	})
	event.Subscribe(g.Bus, func(e event.KeypadClosed) {
		g.log.Debug("keypad dialog closed", zap.Uint64("keypad", uint64(e.Keypad)))
	})
	event.Subscribe(g.Bus, func(e event.ImageShown) {
		g.log.Debug("image view opened", zap.Uint64("entity", uint64(e.Entity)), zap.String("image", e.ImagePath))
	})
}

// Start loads the start level. Resuming into the playable level the save was
// made in puts the hero back on its last position. Unless the intro is
// skipped the screen fades in from black.
func (g *Game) Start() error {
	label := g.cfg.Game.StartLevel
	if label == "" {
		label = g.Store.CurrentLevel
	}
	player := g.cfg.Game.PlayerNumber
	if player == 0 {
		player = g.Store.PlayerNumber
	}
	resume := label == g.Store.CurrentLevel && g.Store.LastHeroPos != nil

	if err := g.Loader.Load(label, player, ""); err != nil {
		return err
	}
	if resume && g.Loader.InActualLevel() {
		g.MoveHero(*g.Store.LastHeroPos)
	}

	if !g.cfg.Game.SkipIntro {
		msg := g.cfg.Game.Title
		if def, err := g.Levels.Get(label); err == nil && def.Intro != "" {
			msg = def.Intro
		}
		g.Transition.Opening(msg)
	}
	return nil
}

// Frame advances the simulation by one frame.
func (g *Game) Frame(dt time.Duration) {
	g.Runner.Tick(dt)
	g.frame++
}

func (g *Game) Frames() int { return g.frame }

// Interact uses whatever the hero stands next to on the next frame.
func (g *Game) Interact() { g.Interaction.Request() }

// MoveHero places the hero. Input handling lives outside the core.
func (g *Game) MoveHero(pos cp.Vector) bool {
	hero, ok := g.World.Hero()
	if !ok {
		return false
	}
	return g.World.MoveTo(hero, pos)
}

func (g *Game) RequestQuit()   { g.quit = true }
func (g *Game) Quitting() bool { return g.quit }

// Shutdown saves the game and releases the script engine.
func (g *Game) Shutdown(ctx context.Context) error {
	err := g.Persistence.SaveNow(ctx)
	g.Loader.Unload()
	if g.watcher != nil {
		if cerr := g.watcher.Close(); cerr != nil {
			g.log.Warn("close script watcher", zap.Error(cerr))
		}
	}
	g.Scripts.Close()
	return err
}

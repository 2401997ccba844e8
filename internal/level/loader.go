package level

import (
	"errors"
	"fmt"

	"github.com/escaperoom/dungeon/internal/core/event"
	"github.com/escaperoom/dungeon/internal/core/tick"
	"github.com/escaperoom/dungeon/internal/data"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

var ErrNoNextLevel = errors.New("level: no next level")

// Loader swaps the current level. It owns the level-scoped part of the
// scheduler: every level change clears it and registers the new level.
type Loader struct {
	env     Env
	table   *data.LevelTable
	current *Level
	quit    func()
	log     *zap.Logger
}

// NewLoader creates a loader. quit runs when the hero leaves a level that has
// no next level.
func NewLoader(table *data.LevelTable, env Env, quit func()) *Loader {
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	return &Loader{env: env, table: table, quit: quit, log: env.Log}
}

func (l *Loader) Current() *Level { return l.current }

func (l *Loader) Label() string {
	if l.current == nil {
		return ""
	}
	return l.current.Label()
}

func (l *Loader) Player() int {
	if l.current == nil {
		return 0
	}
	return l.current.player
}

// InActualLevel reports whether a playable level is running.
func (l *Loader) InActualLevel() bool {
	return l.current != nil && l.current.Actual()
}

// Load makes label the current level for player and places the hero at the
// named point ("" = hero start). Loading the running level again only moves
// the hero, and only when a point was named.
func (l *Loader) Load(label string, player int, point string) error {
	def, err := l.table.Get(label)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}

	if cur := l.current; cur != nil && cur.Label() == label && cur.player == player {
		if point == "" {
			return nil
		}
		pos, ok := cur.Point(point)
		if !ok {
			return fmt.Errorf("load level %s: unknown point %q", label, point)
		}
		l.placeHero(pos)
		return nil
	}

	lvl, err := newLevel(def, player, l)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}
	pos, ok := lvl.Point(point)
	if !ok {
		return fmt.Errorf("load level %s: unknown point %q", label, point)
	}

	if l.current != nil {
		l.current.unload()
	}
	l.env.Scheduler.ClearLevel()
	l.env.Scheduler.RegisterInLevel(lvl, tick.PriorityNormal)
	l.current = lvl
	l.placeHero(pos)

	if l.env.Store != nil {
		l.env.Store.CurrentLevel = label
		if player > 0 {
			l.env.Store.PlayerNumber = player
		}
	}
	if l.env.Bus != nil {
		event.Emit(l.env.Bus, event.LevelLoaded{Label: label, Player: player})
	}
	l.log.Debug("level loaded",
		zap.String("level", label),
		zap.Int("player", player),
		zap.String("file", def.FileName(player)))
	return nil
}

func (l *Loader) placeHero(pos cp.Vector) {
	ws := l.env.World
	if hero, ok := ws.Hero(); ok {
		ws.MoveTo(hero, pos)
		return
	}
	ws.SpawnHero(pos)
}

// LoadNext loads the level following the current one.
func (l *Loader) LoadNext() error {
	next, ok := l.table.Next(l.Label())
	if !ok {
		return ErrNoNextLevel
	}
	return l.Load(next, l.Player(), "")
}

// Exit is the default reaction to the hero reaching an exit tile: fade into
// the next level, or quit when there is none.
func (l *Loader) Exit() {
	next, ok := l.table.Next(l.Label())
	if !ok {
		l.log.Info("no next level, quitting", zap.String("level", l.Label()))
		if l.quit != nil {
			l.quit()
		}
		return
	}
	msg := ""
	if def, err := l.table.Get(next); err == nil {
		msg = def.Intro
	}
	l.TransitionTo(next, l.Player(), "", msg, 1)
}

// TransitionTo fades out, loads the level at the hang point and fades back
// in. It reports false while another transition runs. Without a transition
// system the level is loaded at once.
func (l *Loader) TransitionTo(label string, player int, point, message string, speed float64) bool {
	load := func() {
		if err := l.Load(label, player, point); err != nil {
			l.log.Error("level change failed", zap.String("level", label), zap.Error(err))
		}
	}
	if l.env.Transition == nil {
		load()
		return true
	}
	return l.env.Transition.Start(load, message, speed)
}

// Unload tears the current level down, leaving no level running.
func (l *Loader) Unload() {
	if l.current == nil {
		return
	}
	l.current.unload()
	l.env.Scheduler.ClearLevel()
	l.current = nil
}

package system

import (
	"time"

	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"go.uber.org/zap"
)

// ChangeSource reports pending script changes (scripting.Watcher).
type ChangeSource interface {
	Changed() bool
}

// Reloader rebuilds script state (scripting.Engine).
type Reloader interface {
	Reload() error
}

// ScriptReloadSystem reloads level scripts on the frame loop when the watcher
// saw a change. A failed reload keeps the previous scripts running.
// Phase 0 (Input).
type ScriptReloadSystem struct {
	source   ChangeSource
	reloader Reloader
	log      *zap.Logger
	reloads  int
}

func NewScriptReloadSystem(source ChangeSource, reloader Reloader, log *zap.Logger) *ScriptReloadSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptReloadSystem{source: source, reloader: reloader, log: log}
}

func (s *ScriptReloadSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptReloadSystem) Update(_ time.Duration) {
	if !s.source.Changed() {
		return
	}
	if err := s.reloader.Reload(); err != nil {
		s.log.Warn("script reload failed, keeping previous scripts", zap.Error(err))
		return
	}
	s.reloads++
}

// Reloads counts successful reloads.
func (s *ScriptReloadSystem) Reloads() int { return s.reloads }

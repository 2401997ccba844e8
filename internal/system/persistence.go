package system

import (
	"context"
	"time"

	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"github.com/escaperoom/dungeon/internal/persist"
	"github.com/escaperoom/dungeon/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically saves the game state. The hero position is
// only recorded while the current level is a playable one, so quitting from a
// menu resumes at the last spot inside the dungeon. Phase 4 (Persist).
type PersistenceSystem struct {
	world       *world.State
	store       *persist.Store
	inGameLevel func() bool
	log         *zap.Logger
	frameCount  int
	interval    int // auto-save every N frames, 0 = never
}

func NewPersistenceSystem(ws *world.State, store *persist.Store, inGameLevel func() bool, log *zap.Logger, intervalFrames int) *PersistenceSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &PersistenceSystem{
		world:       ws,
		store:       store,
		inGameLevel: inGameLevel,
		log:         log,
		interval:    intervalFrames,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.frameCount++
	if s.frameCount < s.interval {
		return
	}
	s.frameCount = 0
	if err := s.SaveNow(context.Background()); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
	}
}

// SaveNow records the hero position and writes the store. Called on graceful
// shutdown as well.
func (s *PersistenceSystem) SaveNow(ctx context.Context) error {
	s.RecordHero()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx); err != nil {
		return err
	}
	s.log.Debug("game state saved", zap.String("level", s.store.CurrentLevel))
	return nil
}

// RecordHero copies the hero position into the store when inside a playable
// level.
func (s *PersistenceSystem) RecordHero() {
	if s.inGameLevel == nil || !s.inGameLevel() {
		return
	}
	hero, ok := s.world.Hero()
	if !ok {
		return
	}
	if pos, ok := s.world.PositionOf(hero); ok {
		s.store.LastHeroPos = &pos
	}
}

// Package tick drives per-frame game logic objects in priority order.
//
// Two scopes exist. Persistent tickables survive level changes; level
// tickables are dropped by ClearLevel. Registrations are staged and become
// visible on the frame after they were made, so the lists being iterated are
// never modified mid-pass.
package tick

import (
	"sort"
	"time"

	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"go.uber.org/zap"
)

// Tickable is game logic that runs once per frame. Implementations must be
// comparable (pointer types); the scheduler tracks them by identity.
type Tickable interface {
	OnTick(isFirstTick bool)
}

// Func adapts a closure to Tickable. Use a pointer: &tick.Func{...}.
type Func struct {
	Fn func(isFirstTick bool)
}

func (f *Func) OnTick(isFirstTick bool) { f.Fn(isFirstTick) }

// Priority orders tickables within a scope; lower runs first. Any int is
// valid, the named tiers leave room for custom values in between.
type Priority int

const (
	PriorityFirst  Priority = -200
	PriorityEarly  Priority = -100
	PriorityNormal Priority = 0
	PriorityLate   Priority = 100
	PriorityLast   Priority = 200
)

// Scope says which registry an entry belongs to.
type Scope int

const (
	ScopePersistent Scope = iota
	ScopeLevel
)

func (s Scope) String() string {
	if s == ScopeLevel {
		return "level"
	}
	return "persistent"
}

type entry struct {
	tickable  Tickable
	priority  Priority
	scope     Scope
	hasTicked bool
	removed   bool
}

// Scheduler is the tickable registry. It is not safe for concurrent use; all
// calls happen on the frame loop.
type Scheduler struct {
	persistent []*entry
	level      []*entry
	pending    []*entry
	index      map[Tickable]*entry
	ticking    bool
	dirty      bool // removed entries awaiting compaction
	log        *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		index: make(map[Tickable]*entry),
		log:   log,
	}
}

func (s *Scheduler) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *Scheduler) Update(_ time.Duration) { s.Tick() }

// Register stages t in the persistent scope.
func (s *Scheduler) Register(t Tickable, p Priority) {
	s.stage(t, p, ScopePersistent)
}

// RegisterInLevel stages t in the level scope.
func (s *Scheduler) RegisterInLevel(t Tickable, p Priority) {
	s.stage(t, p, ScopeLevel)
}

func (s *Scheduler) stage(t Tickable, p Priority, scope Scope) {
	if t == nil {
		return
	}
	if e, ok := s.index[t]; ok {
		s.log.Warn("tickable already registered, ignoring",
			zap.Stringer("scope", e.scope),
			zap.Stringer("requested_scope", scope))
		return
	}
	e := &entry{tickable: t, priority: p, scope: scope}
	s.index[t] = e
	s.pending = append(s.pending, e)
}

// Remove unregisters t from whichever scope holds it, including a pending
// registration. The effect is immediate: if t has not been ticked yet in the
// current pass it will not be. Unknown tickables are ignored.
func (s *Scheduler) Remove(t Tickable) {
	e, ok := s.index[t]
	if !ok {
		return
	}
	s.drop(e)
}

// Registered reports whether t is live or pending.
func (s *Scheduler) Registered(t Tickable) bool {
	_, ok := s.index[t]
	return ok
}

// Clear empties both scopes and all pending registrations.
func (s *Scheduler) Clear() {
	for _, e := range s.index {
		s.drop(e)
	}
}

// ClearLevel empties the level scope, its tick history and any pending level
// registrations. Persistent tickables are untouched.
func (s *Scheduler) ClearLevel() {
	for _, e := range s.index {
		if e.scope == ScopeLevel {
			s.drop(e)
		}
	}
}

func (s *Scheduler) drop(e *entry) {
	e.removed = true
	delete(s.index, e.tickable)
	s.dirty = true
	if !s.ticking {
		s.compact()
	}
}

// Tick runs one frame: persistent tickables, then level tickables, each in
// priority order with ties in registration order. Registrations made before or
// during this call are merged afterwards and first run on the next Tick.
func (s *Scheduler) Tick() {
	s.ticking = true
	s.pass(s.persistent)
	s.pass(s.level)
	s.ticking = false
	s.compact()
	s.merge()
}

func (s *Scheduler) pass(list []*entry) {
	for _, e := range list {
		if e.removed {
			continue
		}
		first := !e.hasTicked
		e.hasTicked = true
		e.tickable.OnTick(first)
	}
}

func (s *Scheduler) compact() {
	if !s.dirty {
		return
	}
	s.persistent = keepLive(s.persistent)
	s.level = keepLive(s.level)
	s.pending = keepLive(s.pending)
	s.dirty = false
}

func (s *Scheduler) merge() {
	if len(s.pending) == 0 {
		return
	}
	for _, e := range s.pending {
		if e.scope == ScopeLevel {
			s.level = append(s.level, e)
		} else {
			s.persistent = append(s.persistent, e)
		}
	}
	clear(s.pending)
	s.pending = s.pending[:0]
	sortStable(s.persistent)
	sortStable(s.level)
}

// Len returns the number of live (already merged) tickables per scope.
func (s *Scheduler) Len(scope Scope) int {
	if scope == ScopeLevel {
		return len(s.level)
	}
	return len(s.persistent)
}

// Pending returns the number of staged registrations.
func (s *Scheduler) Pending() int { return len(s.pending) }

func keepLive(list []*entry) []*entry {
	kept := list[:0]
	for _, e := range list {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	clear(list[len(kept):])
	return kept
}

func sortStable(list []*entry) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority < list[j].priority
	})
}

package system

import (
	"reflect"
	"slices"
	"sort"
	"time"
)

// Runner executes systems in phase order each frame. Systems sharing a phase
// run in registration order. A system is identified by its dynamic type, so a
// runner holds at most one instance of each concrete system type.
type Runner struct {
	systems []System
	pending []System // registered mid-frame, merged after the frame
	removed map[reflect.Type]bool
	sorted  bool
	running bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		removed: make(map[reflect.Type]bool),
	}
}

// Register adds s unless a system of the same type is already present.
// It reports whether s was added. Systems registered while the runner is
// ticking start running on the next frame.
func (r *Runner) Register(s System) bool {
	if s == nil || r.Has(s) {
		return false
	}
	if r.running {
		r.pending = append(r.pending, s)
		return true
	}
	r.systems = append(r.systems, s)
	r.sorted = false
	return true
}

// Has reports whether a system with the dynamic type of s is registered.
func (r *Runner) Has(s System) bool {
	_, ok := r.Get(s)
	return ok
}

// Get returns the registered system sharing the dynamic type of s.
func (r *Runner) Get(s System) (System, bool) {
	t := reflect.TypeOf(s)
	if i := indexOf(r.pending, t); i >= 0 {
		return r.pending[i], true
	}
	if r.removed[t] {
		return nil, false
	}
	if i := indexOf(r.systems, t); i >= 0 {
		return r.systems[i], true
	}
	return nil, false
}

// Remove unregisters the system sharing the dynamic type of s. Removing while
// ticking skips the system for the rest of the frame; its slot is compacted
// once the frame ends.
func (r *Runner) Remove(s System) bool {
	t := reflect.TypeOf(s)
	if i := indexOf(r.pending, t); i >= 0 {
		r.pending = slices.Delete(r.pending, i, i+1)
		return true
	}
	if r.removed[t] {
		return false
	}
	i := indexOf(r.systems, t)
	if i < 0 {
		return false
	}
	if r.running {
		r.removed[t] = true
		return true
	}
	r.systems = slices.Delete(r.systems, i, i+1)
	return true
}

// Len returns the number of registered systems.
func (r *Runner) Len() int { return len(r.systems) - len(r.removed) + len(r.pending) }

func (r *Runner) Tick(dt time.Duration) {
	r.run(func(System) bool { return true }, dt)
}

// TickPhase runs only the systems of the given phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.run(func(s System) bool { return s.Phase() == phase }, dt)
}

func (r *Runner) run(match func(System) bool, dt time.Duration) {
	r.ensureSorted()
	r.running = true
	for _, s := range r.systems {
		if r.removed[reflect.TypeOf(s)] || !match(s) {
			continue
		}
		s.Update(dt)
	}
	r.running = false
	r.compact()
}

func (r *Runner) compact() {
	if len(r.removed) > 0 {
		r.systems = slices.DeleteFunc(r.systems, func(s System) bool {
			return r.removed[reflect.TypeOf(s)]
		})
		clear(r.removed)
	}
	if len(r.pending) > 0 {
		r.systems = append(r.systems, r.pending...)
		r.pending = r.pending[:0]
		r.sorted = false
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}

func indexOf(list []System, t reflect.Type) int {
	for i, s := range list {
		if reflect.TypeOf(s) == t {
			return i
		}
	}
	return -1
}

package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: interaction requests, script reloads
	PhasePreUpdate               // 1: deliver last frame's events
	PhaseUpdate                  // 2: tickables, proximity, keypads
	PhasePostUpdate              // 3: screen transition
	PhasePersist                 // 4: autosave
	PhaseCleanup                 // 5: destroy queued entities
)

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

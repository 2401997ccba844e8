package system

import (
	"math"
	"time"

	"github.com/escaperoom/dungeon/internal/core/event"
	coresys "github.com/escaperoom/dungeon/internal/core/system"
	"go.uber.org/zap"
)

// TransitionState is the phase of a screen transition.
type TransitionState int

const (
	TransitionWaiting TransitionState = iota
	TransitionFadeOut
	TransitionHang
	TransitionFadeIn
)

func (s TransitionState) String() string {
	switch s {
	case TransitionFadeOut:
		return "fade_out"
	case TransitionHang:
		return "hang"
	case TransitionFadeIn:
		return "fade_in"
	default:
		return "waiting"
	}
}

func (s TransitionState) next() TransitionState {
	switch s {
	case TransitionWaiting:
		return TransitionFadeOut
	case TransitionFadeOut:
		return TransitionHang
	case TransitionHang:
		return TransitionFadeIn
	default:
		return TransitionWaiting
	}
}

// Timer increments per frame at speed scale 1.
const (
	fadeStep         = 0.05  // 20 frames
	hangStep         = 0.007 // ~143 frames, time to read the message
	hangStepNoMsg    = 0.07  // ~14 frames
	openingSlowAfter = 0.15

	timerEpsilon = 1e-9 // absorbs float drift of repeated step sums
)

// TransitionSystem fades the screen to black, runs a deferred command while
// the screen is fully covered, then fades back in. Only one transition runs at
// a time; requests made while one is active are dropped.
// Phase 3 (PostUpdate).
type TransitionSystem struct {
	bus *event.Bus
	log *zap.Logger

	state   TransitionState
	timer   float64 // 0..1 within the current state
	speed   float64
	message string
	opening bool
	command func()
}

func NewTransitionSystem(bus *event.Bus, log *zap.Logger) *TransitionSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransitionSystem{bus: bus, log: log, speed: 1}
}

func (s *TransitionSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Start begins a transition that runs cmd once the screen is black. An empty
// message skips the message display; speedScale <= 0 means 1. It reports
// whether the request was accepted.
func (s *TransitionSystem) Start(cmd func(), message string, speedScale float64) bool {
	if s.state != TransitionWaiting {
		s.log.Debug("transition already running, request dropped",
			zap.Stringer("state", s.state))
		return false
	}
	if speedScale <= 0 {
		speedScale = 1
	}
	s.begin(cmd, message, speedScale, false)
	s.timer = 0
	return true
}

// Opening fades in from black showing message. Used once at startup.
func (s *TransitionSystem) Opening(message string) bool {
	if s.state != TransitionWaiting {
		return false
	}
	s.begin(nil, message, 1, true)
	s.timer = 1
	return true
}

func (s *TransitionSystem) begin(cmd func(), message string, speed float64, opening bool) {
	s.command = cmd
	s.message = message
	s.speed = speed
	s.opening = opening
	s.state = s.state.next()
}

func (s *TransitionSystem) Update(_ time.Duration) {
	if s.state == TransitionWaiting {
		return
	}
	step := fadeStep
	if s.state == TransitionHang {
		step = hangStepNoMsg
		if s.message != "" {
			step = hangStep
		}
		if s.opening && s.timer > openingSlowAfter {
			step /= 2
		}
	}
	s.timer = math.Min(s.timer+step*s.speed, 1)
	if s.timer < 1-timerEpsilon {
		return
	}

	s.timer = 0
	s.state = s.state.next()
	switch s.state {
	case TransitionHang:
		cmd := s.command
		s.command = nil
		if cmd != nil {
			cmd()
		}
	case TransitionWaiting:
		msg := s.message
		s.message = ""
		s.opening = false
		s.speed = 1
		if s.bus != nil {
			event.Emit(s.bus, event.TransitionFinished{Message: msg})
		}
	}
}

func (s *TransitionSystem) State() TransitionState { return s.state }

// Active reports whether a transition is in progress. Gameplay input is
// ignored while it is.
func (s *TransitionSystem) Active() bool { return s.state != TransitionWaiting }

// Timer returns the progress within the current state.
func (s *TransitionSystem) Timer() float64 { return s.timer }

// Message returns the message of the running transition, or "".
func (s *TransitionSystem) Message() string { return s.message }

// Alpha is the opacity of the black overlay.
func (s *TransitionSystem) Alpha() float64 {
	switch s.state {
	case TransitionFadeOut:
		return easeOut(s.timer)
	case TransitionHang:
		return 1
	case TransitionFadeIn:
		return 1 - easeOut(s.timer)
	default:
		return 0
	}
}

// MessageAlpha is the opacity of the message text: it fades in, holds, then
// fades out over the hang.
func (s *TransitionSystem) MessageAlpha() float64 {
	if s.state != TransitionHang || s.message == "" {
		return 0
	}
	t := s.timer
	switch {
	case t <= 0.15:
		return 0
	case t <= 0.5:
		return smoother((t - 0.15) / 0.35)
	case t <= 0.7:
		return 1
	default:
		return 1 - smoother((t-0.7)/0.3)
	}
}

func easeOut(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// smoother is Perlin's smootherstep on [0,1].
func smoother(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return t * t * t * (t*(t*6-15) + 10)
}

package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type traceSys struct {
	name  string
	phase Phase
	log   *[]string
	onRun func()
}

func (s *traceSys) Phase() Phase { return s.phase }
func (s *traceSys) Update(time.Duration) {
	*s.log = append(*s.log, s.name)
	if s.onRun != nil {
		s.onRun()
	}
}

type cleanupSys struct{ traceSys }
type inputSys struct{ traceSys }

func TestRunner_OrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&cleanupSys{traceSys{name: "cleanup", phase: PhaseCleanup, log: &log}})
	r.Register(&traceSys{name: "update", phase: PhaseUpdate, log: &log})
	r.Register(&inputSys{traceSys{name: "input", phase: PhaseInput, log: &log}})

	r.Tick(time.Millisecond)

	assert.Equal(t, []string{"input", "update", "cleanup"}, log)
}

func TestRunner_RejectsSecondInstanceOfSameType(t *testing.T) {
	var log []string
	r := NewRunner()
	assert.True(t, r.Register(&traceSys{name: "a", log: &log}))
	assert.False(t, r.Register(&traceSys{name: "b", log: &log}))
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Has(&traceSys{}))
}

func TestRunner_RemoveDuringTickSkipsRestOfFrame(t *testing.T) {
	var log []string
	r := NewRunner()
	late := &cleanupSys{traceSys{name: "late", phase: PhaseCleanup, log: &log}}
	r.Register(&traceSys{name: "early", phase: PhaseInput, log: &log, onRun: func() { r.Remove(late) }})
	r.Register(late)

	r.Tick(0)

	assert.Equal(t, []string{"early"}, log)
	assert.False(t, r.Has(late))
	assert.Equal(t, 1, r.Len())
}

func TestRunner_RegisterDuringTickRunsNextFrame(t *testing.T) {
	var log []string
	r := NewRunner()
	added := &inputSys{traceSys{name: "added", phase: PhaseInput, log: &log}}
	r.Register(&traceSys{name: "host", phase: PhaseUpdate, log: &log, onRun: func() { r.Register(added) }})

	r.Tick(0)
	assert.Equal(t, []string{"host"}, log)
	assert.True(t, r.Has(added))

	log = nil
	r.Tick(0)
	assert.Equal(t, []string{"added", "host"}, log)
}

func TestRunner_TickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&traceSys{name: "update", phase: PhaseUpdate, log: &log})
	r.Register(&inputSys{traceSys{name: "input", phase: PhaseInput, log: &log}})

	r.TickPhase(PhaseInput, 0)
	assert.Equal(t, []string{"input"}, log)
}

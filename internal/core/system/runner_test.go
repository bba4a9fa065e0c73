package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSystem struct {
	phase Phase
	order *[]Phase
	runs  int
}

func (s *recordingSystem) Phase() Phase { return s.phase }

func (s *recordingSystem) Update(time.Duration) {
	s.runs++
	if s.order != nil {
		*s.order = append(*s.order, s.phase)
	}
}

func TestRunnerPhaseOrdering(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var order []Phase

	// Register deliberately out of order.
	for _, p := range []Phase{PhaseCleanup, PhaseInput, PhasePersist, PhaseUpdate, PhaseOutput, PhasePreUpdate, PhasePostUpdate} {
		r.Register(&recordingSystem{phase: p, order: &order})
	}

	r.Tick(time.Second)
	assert.Equal(t, []Phase{
		PhaseInput, PhasePreUpdate, PhaseUpdate, PhasePostUpdate,
		PhaseOutput, PhasePersist, PhaseCleanup,
	}, order)
}

func TestRunnerTickPhase(t *testing.T) {
	r := NewRunner(zap.NewNop())
	input := &recordingSystem{phase: PhaseInput}
	update := &recordingSystem{phase: PhaseUpdate}
	r.Register(input)
	r.Register(update)

	r.TickPhase(PhaseInput, time.Second)
	assert.Equal(t, 1, input.runs)
	assert.Equal(t, 0, update.runs, "other phases untouched")
}

func TestRunnerPhaseTimings(t *testing.T) {
	r := NewRunner(zap.NewNop())
	r.Register(&recordingSystem{phase: PhaseUpdate})

	phases, _, ticks := r.PhaseTimings()
	assert.Equal(t, int64(0), ticks)
	require.Contains(t, phases, "update")

	r.Tick(time.Second)
	r.Tick(time.Second)
	phases, _, ticks = r.PhaseTimings()
	assert.Equal(t, int64(2), ticks)
	assert.Len(t, phases, 7)
	assert.Contains(t, phases, "input")
	assert.Contains(t, phases, "cleanup")
}

type panickySystem struct{ phase Phase }

func (p *panickySystem) Phase() Phase         { return p.phase }
func (p *panickySystem) Update(time.Duration) { panic("boom") }

func TestRunnerSurvivesPanickingSystem(t *testing.T) {
	r := NewRunner(zap.NewNop())
	after := &recordingSystem{phase: PhaseUpdate}
	r.Register(&panickySystem{phase: PhaseInput})
	r.Register(after)

	require.NotPanics(t, func() { r.Tick(time.Second) })
	assert.Equal(t, 1, after.runs, "later systems still ran")

	_, _, ticks := r.PhaseTimings()
	assert.Equal(t, int64(1), ticks, "the tick completed")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "input", PhaseInput.String())
	assert.Equal(t, "persist", PhasePersist.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

package system

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Runner executes systems in phase order each tick. It also records how
// long each phase took on the last full tick, for the metrics endpoint.
type Runner struct {
	systems []System
	sorted  bool
	log     *zap.Logger

	lastPhase [phaseCount]time.Duration
	lastTick  time.Duration
	ticks     int64
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	tickStart := time.Now()
	r.lastPhase = [phaseCount]time.Duration{}
	for _, s := range r.systems {
		start := time.Now()
		r.runSystem(s, dt)
		r.lastPhase[s.Phase()] += time.Since(start)
	}
	r.lastTick = time.Since(tickStart)
	r.ticks++
}

// runSystem isolates a panicking system so the rest of the tick still runs:
// the failure is logged and at most that system's work is lost.
func (r *Runner) runSystem(s System, dt time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("system panicked",
				zap.String("phase", s.Phase().String()),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
	}()
	s.Update(dt)
}

// PhaseTimings reports the per-phase durations of the last full tick, the
// total tick duration, and the number of full ticks run. Game loop only.
func (r *Runner) PhaseTimings() (map[string]time.Duration, time.Duration, int64) {
	m := make(map[string]time.Duration, int(phaseCount))
	for p := Phase(0); p < phaseCount; p++ {
		m[p.String()] = r.lastPhase[p]
	}
	return m, r.lastTick, r.ticks
}

// TickPhase runs only the systems of one phase. Used between full ticks to
// poll input at high frequency without advancing game logic.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			r.runSystem(s, dt)
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.Slice(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}

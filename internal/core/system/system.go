package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session line queues
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: game logic (combat, effects)
	PhasePostUpdate              // 3: regen, respawn, cooldowns
	PhaseOutput                  // 4: flush session output buffers
	PhasePersist                 // 5: dirty-flag batch save
	PhaseCleanup                 // 6: reap dead sessions

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every game system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

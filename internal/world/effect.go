package world

import (
	"time"

	"github.com/google/uuid"
)

// EffectType enumerates the known effect kinds.
type EffectType string

const (
	EffectPoison          EffectType = "POISON"
	EffectRegen           EffectType = "REGEN"
	EffectStun            EffectType = "STUN"
	EffectBuff            EffectType = "BUFF"
	EffectDebuff          EffectType = "DEBUFF"
	EffectDOT             EffectType = "DOT"
	EffectHOT             EffectType = "HOT"
	EffectMovementBlock   EffectType = "MOVEMENT_BLOCK"
	EffectInstantDamage   EffectType = "INSTANT_DAMAGE"
	EffectInstantHeal     EffectType = "INSTANT_HEAL"
	EffectHaste           EffectType = "HASTE"
	EffectDamageReduction EffectType = "DAMAGE_REDUCTION"
	EffectAbsorb          EffectType = "ABSORB"
	EffectTaunt           EffectType = "TAUNT"
	EffectStealth         EffectType = "STEALTH"
	EffectSlow            EffectType = "SLOW"
	EffectFear            EffectType = "FEAR"
	EffectSilence         EffectType = "SILENCE"
	EffectBleed           EffectType = "BLEED"
)

// StackingBehavior decides what happens when an effect of the same type is
// applied to a target that already has one.
type StackingBehavior string

const (
	StackReplace    StackingBehavior = "REPLACE"
	StackRefresh    StackingBehavior = "REFRESH"
	StackDuration   StackingBehavior = "STACK_DURATION"
	StackIntensity  StackingBehavior = "STACK_INTENSITY"
	StrongestWins   StackingBehavior = "STRONGEST_WINS"
	StackIgnore     StackingBehavior = "IGNORE"
)

// stackDurationCap bounds STACK_DURATION at 10x the base duration.
const stackDurationCap = 10

// EffectPayload is the typed per-tick action of an effect, plus an
// open-ended metadata map for script-defined extensions.
type EffectPayload struct {
	DamagePerTick int               `json:"damagePerTick,omitempty"`
	HealPerTick   int               `json:"healPerTick,omitempty"`
	StatModifiers map[string]int    `json:"statModifiers,omitempty"`
	BlockMovement bool              `json:"blockMovement,omitempty"`
	BlockCombat   bool              `json:"blockCombat,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Magnitude is the comparison key for STRONGEST_WINS.
func (p EffectPayload) Magnitude() int {
	m := p.DamagePerTick + p.HealPerTick
	for _, v := range p.StatModifiers {
		if v < 0 {
			m -= v
		} else {
			m += v
		}
	}
	return m
}

// ActiveEffect is one named, time-bounded modifier on an entity.
type ActiveEffect struct {
	InstanceID  string     `json:"instanceId"`
	Type        EffectType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`

	DurationTicks   int   `json:"durationTicks"`
	RemainingTicks  int   `json:"remainingTicks"`
	TickInterval    int   `json:"tickInterval"`    // apply payload every N ticks; 0 = every tick
	LastTickApplied int64 `json:"lastTickApplied"`

	// Time-based effects expire on the wall clock instead of tick count but
	// are processed in the same tick pass.
	IsTimeBased bool      `json:"isTimeBased,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`

	Payload EffectPayload `json:"payload"`

	TargetID       string           `json:"targetId"`
	IsPlayerEffect bool             `json:"isPlayerEffect"`
	SourceID       string           `json:"sourceId,omitempty"`
	Stacking       StackingBehavior `json:"stackingBehavior"`
}

// NewEffect builds an effect with a fresh instance ID.
func NewEffect(typ EffectType, name string, duration, interval int, payload EffectPayload, stacking StackingBehavior) *ActiveEffect {
	return &ActiveEffect{
		InstanceID:     uuid.NewString(),
		Type:           typ,
		Name:           name,
		DurationTicks:  duration,
		RemainingTicks: duration,
		TickInterval:   interval,
		Payload:        payload,
		Stacking:       stacking,
	}
}

// EffectRegistry tracks active effects keyed by target. Insertion order per
// target is preserved. Game loop goroutine only.
type EffectRegistry struct {
	byTarget   map[string][]*ActiveEffect
	byInstance map[string]*ActiveEffect
}

func NewEffectRegistry() *EffectRegistry {
	return &EffectRegistry{
		byTarget:   make(map[string][]*ActiveEffect),
		byInstance: make(map[string]*ActiveEffect),
	}
}

// Apply inserts an effect on a target, resolving stacking against any
// existing effect of the same type. Returns the effect that is now active
// for that type (which may be the pre-existing one), or nil when the apply
// was ignored.
func (r *EffectRegistry) Apply(targetID string, e *ActiveEffect) *ActiveEffect {
	e.TargetID = targetID
	existing := r.FindByType(targetID, e.Type)
	if existing == nil {
		r.insert(e)
		return e
	}

	switch e.Stacking {
	case StackIgnore:
		return nil
	case StackReplace:
		r.Remove(existing.InstanceID)
		r.insert(e)
		return e
	case StackRefresh:
		existing.RemainingTicks = existing.DurationTicks
		if existing.IsTimeBased {
			existing.ExpiresAt = time.Now().Add(time.Duration(existing.DurationTicks) * time.Second)
		}
		return existing
	case StackDuration:
		existing.RemainingTicks += e.DurationTicks
		if cap := existing.DurationTicks * stackDurationCap; existing.RemainingTicks > cap {
			existing.RemainingTicks = cap
		}
		return existing
	case StackIntensity:
		// Both instances coexist under distinct instance IDs.
		r.insert(e)
		return e
	case StrongestWins:
		if e.Payload.Magnitude() > existing.Payload.Magnitude() {
			r.Remove(existing.InstanceID)
			r.insert(e)
			return e
		}
		return existing
	}
	// Unknown behavior: treat as REPLACE.
	r.Remove(existing.InstanceID)
	r.insert(e)
	return e
}

func (r *EffectRegistry) insert(e *ActiveEffect) {
	r.byTarget[e.TargetID] = append(r.byTarget[e.TargetID], e)
	r.byInstance[e.InstanceID] = e
}

// FindByType returns the first effect of the given type on a target.
func (r *EffectRegistry) FindByType(targetID string, typ EffectType) *ActiveEffect {
	for _, e := range r.byTarget[targetID] {
		if e.Type == typ {
			return e
		}
	}
	return nil
}

// Get returns an effect by instance ID, or nil.
func (r *EffectRegistry) Get(instanceID string) *ActiveEffect {
	return r.byInstance[instanceID]
}

// Remove deletes an effect by instance ID. Returns the removed effect so
// callers can reverse its stat modifiers.
func (r *EffectRegistry) Remove(instanceID string) *ActiveEffect {
	e, ok := r.byInstance[instanceID]
	if !ok {
		return nil
	}
	delete(r.byInstance, instanceID)
	list := r.byTarget[e.TargetID]
	for i, cur := range list {
		if cur.InstanceID == instanceID {
			r.byTarget[e.TargetID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.byTarget[e.TargetID]) == 0 {
		delete(r.byTarget, e.TargetID)
	}
	return e
}

// RemoveAllForTarget sweeps every effect on a removed entity.
func (r *EffectRegistry) RemoveAllForTarget(targetID string) []*ActiveEffect {
	list := r.byTarget[targetID]
	for _, e := range list {
		delete(r.byInstance, e.InstanceID)
	}
	delete(r.byTarget, targetID)
	return list
}

// ForTarget lists effects on a target in insertion order.
func (r *EffectRegistry) ForTarget(targetID string) []*ActiveEffect {
	return r.byTarget[targetID]
}

// ForEach iterates every active effect. The callback must not apply or
// remove effects; collect instance IDs and mutate afterwards.
func (r *EffectRegistry) ForEach(fn func(*ActiveEffect)) {
	for _, list := range r.byTarget {
		for _, e := range list {
			fn(e)
		}
	}
}

// Count returns the number of active effects.
func (r *EffectRegistry) Count() int {
	return len(r.byInstance)
}

// StatModifierTotal sums a named stat modifier across all effects on a
// target (for damage reduction, stat buffs and the like).
func (r *EffectRegistry) StatModifierTotal(targetID, stat string) int {
	total := 0
	for _, e := range r.byTarget[targetID] {
		total += e.Payload.StatModifiers[stat]
	}
	return total
}

// HasBlockingEffect reports whether any effect on the target blocks the
// given action ("movement" or "combat").
func (r *EffectRegistry) HasBlockingEffect(targetID string, action string) bool {
	for _, e := range r.byTarget[targetID] {
		if action == "movement" && e.Payload.BlockMovement {
			return true
		}
		if action == "combat" && e.Payload.BlockCombat {
			return true
		}
	}
	return false
}

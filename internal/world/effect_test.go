package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poison(duration, dpt int, stacking StackingBehavior) *ActiveEffect {
	return NewEffect(EffectPoison, "venom", duration, 2, EffectPayload{DamagePerTick: dpt}, stacking)
}

func TestEffectRegistryApply(t *testing.T) {
	t.Run("fresh effect inserts", func(t *testing.T) {
		r := NewEffectRegistry()
		e := poison(6, 2, StackRefresh)
		got := r.Apply("alice", e)
		require.Same(t, e, got)
		assert.Equal(t, 1, r.Count())
		assert.Equal(t, "alice", e.TargetID)
	})

	t.Run("REFRESH resets remaining ticks on the existing instance", func(t *testing.T) {
		r := NewEffectRegistry()
		first := poison(6, 2, StackRefresh)
		r.Apply("alice", first)
		first.RemainingTicks = 1

		got := r.Apply("alice", poison(6, 2, StackRefresh))
		require.Same(t, first, got)
		assert.Equal(t, 6, first.RemainingTicks)
		assert.Equal(t, 1, r.Count())
	})

	t.Run("STACK_DURATION extends and caps at 10x base", func(t *testing.T) {
		r := NewEffectRegistry()
		first := poison(6, 2, StackDuration)
		r.Apply("alice", first)

		for i := 0; i < 20; i++ {
			r.Apply("alice", poison(6, 2, StackDuration))
		}
		assert.Equal(t, 60, first.RemainingTicks)
		assert.Equal(t, 1, r.Count())
	})

	t.Run("STRONGEST_WINS keeps the bigger magnitude", func(t *testing.T) {
		r := NewEffectRegistry()
		weak := poison(6, 2, StrongestWins)
		r.Apply("alice", weak)

		strong := poison(6, 5, StrongestWins)
		got := r.Apply("alice", strong)
		require.Same(t, strong, got)
		assert.Nil(t, r.Get(weak.InstanceID))

		weaker := poison(6, 1, StrongestWins)
		got = r.Apply("alice", weaker)
		require.Same(t, strong, got)
		assert.Nil(t, r.Get(weaker.InstanceID))
	})

	t.Run("IGNORE returns nil when the type is present", func(t *testing.T) {
		r := NewEffectRegistry()
		r.Apply("alice", poison(6, 2, StackIgnore))
		assert.Nil(t, r.Apply("alice", poison(6, 2, StackIgnore)))
		assert.Equal(t, 1, r.Count())
	})

	t.Run("REPLACE swaps the instance", func(t *testing.T) {
		r := NewEffectRegistry()
		old := poison(6, 2, StackReplace)
		r.Apply("alice", old)
		next := poison(4, 3, StackReplace)
		got := r.Apply("alice", next)
		require.Same(t, next, got)
		assert.Nil(t, r.Get(old.InstanceID))
		assert.Equal(t, 1, r.Count())
	})

	t.Run("STACK_INTENSITY coexists", func(t *testing.T) {
		r := NewEffectRegistry()
		r.Apply("alice", poison(6, 2, StackIntensity))
		r.Apply("alice", poison(6, 2, StackIntensity))
		assert.Equal(t, 2, r.Count())
		assert.Len(t, r.ForTarget("alice"), 2)
	})

	t.Run("different types never interact", func(t *testing.T) {
		r := NewEffectRegistry()
		r.Apply("alice", poison(6, 2, StackIgnore))
		regen := NewEffect(EffectRegen, "salve", 4, 1, EffectPayload{HealPerTick: 3}, StackIgnore)
		require.NotNil(t, r.Apply("alice", regen))
		assert.Equal(t, 2, r.Count())
	})
}

func TestEffectRegistryRemove(t *testing.T) {
	r := NewEffectRegistry()
	e := poison(6, 2, StackRefresh)
	r.Apply("alice", e)

	removed := r.Remove(e.InstanceID)
	require.Same(t, e, removed)
	assert.Equal(t, 0, r.Count())
	assert.Nil(t, r.Remove(e.InstanceID))
	assert.Empty(t, r.ForTarget("alice"))
}

func TestEffectRegistryRemoveAllForTarget(t *testing.T) {
	r := NewEffectRegistry()
	r.Apply("alice", poison(6, 2, StackIntensity))
	r.Apply("alice", poison(6, 2, StackIntensity))
	r.Apply("bob", poison(6, 2, StackRefresh))

	swept := r.RemoveAllForTarget("alice")
	assert.Len(t, swept, 2)
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.FindByType("bob", EffectPoison))
}

func TestStatModifierTotal(t *testing.T) {
	r := NewEffectRegistry()
	r.Apply("alice", NewEffect(EffectBuff, "blessing", 30, 0,
		EffectPayload{StatModifiers: map[string]int{"damage_reduction": 2}}, StackRefresh))
	r.Apply("alice", NewEffect(EffectDebuff, "curse", 10, 0,
		EffectPayload{StatModifiers: map[string]int{"damage_reduction": -1}}, StackRefresh))

	assert.Equal(t, 1, r.StatModifierTotal("alice", "damage_reduction"))
	assert.Equal(t, 0, r.StatModifierTotal("alice", "strength"))
	assert.Equal(t, 0, r.StatModifierTotal("bob", "damage_reduction"))
}

func TestHasBlockingEffect(t *testing.T) {
	r := NewEffectRegistry()
	r.Apply("alice", NewEffect(EffectSlow, "shackles", 6, 2,
		EffectPayload{BlockMovement: true}, StackRefresh))

	assert.True(t, r.HasBlockingEffect("alice", "movement"))
	assert.False(t, r.HasBlockingEffect("alice", "combat"))
	assert.False(t, r.HasBlockingEffect("bob", "movement"))
}

func TestPayloadMagnitude(t *testing.T) {
	p := EffectPayload{
		DamagePerTick: 3,
		HealPerTick:   2,
		StatModifiers: map[string]int{"strength": 2, "agility": -1},
	}
	// Negative modifiers count toward magnitude too.
	assert.Equal(t, 8, p.Magnitude())
}

package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/world"
)

func TestEffectTickDamageAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	effects := NewEffectTickSystem(env.deps)

	e := world.NewEffect(world.EffectPoison, "venom", 3, 1,
		world.EffectPayload{DamagePerTick: 2}, world.StackRefresh)
	e.IsPlayerEffect = true
	env.deps.World.Effects.Apply("alice", e)

	var expired []event.EffectExpired
	event.Subscribe(env.deps.Bus, func(ev event.EffectExpired) { expired = append(expired, ev) })

	for i := 0; i < 3; i++ {
		env.tick++
		effects.Update(0)
	}

	assert.Equal(t, 34, u.Health) // three ticks of 2 damage
	assert.Empty(t, env.deps.World.Effects.ForTarget("alice"))

	env.deps.Bus.SwapBuffers()
	env.deps.Bus.DispatchAll()
	require.Len(t, expired, 1)
	assert.Equal(t, "venom", expired[0].Name)
	assert.True(t, expired[0].IsPlayer)
}

func TestEffectTickIntervalGatesPayload(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	effects := NewEffectTickSystem(env.deps)

	e := world.NewEffect(world.EffectPoison, "slow venom", 6, 3,
		world.EffectPayload{DamagePerTick: 5}, world.StackRefresh)
	e.IsPlayerEffect = true
	env.deps.World.Effects.Apply("alice", e)

	start := u.Health
	for i := 0; i < 6; i++ {
		env.tick++
		effects.Update(0)
	}
	// Interval 3 over 6 ticks of duration: the payload lands twice.
	assert.Equal(t, start-10, u.Health)
	assert.Empty(t, env.deps.World.Effects.ForTarget("alice"))
}

func TestEffectTickHealsCapped(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	effects := NewEffectTickSystem(env.deps)
	u.Health = 37

	e := world.NewEffect(world.EffectRegen, "salve", 4, 1,
		world.EffectPayload{HealPerTick: 5}, world.StackRefresh)
	e.IsPlayerEffect = true
	env.deps.World.Effects.Apply("alice", e)

	env.tick++
	effects.Update(0)
	assert.Equal(t, 40, u.Health)
}

func TestEffectDroppedWhenTargetVanishes(t *testing.T) {
	env := newTestEnv(t)
	effects := NewEffectTickSystem(env.deps)

	e := world.NewEffect(world.EffectPoison, "venom", 10, 1,
		world.EffectPayload{DamagePerTick: 1}, world.StackRefresh)
	env.deps.World.Effects.Apply("gone-npc", e)

	env.tick++
	effects.Update(0)
	assert.Equal(t, 0, env.deps.World.Effects.Count())
}

func TestCooldownCountdown(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, false)
	cooldowns := NewCooldownSystem(env.deps)

	u.Cooldowns = map[string]int{"firebolt": 2, "rend": 1}
	cooldowns.Update(0)
	assert.Equal(t, map[string]int{"firebolt": 1}, u.Cooldowns)
	cooldowns.Update(0)
	assert.Empty(t, u.Cooldowns)
}

func TestRespawnSystemSpawns(t *testing.T) {
	env := newTestEnv(t)
	respawns := NewRespawnSystem(env.deps)

	env.deps.World.QueueRespawn("rat", "forest", 2)
	respawns.Update(0)
	assert.Empty(t, env.deps.World.NpcsInRoom("forest"))
	respawns.Update(0)
	assert.Len(t, env.deps.World.NpcsInRoom("forest"), 1)
}

func TestRegenSystemSkipsOfflineUsers(t *testing.T) {
	env := newTestEnv(t)
	online := env.addUser(t, "alice", 1, false)
	online.Health = 10

	offline := &world.User{
		Username: "bob", Health: 10, MaxHealth: 40,
		Stats: world.Stats{Constitution: 10}, CurrentRoomID: "forest",
	}
	require.NoError(t, env.deps.World.AddUser(offline))

	regen := NewRegenSystem(env.deps)
	regen.Update(0)

	assert.Greater(t, online.Health, 10)
	assert.Equal(t, 10, offline.Health)
}

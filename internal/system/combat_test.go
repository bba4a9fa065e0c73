package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/world"
)

func TestCombatKillsAwardXPAndLoot(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	combat := NewCombatSystem(env.deps)

	npc, err := env.deps.World.SpawnNpc("rat", "forest")
	require.NoError(t, err)
	u.InCombat = true
	u.CombatTarget = npc.InstanceID
	npc.AddHate("alice", 1)

	var killed []event.NpcKilled
	event.Subscribe(env.deps.Bus, func(e event.NpcKilled) { killed = append(killed, e) })
	var levels []event.LevelUp
	event.Subscribe(env.deps.Bus, func(e event.LevelUp) { levels = append(levels, e) })

	// The rat has 20 HP and the player hits for at least 5 at a 95% hit
	// chance; a hundred rounds is far more than enough.
	for i := 0; i < 100 && env.deps.World.Npc(npc.InstanceID) != nil; i++ {
		env.tick++
		combat.Update(0)
	}

	require.Nil(t, env.deps.World.Npc(npc.InstanceID), "npc should be dead")

	// Events surface one tick after they are emitted.
	env.deps.Bus.SwapBuffers()
	env.deps.Bus.DispatchAll()
	require.Len(t, killed, 1)
	assert.Equal(t, "alice", killed[0].TopAttacker)

	// Sole attacker takes the full 1200 XP and crosses the level-2 line.
	assert.GreaterOrEqual(t, u.Experience, int64(1200))
	assert.Equal(t, 2, u.Level)
	require.Len(t, levels, 1)
	assert.Equal(t, u.MaxHealth, u.Health, "level up refills health")

	// 100% loot table entry always drops.
	var pelts int
	for _, id := range env.deps.World.RoomStateFor("forest").Items {
		inst := env.deps.World.Item(id)
		require.NotNil(t, inst)
		if inst.TemplateID == "pelt" {
			pelts++
		}
	}
	assert.Equal(t, 1, pelts)

	// Respawn was scheduled.
	assert.Equal(t, 1, env.deps.World.PendingRespawns())
	assert.False(t, u.InCombat)
}

func TestCombatNpcRoundDamagesTopHateTarget(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice", 1, true)
	bob := env.addUser(t, "bob", 2, true)
	combat := NewCombatSystem(env.deps)

	npc, err := env.deps.World.SpawnNpc("rat", "forest")
	require.NoError(t, err)
	npc.AddHate("alice", 5)
	npc.AddHate("bob", 50)

	before := bob.Health
	combat.npcRound(npc)

	// Fixed 3/3 damage spread, nobody wears armor.
	assert.Equal(t, before-3, bob.Health)
	assert.Equal(t, alice.MaxHealth, alice.Health)
	assert.True(t, bob.InCombat)
	assert.Equal(t, npc.InstanceID, bob.CombatTarget)
}

func TestCombatNpcCalmsWhenRoomEmpties(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	combat := NewCombatSystem(env.deps)

	npc, err := env.deps.World.SpawnNpc("rat", "forest")
	require.NoError(t, err)
	npc.AddHate("alice", 10)

	// MoveUser sweeps the hate entry; any stale residue still yields no
	// eligible target and the NPC calms down.
	require.NoError(t, env.deps.World.MoveUser(u, "square"))
	npc.AddHate("ghost", 10)
	combat.npcRound(npc)
	assert.Empty(t, npc.HateList)
}

func TestCombatPassiveNpcsNeverSwing(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	combat := NewCombatSystem(env.deps)

	require.NoError(t, env.deps.World.AddNpcTemplate(&world.NpcTemplate{
		ID: "elder", Name: "the elder", MaxHealth: 20,
		DamageMin: 3, DamageMax: 3,
	}))
	require.NoError(t, env.deps.World.AddNpcTemplate(&world.NpcTemplate{
		ID: "guard", Name: "a guard", MaxHealth: 20,
		DamageMin: 3, DamageMax: 3, PassiveRetaliator: true,
	}))

	elder, err := env.deps.World.SpawnNpc("elder", "forest")
	require.NoError(t, err)
	elder.AddHate("alice", 10)

	before := u.Health
	for i := 0; i < 10; i++ {
		combat.Update(0)
	}
	assert.Equal(t, before, u.Health, "neither hostile nor retaliator, so no swings")
	assert.Equal(t, 10, elder.HateList["alice"], "it still remembers who hit it")

	guard, err := env.deps.World.SpawnNpc("guard", "forest")
	require.NoError(t, err)
	guard.AddHate("alice", 10)
	combat.Update(0)
	assert.Less(t, u.Health, before, "a retaliator fights back")
}

func TestCombatDisengagesWhenTargetGone(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	combat := NewCombatSystem(env.deps)

	u.InCombat = true
	u.CombatTarget = "no-such-npc"
	combat.Update(0)
	assert.False(t, u.InCombat)
	assert.Empty(t, u.CombatTarget)
}

func TestDotKillAttributesToCaster(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	effects := NewEffectTickSystem(env.deps)
	combat := NewCombatSystem(env.deps)

	npc, err := env.deps.World.SpawnNpc("rat", "forest")
	require.NoError(t, err)
	npc.Health = 2

	e := world.NewEffect(world.EffectPoison, "venom", 4, 1,
		world.EffectPayload{DamagePerTick: 2}, world.StackRefresh)
	e.SourceID = "alice"
	env.deps.World.Effects.Apply(npc.InstanceID, e)

	env.tick++
	effects.Update(0)
	assert.LessOrEqual(t, npc.Health, 0)
	assert.Equal(t, "alice", npc.TopHate())

	combat.Update(0)
	assert.Nil(t, env.deps.World.Npc(npc.InstanceID))
	assert.GreaterOrEqual(t, u.Experience, int64(1200), "DOT kill still pays out")
}

func TestWeaponProcAppliesEffect(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "alice", 1, true)
	combat := NewCombatSystem(env.deps)

	blade, err := env.deps.World.SpawnItem("fang_blade", "system")
	require.NoError(t, err)
	env.deps.World.GiveItemToUser(blade.InstanceID, u, "")
	require.NoError(t, env.deps.World.EquipItem(u, blade.InstanceID, world.SlotMainHand))

	npc, err := env.deps.World.SpawnNpc("rat", "forest")
	require.NoError(t, err)

	combat.applyWeaponProc(u, npc)

	poison := env.deps.World.Effects.FindByType(npc.InstanceID, world.EffectPoison)
	require.NotNil(t, poison)
	assert.Equal(t, "alice", poison.SourceID)
	assert.False(t, poison.IsPlayerEffect)
}

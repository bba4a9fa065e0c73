package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	require.NoError(t, s.AddRoom(&Room{ID: "square", Name: "Town Square", Flags: []string{"safe"}}))
	require.NoError(t, s.AddRoom(&Room{ID: "gate", Name: "South Gate"}))
	require.NoError(t, s.AddItemTemplate(&ItemTemplate{
		ID: "sword", Name: "a sword", Type: ItemWeapon, Slot: SlotMainHand, Damage: 4,
	}))
	require.NoError(t, s.AddItemTemplate(&ItemTemplate{
		ID: "cap", Name: "a cap", Type: ItemArmor, Slot: SlotHead, Defense: 1,
		StatBonuses: map[string]int{"agility": 1},
	}))
	require.NoError(t, s.AddNpcTemplate(&NpcTemplate{
		ID: "rat", Name: "a rat", MaxHealth: 20, DamageMin: 1, DamageMax: 3, RespawnTicks: 5,
	}))
	return s
}

func testUser(name string) *User {
	return &User{Username: name, Health: 30, MaxHealth: 30, Level: 1, CurrentRoomID: "square"}
}

func TestAddUserFoldsAndRejectsDuplicates(t *testing.T) {
	s := testState(t)
	require.NoError(t, s.AddUser(testUser("Alice")))
	assert.Error(t, s.AddUser(testUser("alice")))
	assert.NotNil(t, s.GetUser("ALICE"))
}

func TestSetUserOnlineOffline(t *testing.T) {
	s := testState(t)
	u := testUser("alice")
	require.NoError(t, s.AddUser(u))

	t.Run("online binds session and room index", func(t *testing.T) {
		s.SetUserOnline(u, 7, "square")
		assert.True(t, s.IsOnline("alice"))
		assert.Equal(t, uint64(7), s.OnlineSession("Alice"))
		assert.Equal(t, []string{"alice"}, s.PlayersInRoom("square"))
	})

	t.Run("unknown saved room falls back to start room", func(t *testing.T) {
		b := testUser("bob")
		b.CurrentRoomID = "demolished"
		require.NoError(t, s.AddUser(b))
		s.SetUserOnline(b, 8, "square")
		assert.Equal(t, "square", b.CurrentRoomID)
	})

	t.Run("offline clears index, effects and combat state", func(t *testing.T) {
		s.Effects.Apply("alice", NewEffect(EffectPoison, "venom", 6, 2,
			EffectPayload{DamagePerTick: 1}, StackRefresh))
		u.InCombat = true
		u.IsResting = true

		s.SetUserOffline(u)
		assert.False(t, s.IsOnline("alice"))
		assert.NotContains(t, s.PlayersInRoom("square"), "alice")
		assert.Equal(t, 0, len(s.Effects.ForTarget("alice")))
		assert.False(t, u.InCombat)
		assert.False(t, u.IsResting)
	})
}

func TestMoveUser(t *testing.T) {
	s := testState(t)
	u := testUser("alice")
	require.NoError(t, s.AddUser(u))
	s.SetUserOnline(u, 1, "square")

	npc, err := s.SpawnNpc("rat", "square")
	require.NoError(t, err)
	npc.AddHate("alice", 5)
	u.InCombat = true
	u.CombatTarget = npc.InstanceID

	require.NoError(t, s.MoveUser(u, "gate"))
	assert.Equal(t, "gate", u.CurrentRoomID)
	assert.Empty(t, s.PlayersInRoom("square"))
	assert.Equal(t, []string{"alice"}, s.PlayersInRoom("gate"))

	// Leaving the room drops aggro on both sides.
	assert.Empty(t, npc.HateList)
	assert.False(t, u.InCombat)
	assert.Empty(t, u.CombatTarget)

	assert.Error(t, s.MoveUser(u, "nowhere"))
	assert.Equal(t, "gate", u.CurrentRoomID)
}

func TestItemOwnershipMoves(t *testing.T) {
	s := testState(t)
	u := testUser("alice")
	require.NoError(t, s.AddUser(u))
	s.SetUserOnline(u, 1, "square")

	inst, err := s.SpawnItem("sword", "system")
	require.NoError(t, err)

	t.Run("floor to inventory", func(t *testing.T) {
		rs := s.RoomStateFor("square")
		rs.Items = append(rs.Items, inst.InstanceID)

		s.GiveItemToUser(inst.InstanceID, u, "square")
		assert.Empty(t, rs.Items)
		assert.Equal(t, []string{inst.InstanceID}, u.Inventory)
	})

	t.Run("equip moves out of inventory into the slot", func(t *testing.T) {
		require.NoError(t, s.EquipItem(u, inst.InstanceID, SlotMainHand))
		assert.Empty(t, u.Inventory)
		assert.Equal(t, inst.InstanceID, u.Equipment[SlotMainHand])

		// Occupied slot refuses a second equip.
		other, _ := s.SpawnItem("sword", "system")
		s.GiveItemToUser(other.InstanceID, u, "")
		assert.Error(t, s.EquipItem(u, other.InstanceID, SlotMainHand))
	})

	t.Run("unequip returns to inventory", func(t *testing.T) {
		id, err := s.UnequipItem(u, SlotMainHand)
		require.NoError(t, err)
		assert.Equal(t, inst.InstanceID, id)
		assert.Contains(t, u.Inventory, id)

		_, err = s.UnequipItem(u, SlotMainHand)
		assert.Error(t, err)
	})

	t.Run("drop moves to the floor", func(t *testing.T) {
		s.DropItemToRoom(inst.InstanceID, u, "square")
		assert.NotContains(t, u.Inventory, inst.InstanceID)
		assert.Contains(t, s.RoomStateFor("square").Items, inst.InstanceID)
	})

	t.Run("equip requires inventory ownership", func(t *testing.T) {
		assert.Error(t, s.EquipItem(u, inst.InstanceID, SlotMainHand))
	})
}

func TestEquipmentMath(t *testing.T) {
	s := testState(t)
	u := testUser("alice")
	require.NoError(t, s.AddUser(u))

	assert.Equal(t, 0, s.WeaponDamage(u))

	sword, _ := s.SpawnItem("sword", "system")
	cap_, _ := s.SpawnItem("cap", "system")
	s.GiveItemToUser(sword.InstanceID, u, "")
	s.GiveItemToUser(cap_.InstanceID, u, "")
	require.NoError(t, s.EquipItem(u, sword.InstanceID, SlotMainHand))
	require.NoError(t, s.EquipItem(u, cap_.InstanceID, SlotHead))

	assert.Equal(t, 4, s.WeaponDamage(u))
	assert.Equal(t, 1, s.ArmorDefense(u))
	assert.Equal(t, 1, s.EquipmentBonus(u, "agility"))
	assert.Equal(t, 0, s.EquipmentBonus(u, "strength"))
}

func TestRespawnQueue(t *testing.T) {
	s := testState(t)
	s.QueueRespawn("rat", "square", 3)

	assert.Empty(t, s.TickRespawns())
	assert.Empty(t, s.TickRespawns())
	spawned := s.TickRespawns()
	require.Len(t, spawned, 1)
	assert.Equal(t, "rat", spawned[0].TemplateID)
	assert.Equal(t, 0, s.PendingRespawns())
	assert.Len(t, s.NpcsInRoom("square"), 1)

	t.Run("vanished template drops the entry", func(t *testing.T) {
		s.QueueRespawn("dodo", "square", 1)
		assert.Empty(t, s.TickRespawns())
		assert.Equal(t, 0, s.PendingRespawns())
	})
}

func TestRemoveNpcClearsEngagement(t *testing.T) {
	s := testState(t)
	u := testUser("alice")
	require.NoError(t, s.AddUser(u))
	s.SetUserOnline(u, 1, "square")

	npc, err := s.SpawnNpc("rat", "square")
	require.NoError(t, err)
	npc.AddHate("alice", 10)
	u.InCombat = true
	u.CombatTarget = npc.InstanceID
	s.Effects.Apply(npc.InstanceID, NewEffect(EffectPoison, "venom", 6, 2,
		EffectPayload{DamagePerTick: 1}, StackRefresh))

	removed := s.RemoveNpc(npc.InstanceID)
	require.Same(t, npc, removed)
	assert.Nil(t, s.Npc(npc.InstanceID))
	assert.Empty(t, s.NpcsInRoom("square"))
	assert.Empty(t, s.Effects.ForTarget(npc.InstanceID))
	assert.False(t, u.InCombat)
	assert.Empty(t, u.CombatTarget)
}

func TestMerchantStockCopiedAtSpawn(t *testing.T) {
	s := testState(t)
	require.NoError(t, s.AddNpcTemplate(&NpcTemplate{
		ID: "shop", Name: "a shopkeeper", MaxHealth: 50, IsMerchant: true,
		Stock: []MerchantStock{
			{TemplateID: "sword", Quantity: 2},
			{TemplateID: "cap", Quantity: -1},
		},
	}))
	npc, err := s.SpawnNpc("shop", "square")
	require.NoError(t, err)
	assert.Equal(t, 2, npc.StockLeft["sword"])
	assert.Equal(t, -1, npc.StockLeft["cap"])
}

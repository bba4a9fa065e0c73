package world

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPForLevel(t *testing.T) {
	assert.Equal(t, int64(0), XPForLevel(1))
	assert.Equal(t, int64(0), XPForLevel(0))
	assert.Equal(t, int64(1000), XPForLevel(2))
	assert.Equal(t, int64(4000), XPForLevel(3))
	assert.Equal(t, int64(81000), XPForLevel(10))
}

func TestApplyDamage(t *testing.T) {
	t.Run("damage breaks rest and meditation", func(t *testing.T) {
		u := &User{Health: 20, MaxHealth: 20, IsResting: true, IsMeditating: true}
		dropped := u.ApplyDamage(5)
		assert.False(t, dropped)
		assert.Equal(t, 15, u.Health)
		assert.False(t, u.IsResting)
		assert.False(t, u.IsMeditating)
	})

	t.Run("overkill clamps at zero and knocks out", func(t *testing.T) {
		u := &User{Health: 3, MaxHealth: 20, InCombat: true, CombatTarget: "npc-1"}
		dropped := u.ApplyDamage(50)
		assert.True(t, dropped)
		assert.Equal(t, 0, u.Health)
		assert.True(t, u.IsUnconscious)
		assert.False(t, u.InCombat)
		assert.Empty(t, u.CombatTarget)
	})

	t.Run("non-positive damage is a no-op", func(t *testing.T) {
		u := &User{Health: 20, MaxHealth: 20, IsResting: true}
		assert.False(t, u.ApplyDamage(0))
		assert.True(t, u.IsResting)
	})
}

func TestHeal(t *testing.T) {
	u := &User{Health: 0, MaxHealth: 20, IsUnconscious: true}
	u.Heal(5)
	assert.Equal(t, 5, u.Health)
	assert.False(t, u.IsUnconscious)

	u.Heal(100)
	assert.Equal(t, 20, u.Health)
}

func TestFlags(t *testing.T) {
	u := &User{}
	assert.False(t, u.IsAdmin())
	u.SetFlag("admin", true)
	assert.True(t, u.IsAdmin())
	u.SetFlag("admin", false)
	assert.False(t, u.HasFlag("admin"))
	assert.NotContains(t, u.Flags, "admin")
}

func TestRecordCommandRing(t *testing.T) {
	u := &User{}
	for i := 0; i < 35; i++ {
		u.RecordCommand(fmt.Sprintf("say hello %d", i))
	}
	assert.Len(t, u.CommandHistory, 30)
	assert.Equal(t, "say hello 5", u.CommandHistory[0])
	assert.Equal(t, "say hello 34", u.CommandHistory[29])
}

func TestAdminMessageQueue(t *testing.T) {
	u := &User{}
	u.QueueAdminMessage("behave")
	u.QueueAdminMessage("last warning")

	msgs := u.DrainAdminMessages()
	assert.Equal(t, []string{"behave", "last warning"}, msgs)
	assert.Empty(t, u.DrainAdminMessages())
}

func TestCurrencyTotalCopper(t *testing.T) {
	c := Currency{Gold: 1, Silver: 2, Copper: 3}
	assert.Equal(t, 10203, c.TotalCopper())
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("Alice"), FoldName("aLiCe"))
	assert.Equal(t, "Alice", DisplayName("alice"))
}

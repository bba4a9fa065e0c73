package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mudgo/server/internal/world"
)

func writeYAML(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoomTable(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeYAML(t, "rooms.yaml", `
areas:
  - id: town
    name: Town
rooms:
  - id: square
    name: Square
    area: town
    exits:
      - direction: north
        target: gate
  - id: gate
    name: Gate
    exits:
      - direction: south
        target: square
        locked: true
        key: gate_key
`)
		tbl, err := LoadRoomTable(path)
		require.NoError(t, err)
		assert.Equal(t, 2, tbl.Count())

		gate := tbl.Get("gate")
		require.NotNil(t, gate)
		ex := gate.ExitTo(world.South)
		require.NotNil(t, ex)
		assert.True(t, ex.Locked)
		assert.Equal(t, "gate_key", ex.KeyID)
	})

	t.Run("exit to unknown room fails", func(t *testing.T) {
		path := writeYAML(t, "rooms.yaml", `
rooms:
  - id: square
    name: Square
    exits:
      - direction: north
        target: nowhere
`)
		_, err := LoadRoomTable(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nowhere")
	})

	t.Run("duplicate room id fails", func(t *testing.T) {
		path := writeYAML(t, "rooms.yaml", `
rooms:
  - id: square
    name: Square
  - id: square
    name: Other Square
`)
		_, err := LoadRoomTable(path)
		assert.Error(t, err)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := writeYAML(t, "rooms.yaml", "rooms: [unclosed")
		_, err := LoadRoomTable(path)
		assert.Error(t, err)
	})
}

func TestLoadNpcTable(t *testing.T) {
	t.Run("spawn referencing unknown template fails", func(t *testing.T) {
		path := writeYAML(t, "npcs.yaml", `
npcs:
  - id: rat
    name: a rat
    max_health: 10
spawns:
  - npc: dragon
    room: square
`)
		_, err := LoadNpcTable(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dragon")
	})

	t.Run("merchant stock and loot parse", func(t *testing.T) {
		path := writeYAML(t, "npcs.yaml", `
npcs:
  - id: shop
    name: a shopkeeper
    max_health: 50
    merchant: true
    stock:
      - item: sword
        price: 100
        quantity: 2
  - id: rat
    name: a rat
    max_health: 10
    hostile: true
    loot:
      pelt: 60
spawns:
  - npc: rat
    room: square
    count: 3
`)
		tbl, err := LoadNpcTable(path)
		require.NoError(t, err)

		shop := tbl.Get("shop")
		require.NotNil(t, shop)
		assert.True(t, shop.IsMerchant)
		require.Len(t, shop.Stock, 1)
		assert.Equal(t, 2, shop.Stock[0].Quantity)

		rat := tbl.Get("rat")
		require.NotNil(t, rat)
		assert.True(t, rat.Hostile)
		assert.Equal(t, 60, rat.Loot["pelt"])

		require.Len(t, tbl.Spawns(), 1)
		assert.Equal(t, 3, tbl.Spawns()[0].Count)
	})
}

func TestLoadAbilityTable(t *testing.T) {
	path := writeYAML(t, "abilities.yaml", `
abilities:
  - id: firebolt
    name: Firebolt
    class: mage
    min_level: 1
    mana_cost: 8
    damage: 10
  - id: rend
    name: Rend
    class: warrior
    min_level: 2
    resource_cost: 30
    effect:
      type: BLEED
      duration_ticks: 8
      tick_interval: 2
      damage_per_tick: 3
      stacking: STACK_DURATION
`)
	tbl, err := LoadAbilityTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())

	t.Run("ForClass filters by class and level", func(t *testing.T) {
		assert.Len(t, tbl.ForClass("mage", 1), 1)
		assert.Empty(t, tbl.ForClass("warrior", 1))
		assert.Len(t, tbl.ForClass("warrior", 2), 1)
	})

	t.Run("BuildEffect fills defaults", func(t *testing.T) {
		rend := tbl.Get("rend")
		require.NotNil(t, rend)
		e := rend.BuildEffect("alice")
		require.NotNil(t, e)
		assert.Equal(t, world.EffectBleed, e.Type)
		assert.Equal(t, "Rend", e.Name) // falls back to the ability name
		assert.Equal(t, world.StackDuration, e.Stacking)
		assert.Equal(t, 8, e.RemainingTicks)
		assert.Equal(t, "alice", e.SourceID)

		assert.Nil(t, tbl.Get("firebolt").BuildEffect("alice"))
	})
}

func TestLoadClassTable(t *testing.T) {
	path := writeYAML(t, "classes.yaml", `
classes:
  - id: warrior
    name: Warrior
    base_health: 30
    base_stats:
      strength: 14
      constitution: 13
    starting_items: [rusty_sword]
races:
  - id: dwarf
    name: Dwarf
    stat_modifiers:
      constitution: 2
      agility: -1
`)
	tbl, err := LoadClassTable(path)
	require.NoError(t, err)

	w := tbl.Class("warrior")
	require.NotNil(t, w)
	assert.Equal(t, 30, w.BaseHealth)
	assert.Equal(t, 14, w.BaseStats.Strength)
	assert.Equal(t, []string{"rusty_sword"}, w.StartingItems)

	d := tbl.Race("dwarf")
	require.NotNil(t, d)
	assert.Equal(t, 2, d.StatModifiers.Constitution)
	assert.Equal(t, -1, d.StatModifiers.Agility)

	assert.Nil(t, tbl.Class("bard"))
}

func TestLoadHelpTable(t *testing.T) {
	path := writeYAML(t, "help.yaml", `
topics:
  - name: combat
    aliases: [fight, attack]
    summary: How fighting works.
    body: Hit things until they stop moving.
  - name: admin
    summary: Staff commands.
    admin_only: true
    body: With great power...
`)
	tbl, err := LoadHelpTable(path)
	require.NoError(t, err)

	assert.NotNil(t, tbl.Get("combat"))
	assert.Same(t, tbl.Get("combat"), tbl.Get("fight"))
	assert.Nil(t, tbl.Get("baking"))
	assert.True(t, tbl.Get("admin").AdminOnly)
	assert.Len(t, tbl.Topics(), 2)
}

// TestLoadShippedTables loads the world content that ships in data/world,
// catching broken cross-references (exits, spawn rooms, proc effects,
// starting items) before they reach a running server.
func TestLoadShippedTables(t *testing.T) {
	tables, err := LoadTables(filepath.Join("..", "..", "data", "world"), zap.NewNop())
	require.NoError(t, err)

	assert.Greater(t, tables.Rooms.Count(), 0)
	assert.Greater(t, tables.Items.Count(), 0)
	assert.Greater(t, tables.Npcs.Count(), 0)
	assert.Greater(t, tables.Abilities.Count(), 0)
	assert.Greater(t, tables.Classes.ClassCount(), 0)

	t.Run("spawn rooms exist", func(t *testing.T) {
		for _, sp := range tables.Npcs.Spawns() {
			assert.NotNil(t, tables.Rooms.Get(sp.RoomID), "spawn room %s", sp.RoomID)
		}
	})

	t.Run("weapon proc effects resolve to abilities", func(t *testing.T) {
		tables.Items.ForEach(func(tmpl *world.ItemTemplate) {
			if tmpl.ProcEffect != "" {
				assert.NotNil(t, tables.Abilities.Get(tmpl.ProcEffect),
					"item %s proc %s", tmpl.ID, tmpl.ProcEffect)
			}
		})
	})

	t.Run("class starting items and resources resolve", func(t *testing.T) {
		for _, id := range tables.Classes.ClassIDs() {
			c := tables.Classes.Class(id)
			for _, item := range c.StartingItems {
				assert.NotNil(t, tables.Items.Get(item), "class %s item %s", id, item)
			}
			assert.NotEqual(t, world.ResourceNone, world.ResourceFor(id), "class %s", id)
		}
	})

	t.Run("merchant stock and loot resolve to items", func(t *testing.T) {
		tables.Npcs.ForEach(func(tmpl *world.NpcTemplate) {
			for _, st := range tmpl.Stock {
				assert.NotNil(t, tables.Items.Get(st.TemplateID), "npc %s stock %s", tmpl.ID, st.TemplateID)
			}
			for lootID := range tmpl.Loot {
				assert.NotNil(t, tables.Items.Get(lootID), "npc %s loot %s", tmpl.ID, lootID)
			}
		})
	})
}

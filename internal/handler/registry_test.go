package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	RegisterAll(reg)
	return reg
}

func TestRegistryResolve(t *testing.T) {
	reg := gameRegistry(t)

	t.Run("exact name", func(t *testing.T) {
		cmd, amb := reg.Resolve("look", false)
		require.NotNil(t, cmd)
		assert.Equal(t, "look", cmd.Name)
		assert.Empty(t, amb)
	})

	t.Run("exact alias beats prefix", func(t *testing.T) {
		// "s" is the alias for south even though say, sell, score... share
		// the prefix.
		cmd, amb := reg.Resolve("s", false)
		require.NotNil(t, cmd)
		assert.Equal(t, "south", cmd.Name)
		assert.Empty(t, amb)
	})

	t.Run("unique prefix resolves", func(t *testing.T) {
		cmd, _ := reg.Resolve("att", false)
		require.NotNil(t, cmd)
		assert.Equal(t, "attack", cmd.Name)

		cmd, _ = reg.Resolve("inv", false)
		require.NotNil(t, cmd)
		assert.Equal(t, "inventory", cmd.Name)
	})

	t.Run("ambiguous prefix lists candidates", func(t *testing.T) {
		cmd, amb := reg.Resolve("se", true)
		assert.Nil(t, cmd)
		assert.Contains(t, amb, "sell")
		assert.Contains(t, amb, "setflag")
	})

	t.Run("admin commands invisible to players", func(t *testing.T) {
		// Exact name of a staff command resolves to nothing for a player.
		cmd, amb := reg.Resolve("kick", false)
		assert.Nil(t, cmd)
		assert.Empty(t, amb)

		// And staff commands never make a player's prefix ambiguous:
		// "sh" is shout for a player, shout-or-shutdown for an admin.
		cmd, _ = reg.Resolve("sh", false)
		require.NotNil(t, cmd)
		assert.Equal(t, "shout", cmd.Name)

		cmd, amb = reg.Resolve("sh", true)
		assert.Nil(t, cmd)
		assert.Equal(t, []string{"shout", "shutdown"}, amb)
	})

	t.Run("unknown verb", func(t *testing.T) {
		cmd, amb := reg.Resolve("xyzzy", true)
		assert.Nil(t, cmd)
		assert.Empty(t, amb)
	})
}

func TestRegistryCommands(t *testing.T) {
	reg := gameRegistry(t)
	all := reg.Commands(true)
	visible := reg.Commands(false)
	assert.Greater(t, len(all), len(visible))
	for _, c := range visible {
		assert.False(t, c.AdminOnly, c.Name)
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Command{Name: "look", Aliases: []string{"l"}})
	assert.Panics(t, func() {
		reg.Register(&Command{Name: "look"})
	})
	assert.Panics(t, func() {
		reg.Register(&Command{Name: "leer", Aliases: []string{"l"}})
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, 2*time.Second, cfg.Game.TickInterval)
	assert.Equal(t, 150, cfg.Game.SaveIntervalTicks)
	assert.Equal(t, "town_square", cfg.Game.StartRoomID)
	assert.Equal(t, 3, cfg.Game.MaxLoginAttempts)
	assert.Equal(t, 30*time.Second, cfg.Game.TransferTimeout)
	assert.Equal(t, 12*time.Hour, cfg.Admin.TokenLifetime)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad(t *testing.T) {
	t.Run("file values override defaults, rest keep them", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[server]
name = "Emberfall"

[game]
tick_interval = "500ms"
start_room_id = "temple_gate"

[store]
backend = "sqlite"
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Emberfall", cfg.Server.Name)
		assert.Equal(t, 500*time.Millisecond, cfg.Game.TickInterval)
		assert.Equal(t, "temple_gate", cfg.Game.StartRoomID)
		assert.Equal(t, "sqlite", cfg.Store.Backend)

		// Untouched sections keep defaults.
		assert.Equal(t, 150, cfg.Game.SaveIntervalTicks)
		assert.Equal(t, "0.0.0.0:8023", cfg.Network.TelnetAddress)
		assert.NotZero(t, cfg.Server.StartTime)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})

	t.Run("malformed toml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server\nname="), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestDefaultMudConfig(t *testing.T) {
	cfg := Defaults()
	mud := DefaultMudConfig(cfg)
	assert.Equal(t, 900, mud.IdleTimeoutSeconds)
	assert.Equal(t, 150, mud.SaveIntervalTicks)
	assert.Equal(t, 2000, mud.TickIntervalMS)
	assert.False(t, mud.TickPaused)
	assert.False(t, mud.SignupsDisabled)
}

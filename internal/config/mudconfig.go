package config

// MudConfig holds runtime-tunable game settings. Unlike Config it is
// persisted in the mud_config collection and editable over the admin API
// while the server runs. Changes take effect on the next tick.
type MudConfig struct {
	IdleTimeoutSeconds int  `json:"idleTimeoutSeconds"`
	SaveIntervalTicks  int  `json:"saveIntervalTicks"`
	TickIntervalMS     int  `json:"tickIntervalMs"`
	TickPaused         bool `json:"tickPaused"`
	SignupsDisabled    bool `json:"signupsDisabled"`
	GlobalAnnouncement string `json:"globalAnnouncement,omitempty"`
}

// DefaultMudConfig mirrors the boot-time defaults so a fresh store starts
// with the same behavior as a missing mud_config collection.
func DefaultMudConfig(cfg *Config) MudConfig {
	return MudConfig{
		IdleTimeoutSeconds: int(cfg.Game.IdleTimeout.Seconds()),
		SaveIntervalTicks:  cfg.Game.SaveIntervalTicks,
		TickIntervalMS:     int(cfg.Game.TickInterval.Milliseconds()),
	}
}

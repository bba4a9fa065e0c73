package event

// Game events published on the bus. Emitted in tick N, handled in tick N+1.

type PlayerLoggedIn struct {
	Username  string
	SessionID uint64
}

type PlayerDisconnected struct {
	Username  string
	SessionID uint64
}

type PlayerDied struct {
	Username string
	RoomID   string
	KillerID string // NPC instance ID, or "" for environment deaths
}

type NpcKilled struct {
	InstanceID  string
	TemplateID  string
	RoomID      string
	TopAttacker string
}

type PlayerMoved struct {
	Username string
	FromRoom string
	ToRoom   string
}

type EffectExpired struct {
	InstanceID string
	TargetID   string
	Name       string
	IsPlayer   bool
}

type LevelUp struct {
	Username string
	NewLevel int
}

package system

import (
	"fmt"
	"time"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
)

// RespawnSystem ticks the respawn queue and announces returning NPCs.
type RespawnSystem struct {
	deps *handler.Deps
}

func NewRespawnSystem(deps *handler.Deps) *RespawnSystem {
	return &RespawnSystem{deps: deps}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RespawnSystem) Update(_ time.Duration) {
	for _, npc := range s.deps.World.TickRespawns() {
		tmpl := s.deps.World.NpcTemplate(npc.TemplateID)
		if tmpl == nil {
			continue
		}
		s.deps.BroadcastRoom(npc.RoomID, "", fmt.Sprintf("%s arrives.", tmpl.Name))
	}
}

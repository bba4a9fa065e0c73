package system

import (
	"time"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/world"
)

// CooldownSystem counts ability cooldowns down each tick.
type CooldownSystem struct {
	deps *handler.Deps
}

func NewCooldownSystem(deps *handler.Deps) *CooldownSystem {
	return &CooldownSystem{deps: deps}
}

func (s *CooldownSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CooldownSystem) Update(_ time.Duration) {
	s.deps.World.OnlineUsers(func(u *world.User) {
		for id, remaining := range u.Cooldowns {
			if remaining <= 1 {
				delete(u.Cooldowns, id)
			} else {
				u.Cooldowns[id] = remaining - 1
			}
		}
	})
}

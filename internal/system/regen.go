package system

import (
	"time"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/world"
)

// RegenSystem applies per-tick health and resource regeneration to online
// users. Offline users do not regenerate.
type RegenSystem struct {
	deps *handler.Deps
}

func NewRegenSystem(deps *handler.Deps) *RegenSystem {
	return &RegenSystem{deps: deps}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RegenSystem) Update(_ time.Duration) {
	s.deps.World.OnlineUsers(func(u *world.User) {
		wasUnconscious := u.IsUnconscious
		world.RegenVitals(u)
		world.RegenResource(u)

		if wasUnconscious && !u.IsUnconscious {
			if sess := s.deps.SessionFor(u.Username); sess != nil {
				sess.Send("You come to, aching all over.")
			}
		}
	})
}

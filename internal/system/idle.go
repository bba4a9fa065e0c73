package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/net"
)

// IdleSystem disconnects sessions that have gone quiet, and sweeps expired
// transfer handshakes. Runs on its own interval, not every tick. Users in
// combat are immune to the idle kick.
type IdleSystem struct {
	deps      *handler.Deps
	lastCheck time.Time
}

func NewIdleSystem(deps *handler.Deps) *IdleSystem {
	return &IdleSystem{deps: deps, lastCheck: time.Now()}
}

func (s *IdleSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *IdleSystem) Update(_ time.Duration) {
	now := time.Now()
	if now.Sub(s.lastCheck) < s.deps.Config.Game.IdleCheckInterval {
		return
	}
	s.lastCheck = now

	handler.CheckTransferTimeouts(s.deps)

	timeout := time.Duration(s.deps.Mud.IdleTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = s.deps.Config.Game.IdleTimeout
	}

	var idle []*net.Session
	s.deps.Sessions.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			return
		}
		if now.Sub(sess.LastActivity()) < timeout {
			return
		}
		if u := s.deps.UserOf(sess); u != nil && u.InCombat {
			return // never idle-kick someone mid-fight
		}
		idle = append(idle, sess)
	})

	for _, sess := range idle {
		s.deps.Log.Info("idle disconnect",
			zap.Uint64("session", sess.ID),
			zap.String("user", sess.Username),
		)
		sess.SendSystem("You have been idle too long. Goodbye.")
		sess.Close()
	}
}

package system

import (
	"time"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/net"
)

// InputSystem admits new sessions and drains their input queues into the
// state machine. Phase 0 also runs between full ticks so typing feels
// immediate despite the slow world tick.
type InputSystem struct {
	server *net.Server
	deps   *handler.Deps
}

func NewInputSystem(server *net.Server, deps *handler.Deps) *InputSystem {
	return &InputSystem{server: server, deps: deps}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Admit new connections.
	accepting := true
	for accepting {
		select {
		case sess := <-s.server.NewSessions():
			s.deps.Sessions.Add(sess)
			handler.Greet(sess, s.deps)
		default:
			accepting = false
		}
	}

	maxLines := s.deps.Config.Network.MaxLinesPerTick
	s.deps.Sessions.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			return
		}
		for i := 0; i < maxLines; i++ {
			select {
			case line := <-sess.InQueue:
				handler.HandleLine(sess, line, s.deps)
			default:
				return
			}
		}
	})
}

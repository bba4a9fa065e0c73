package system

import (
	"time"

	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/net"
)

// OutputSystem flushes every session's buffered output to its writer
// goroutine once per tick.
type OutputSystem struct {
	deps *handler.Deps
}

func NewOutputSystem(deps *handler.Deps) *OutputSystem {
	return &OutputSystem{deps: deps}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.deps.Sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

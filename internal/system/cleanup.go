package system

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/core/event"
	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// CleanupSystem reaps closed sessions at the end of the tick: logs the
// character out, saves it, detaches monitor/takeover links, and removes
// the session from the store.
type CleanupSystem struct {
	deps *handler.Deps
}

func NewCleanupSystem(deps *handler.Deps) *CleanupSystem {
	return &CleanupSystem{deps: deps}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	var dead []*net.Session
	s.deps.Sessions.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			dead = append(dead, sess)
		}
	})
	for _, sess := range dead {
		s.reap(sess)
	}
}

func (s *CleanupSystem) reap(sess *net.Session) {
	s.detachLinks(sess)

	// A dead session with a pending transfer handshake: the waiting peer
	// gets the character without asking.
	if peer := sess.TransferPeer; peer != nil && !peer.IsClosed() {
		handler.CompleteTransfer(sess, s.deps)
	}

	if sess.Username != "" && s.deps.World.OnlineSession(sess.Username) == sess.ID {
		s.logout(sess)
	}

	delete(s.deps.Editors, sess.ID)
	delete(s.deps.Snakes, sess.ID)
	s.deps.Sessions.Remove(sess.ID)
}

// detachLinks severs monitor and takeover relationships in both directions
// so no live session holds a pointer to the reaped one.
func (s *CleanupSystem) detachLinks(sess *net.Session) {
	if target := sess.Monitoring; target != nil {
		handler.StopMonitoring(sess, target)
	}
	// Remove dangling back-pointers from any sessions monitoring this one.
	for _, m := range sess.Monitors {
		if m.Monitoring == sess {
			m.Monitoring = nil
			m.SendSystem("The session you were monitoring has disconnected.")
		}
	}
	sess.Monitors = nil
	sess.TakenOverBy = nil
}

func (s *CleanupSystem) logout(sess *net.Session) {
	u := s.deps.World.GetUser(sess.Username)
	if u == nil {
		return
	}

	roomID := u.CurrentRoomID
	u.TotalPlayTime += int64(time.Since(u.LastLogin).Seconds())
	u.Dirty = true
	s.deps.World.SetUserOffline(u)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.deps.Repo.SaveUser(ctx, u); err != nil {
		s.deps.Log.Error("save on disconnect failed",
			zap.String("user", u.Username), zap.Error(err))
	}

	s.deps.Log.Info("player logged out",
		zap.String("user", u.Username),
		zap.Uint64("session", sess.ID),
	)
	s.deps.BroadcastRoom(roomID, u.Username,
		fmt.Sprintf("%s has left the world.", world.DisplayName(u.Username)))
	event.Emit(s.deps.Bus, event.PlayerDisconnected{
		Username:  u.Username,
		SessionID: sess.ID,
	})
}

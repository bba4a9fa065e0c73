package handler

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// startTransfer begins the connection-takeover handshake: the character is
// already online on another session, so that session is asked to approve
// handing the character to the new connection. At most one transfer can be
// pending per character.
func startTransfer(old, peer *net.Session, u *world.User, deps *Deps) {
	if old.State() == net.StateTransfer || old.TransferPeer != nil {
		peer.SendSystem("A connection transfer for this character is already pending. Try again shortly.")
		peer.Close()
		return
	}

	old.TransferPeer = peer
	old.TransferDeadline = time.Now().Add(deps.Config.Game.TransferTimeout)
	old.SetState(net.StateTransfer)
	old.SendSystem(fmt.Sprintf("Another connection for your character from %s.", peer.IP))
	old.SendPrompt("Allow it to take over this character? (y/n) ")

	peer.InputBlocked = true
	peer.SendSystem("Your character is already online. Waiting for the other connection to approve the transfer...")

	deps.Log.Info("transfer requested",
		zap.String("name", u.Username),
		zap.Uint64("old_session", old.ID),
		zap.Uint64("new_session", peer.ID),
	)
}

func handleTransferAnswer(old *net.Session, line string, deps *Deps) {
	peer := old.TransferPeer
	if peer == nil || peer.IsClosed() {
		cancelTransfer(old, deps)
		return
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		CompleteTransfer(old, deps)
	case "n", "no":
		// The rejected connection goes back to the login prompt rather
		// than being dropped; they may want a different character.
		peer.InputBlocked = false
		peer.SendSystem("Transfer refused by the active connection.")
		peer.SetState(net.StateLogin)
		promptLogin(peer)
		cancelTransfer(old, deps)
		old.Send("Transfer refused.")
	default:
		old.SendPrompt("Allow it to take over this character? (y/n) ")
	}
}

// CheckTransferTimeouts force-completes handshakes whose deadline passed.
// A connection that cannot answer within the timeout is presumed dead, so
// the new connection wins. Runs once per idle-check from the game loop.
func CheckTransferTimeouts(deps *Deps) {
	now := time.Now()
	var expired []*net.Session
	deps.Sessions.ForEach(func(s *net.Session) {
		if s.State() == net.StateTransfer && now.After(s.TransferDeadline) {
			expired = append(expired, s)
		}
	})
	for _, s := range expired {
		if s.TransferPeer == nil || s.TransferPeer.IsClosed() {
			cancelTransfer(s, deps)
			continue
		}
		deps.Log.Info("transfer timed out, forcing takeover", zap.Uint64("old_session", s.ID))
		s.SendSystem("Transfer approved by timeout.")
		CompleteTransfer(s, deps)
	}
}

// CompleteTransfer hands the character to the waiting peer and drops the
// old session. Also invoked by the cleanup pass when an old session with a
// pending handshake dies before answering.
func CompleteTransfer(old *net.Session, deps *Deps) {
	peer := old.TransferPeer
	old.TransferPeer = nil

	u := deps.World.GetUser(old.Username)

	old.SendSystem("Your character has been transferred to the new connection. Goodbye.")
	// Clear the username first so disconnect cleanup does not log the
	// character out underneath the new session.
	old.Username = ""
	old.Close()

	if u == nil {
		return
	}
	deps.World.SetUserOffline(u)

	if peer == nil || peer.IsClosed() {
		// Both ends are gone; the character simply logs out instead of
		// lingering in the room with no session.
		deps.Log.Info("transfer abandoned, both sessions dead", zap.String("name", u.Username))
		return
	}

	peer.InputBlocked = false
	deps.Log.Info("transfer completed",
		zap.String("name", u.Username),
		zap.Uint64("new_session", peer.ID),
	)
	enterGame(peer, u, deps)
}

// cancelTransfer returns the old session to the game after a dead or
// refused handshake.
func cancelTransfer(old *net.Session, deps *Deps) {
	old.TransferPeer = nil
	old.SetState(net.StateGame)
	if u := deps.UserOf(old); u != nil {
		Prompt(old, u)
	}
}

package handler

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/config"
	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/data"
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/persist"
	"github.com/mudgo/server/internal/scripting"
	"github.com/mudgo/server/internal/world"
)

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Config    *config.Config
	Mud       *config.MudConfig
	Log       *zap.Logger
	World     *world.State
	Repo      *persist.WorldRepo
	Tables    *data.Tables
	Scripting *scripting.Engine
	Sessions  *net.SessionStore
	Bus       *event.Bus
	Registry  *Registry
	Rand      *rand.Rand

	// Per-session minigame state, keyed by session ID. Game loop only.
	Editors map[uint64]*EditorSession
	Snakes  map[uint64]*SnakeGame

	// Tick returns the current game tick number.
	Tick func() int64

	// RequestShutdown asks the main loop to begin a graceful shutdown.
	RequestShutdown func(reason string)
}

// UserOf resolves the authenticated user behind a session, or nil.
func (d *Deps) UserOf(sess *net.Session) *world.User {
	if sess.Username == "" {
		return nil
	}
	return d.World.GetUser(sess.Username)
}

// SessionFor resolves the live session of an online user, or nil.
func (d *Deps) SessionFor(username string) *net.Session {
	id := d.World.OnlineSession(username)
	if id == 0 {
		return nil
	}
	return d.Sessions.Get(id)
}

// BroadcastRoom sends a line to every online user in a room except the
// named one ("" excludes nobody).
func (d *Deps) BroadcastRoom(roomID, except, text string) {
	for _, name := range d.World.PlayersInRoom(roomID) {
		if name == except {
			continue
		}
		if s := d.SessionFor(name); s != nil {
			s.Send(text)
		}
	}
}

// BroadcastAll sends a system line to every in-world session.
func (d *Deps) BroadcastAll(text string) {
	d.Sessions.ForEach(func(s *net.Session) {
		if s.State().InGame() {
			s.SendSystem(text)
		}
	})
}

// Prompt sends the standard vitals prompt for a user.
func Prompt(sess *net.Session, u *world.User) {
	sess.SendPrompt(promptLine(u))
}

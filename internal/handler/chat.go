package handler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleSay speaks to everyone in the room.
func HandleSay(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Say what?")
		return
	}
	text := strings.Join(args, " ")
	if u.IsHiding {
		u.IsHiding = false
		sess.Send("You step out of hiding.")
	}
	sess.Send(fmt.Sprintf("You say: %s", text))
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s says: %s", world.DisplayName(u.Username), text))
	Prompt(sess, u)
}

// HandleShout speaks to every player online.
func HandleShout(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Shout what?")
		return
	}
	text := strings.Join(args, " ")
	msg := fmt.Sprintf("%s shouts: %s", world.DisplayName(u.Username), text)
	deps.Sessions.ForEach(func(s *net.Session) {
		if s.State().InGame() && s.ID != sess.ID {
			s.Send(msg)
		}
	})
	sess.Send(fmt.Sprintf("You shout: %s", text))
	Prompt(sess, u)
}

// HandleTell sends a private message to one online player.
func HandleTell(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) < 2 {
		sess.Send("Tell whom what?")
		return
	}
	name := world.FoldName(args[0])
	text := strings.Join(args[1:], " ")

	if name == u.Username {
		sess.Send("Talking to yourself again?")
		return
	}
	target := deps.SessionFor(name)
	if target == nil {
		sess.Send(fmt.Sprintf("%s is not online.", world.DisplayName(name)))
		return
	}
	target.Send(fmt.Sprintf("%s tells you: %s", world.DisplayName(u.Username), text))
	sess.Send(fmt.Sprintf("You tell %s: %s", world.DisplayName(name), text))
	Prompt(sess, u)
}

// HandleWho lists everyone online.
func HandleWho(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	var names []string
	deps.World.OnlineUsers(func(other *world.User) {
		names = append(names, other.Username)
	})
	sort.Strings(names)

	sess.Send(fmt.Sprintf("--- %d adventurer(s) online ---", len(names)))
	for _, name := range names {
		other := deps.World.GetUser(name)
		if other == nil {
			continue
		}
		tag := ""
		if other.IsAdmin() {
			tag = " [staff]"
		}
		sess.Send(fmt.Sprintf("  %-14s level %d %s %s%s",
			world.DisplayName(other.Username), other.Level, other.RaceID, other.ClassID, tag))
	}
	Prompt(sess, u)
}

// HandleUptime reports server start time and uptime.
func HandleUptime(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	started := time.Unix(deps.Config.Server.StartTime, 0)
	sess.Send(fmt.Sprintf("Server up since %s (%s).",
		started.Format(time.RFC1123), time.Since(started).Round(time.Second)))
	Prompt(sess, u)
}

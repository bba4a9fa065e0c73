package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleShutdown begins a graceful shutdown, optionally delayed.
func HandleShutdown(sess *net.Session, u *world.User, args []string, deps *Deps) {
	minutes := 0
	if len(args) > 0 {
		m, err := strconv.Atoi(args[0])
		if err != nil || m < 0 {
			sess.Send("Usage: shutdown [minutes]")
			return
		}
		minutes = m
	}
	deps.Log.Warn("shutdown ordered", zap.String("by", u.Username), zap.Int("minutes", minutes))
	if minutes == 0 {
		deps.RequestShutdown("ordered by " + u.Username)
		return
	}
	deps.BroadcastAll(fmt.Sprintf("The world will close in %d minute(s). Find somewhere safe.", minutes))
	reason := fmt.Sprintf("ordered by %s %d minute(s) ago", u.Username, minutes)
	time.AfterFunc(time.Duration(minutes)*time.Minute, func() {
		deps.RequestShutdown(reason)
	})
	sess.Send("Shutdown scheduled.")
	Prompt(sess, u)
}

// HandleKick disconnects a player.
func HandleKick(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Kick whom?")
		return
	}
	name := world.FoldName(args[0])
	target := deps.SessionFor(name)
	if target == nil {
		sess.Send("They are not online.")
		return
	}
	if target.ID == sess.ID {
		sess.Send("Kicking yourself would be novel. Use 'quit'.")
		return
	}
	deps.Log.Info("kick", zap.String("by", u.Username), zap.String("target", name))
	target.SendSystem("You have been disconnected by the staff.")
	target.Close()
	sess.Send(fmt.Sprintf("%s kicked.", world.DisplayName(name)))
	Prompt(sess, u)
}

// HandleMonitor mirrors a player's output onto the admin session.
func HandleMonitor(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Monitor whom?")
		return
	}
	name := world.FoldName(args[0])
	target := deps.SessionFor(name)
	if target == nil {
		sess.Send("They are not online.")
		return
	}
	if target.ID == sess.ID {
		sess.Send("You are already watching yourself, constantly.")
		return
	}
	for _, m := range target.Monitors {
		if m.ID == sess.ID {
			sess.Send("Already monitoring them.")
			return
		}
	}
	target.Monitors = append(target.Monitors, sess)
	sess.Monitoring = target
	deps.Log.Info("monitor start", zap.String("by", u.Username), zap.String("target", name))
	sess.Send(fmt.Sprintf("Monitoring %s. 'unmonitor' to stop.", world.DisplayName(name)))
	Prompt(sess, u)
}

// HandleUnmonitor stops monitoring.
func HandleUnmonitor(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	target := sess.Monitoring
	if target == nil {
		sess.Send("You are not monitoring anyone.")
		return
	}
	StopMonitoring(sess, target)
	sess.Send("Monitoring stopped.")
	Prompt(sess, u)
}

// StopMonitoring severs a monitor (and any takeover) link between an
// admin session and its target.
func StopMonitoring(admin, target *net.Session) {
	for i, m := range target.Monitors {
		if m.ID == admin.ID {
			target.Monitors = append(target.Monitors[:i], target.Monitors[i+1:]...)
			break
		}
	}
	if target.TakenOverBy == admin {
		target.TakenOverBy = nil
	}
	admin.Monitoring = nil
}

// HandleTakeover drives a player's character from the admin session. The
// admin's lines are dispatched as the target until 'release'.
func HandleTakeover(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Take over whom?")
		return
	}
	name := world.FoldName(args[0])
	target := deps.SessionFor(name)
	if target == nil {
		sess.Send("They are not online.")
		return
	}
	if target.ID == sess.ID {
		sess.Send("You are already in charge of yourself.")
		return
	}
	if target.TakenOverBy != nil {
		sess.Send("Someone is already driving them.")
		return
	}
	// Taking over implies monitoring so the admin sees the output.
	HandleMonitor(sess, u, args, deps)
	target.TakenOverBy = sess
	deps.Log.Warn("takeover start", zap.String("by", u.Username), zap.String("target", name))
	sess.Send(fmt.Sprintf("You are now driving %s. Type 'release' to stop.", world.DisplayName(name)))
}

// ForwardTakenOverLine dispatches an admin's input as the controlled
// target. Returns true when the line was consumed.
func ForwardTakenOverLine(sess *net.Session, line string, deps *Deps) bool {
	target := sess.Monitoring
	if target == nil || target.TakenOverBy != sess {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(line), "release") {
		StopMonitoring(sess, target)
		sess.Send("Control released.")
		if u := deps.UserOf(sess); u != nil {
			Prompt(sess, u)
		}
		return true
	}
	driver := deps.UserOf(sess)
	dispatchLine(target, line, deps, driver != nil && driver.IsAdmin())
	return true
}

// HandleSpawnNpc spawns an NPC template into the admin's room.
func HandleSpawnNpc(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Spawn which NPC template?")
		return
	}
	npc, err := deps.World.SpawnNpc(args[0], u.CurrentRoomID)
	if err != nil {
		sess.Send(err.Error())
		return
	}
	tmpl := deps.World.NpcTemplate(npc.TemplateID)
	deps.Log.Info("admin spawned npc", zap.String("by", u.Username), zap.String("npc", tmpl.ID))
	deps.BroadcastRoom(u.CurrentRoomID, "", fmt.Sprintf("%s appears out of thin air!", tmpl.Name))
	Prompt(sess, u)
}

// HandleSpawnItem mints an item template into the admin's inventory.
func HandleSpawnItem(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Spawn which item template?")
		return
	}
	inst, err := deps.World.SpawnItem(args[0], "admin:"+u.Username)
	if err != nil {
		sess.Send(err.Error())
		return
	}
	deps.World.GiveItemToUser(inst.InstanceID, u, "")
	tmpl := deps.World.ItemTemplate(inst.TemplateID)
	deps.Log.Info("admin spawned item", zap.String("by", u.Username), zap.String("item", tmpl.ID))
	sess.Send(fmt.Sprintf("Conjured %s.", inst.DisplayName(tmpl)))
	Prompt(sess, u)
}

// HandleGoto teleports the admin to a room or to a player.
func HandleGoto(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Go where? (room id or player name)")
		return
	}
	dest := args[0]
	if deps.World.GetRoom(dest) == nil {
		if other := deps.World.GetUser(world.FoldName(dest)); other != nil && deps.World.IsOnline(other.Username) {
			dest = other.CurrentRoomID
		} else {
			sess.Send("No such room or online player.")
			return
		}
	}
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s vanishes in a puff of smoke.", world.DisplayName(u.Username)))
	if err := deps.World.MoveUser(u, dest); err != nil {
		sess.Send(err.Error())
		return
	}
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s appears in a puff of smoke.", world.DisplayName(u.Username)))
	sendRoomView(sess, u, deps)
	Prompt(sess, u)
}

// HandleSetFlag sets or clears an authorization flag on a user.
func HandleSetFlag(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) != 3 || (args[2] != "on" && args[2] != "off") {
		sess.Send("Usage: setflag <user> <flag> on|off")
		return
	}
	target := deps.World.GetUser(world.FoldName(args[0]))
	if target == nil {
		sess.Send("No such user.")
		return
	}
	flag := strings.ToLower(args[1])
	target.SetFlag(flag, args[2] == "on")
	deps.Log.Info("flag changed",
		zap.String("by", u.Username),
		zap.String("target", target.Username),
		zap.String("flag", flag),
		zap.String("value", args[2]),
	)
	sess.Send(fmt.Sprintf("Flag %q on %s is now %s.", flag, world.DisplayName(target.Username), args[2]))
	Prompt(sess, u)
}

// HandleAnnounce broadcasts a system notice to everyone online.
func HandleAnnounce(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Announce what?")
		return
	}
	text := strings.Join(args, " ")
	deps.Log.Info("announcement", zap.String("by", u.Username))
	deps.BroadcastAll("[Announcement] " + text)
	Prompt(sess, u)
}

// HandleAdminMsg leaves a message for a user; offline users get it queued
// for their next login.
func HandleAdminMsg(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) < 2 {
		sess.Send("Usage: amsg <user> <message>")
		return
	}
	target := deps.World.GetUser(world.FoldName(args[0]))
	if target == nil {
		sess.Send("No such user.")
		return
	}
	text := strings.Join(args[1:], " ")
	if ts := deps.SessionFor(target.Username); ts != nil {
		ts.SendSystem("Message from the staff: " + text)
		sess.Send("Delivered.")
	} else {
		target.QueueAdminMessage(text)
		sess.Send("They are offline; queued for next login.")
	}
	Prompt(sess, u)
}

// HandleForceSave flushes all dirty users and world state immediately.
func HandleForceSave(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	n, err := deps.Repo.SaveDirtyUsers(context.Background(), deps.World)
	if err != nil {
		deps.Log.Error("force save users failed", zap.Error(err))
		sess.SendSystem("Save failed, check the logs.")
		return
	}
	if err := deps.Repo.SaveWorldState(context.Background(), deps.World); err != nil {
		deps.Log.Error("force save world failed", zap.Error(err))
		sess.SendSystem("World save failed, check the logs.")
		return
	}
	deps.Log.Info("forced save", zap.String("by", u.Username), zap.Int("users", n))
	sess.Send(fmt.Sprintf("Saved %d user(s) and the world state.", n))
	Prompt(sess, u)
}

// HandleRawLog toggles wire-level logging on a session.
func HandleRawLog(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		sess.Send("Usage: rawlog <user> on|off")
		return
	}
	target := deps.SessionFor(world.FoldName(args[0]))
	if target == nil {
		sess.Send("They are not online.")
		return
	}
	target.EnableRawLogging(args[1] == "on")
	sess.Send("Raw logging " + args[1] + ".")
	Prompt(sess, u)
}

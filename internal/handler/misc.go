package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/persist"
	"github.com/mudgo/server/internal/world"
)

// HandleScore shows the character sheet.
func HandleScore(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	sess.Send(fmt.Sprintf("%s, level %d %s %s", world.DisplayName(u.Username), u.Level, u.RaceID, u.ClassID))
	sess.Send(fmt.Sprintf("  Health: %d/%d", u.Health, u.MaxHealth))
	if u.MaxMana > 0 {
		sess.Send(fmt.Sprintf("  Mana:   %d/%d", u.Mana, u.MaxMana))
	}
	if rt := world.ResourceFor(u.ClassID); rt != world.ResourceNone && rt != world.ResourceMana {
		sess.Send(fmt.Sprintf("  %s: %d/%d", world.DisplayName(strings.ToLower(string(rt))), u.Resource, u.MaxResource))
	}
	sess.Send(fmt.Sprintf("  Experience: %d", u.Experience))
	s := u.Stats
	sess.Send(fmt.Sprintf("  STR %d  DEX %d  AGI %d  CON %d  WIS %d  INT %d  CHA %d",
		s.Strength, s.Dexterity, s.Agility, s.Constitution, s.Wisdom, s.Intelligence, s.Charisma))
	if def := deps.World.ArmorDefense(u); def > 0 {
		sess.Send(fmt.Sprintf("  Armor: %d", def))
	}
	sess.Send(fmt.Sprintf("  Playtime: %s", (time.Duration(u.TotalPlayTime) * time.Second).Round(time.Minute)))
	Prompt(sess, u)
}

// HandleEffects lists active effects on the user.
func HandleEffects(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	effects := deps.World.Effects.ForTarget(u.Username)
	if len(effects) == 0 {
		sess.Send("No effects are acting on you.")
		Prompt(sess, u)
		return
	}
	sess.Send("Active effects:")
	for _, e := range effects {
		remaining := fmt.Sprintf("%d ticks", e.RemainingTicks)
		if e.IsTimeBased {
			remaining = time.Until(e.ExpiresAt).Round(time.Second).String()
		}
		sess.Send(fmt.Sprintf("  %-20s %s remaining", e.Name, remaining))
	}
	Prompt(sess, u)
}

// HandleHelp shows the command list or a single topic.
func HandleHelp(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) > 0 {
		name := strings.ToLower(args[0])
		if topic := deps.Tables.Help.Get(name); topic != nil && (!topic.AdminOnly || u.IsAdmin()) {
			sess.Send(topic.Summary)
			if topic.Body != "" {
				sess.Send(topic.Body)
			}
			Prompt(sess, u)
			return
		}
		if cmd, _ := deps.Registry.Resolve(name, u.IsAdmin()); cmd != nil && cmd.Help != "" {
			sess.Send(fmt.Sprintf("%s — %s", cmd.Name, cmd.Help))
			Prompt(sess, u)
			return
		}
		sess.Send("No help on that.")
		Prompt(sess, u)
		return
	}

	sess.Send("Commands:")
	var line []string
	for _, cmd := range deps.Registry.Commands(u.IsAdmin()) {
		line = append(line, cmd.Name)
		if len(line) == 6 {
			sess.Send("  " + strings.Join(line, "  "))
			line = nil
		}
	}
	if len(line) > 0 {
		sess.Send("  " + strings.Join(line, "  "))
	}
	sess.Send("Try 'help <command>' for details.")
	Prompt(sess, u)
}

// HandleBug files a bug report into the store.
func HandleBug(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Describe the bug after the command.")
		return
	}
	report := persist.BugReport{
		Username:  u.Username,
		RoomID:    u.CurrentRoomID,
		Text:      strings.Join(args, " "),
		CreatedAt: time.Now(),
	}
	if err := deps.Repo.SaveBugReport(context.Background(), report); err != nil {
		deps.Log.Error("bug report save failed", zap.Error(err))
		sess.SendSystem("Could not record the report, sorry.")
		return
	}
	deps.Log.Info("bug report filed", zap.String("user", u.Username), zap.String("room", u.CurrentRoomID))
	sess.Send("Thanks, the report has been filed.")
	Prompt(sess, u)
}

// HandleQuit saves the character and disconnects.
func HandleQuit(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if u.InCombat {
		sess.Send("You cannot quit while fighting!")
		return
	}
	sess.Send("Farewell.")
	deps.Log.Info("logout", zap.String("name", u.Username), zap.Uint64("session", sess.ID))
	// Cleanup (offline transition, save) happens in the disconnect path.
	sess.Close()
}

// HandleHistory shows the persisted command history.
func HandleHistory(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if len(u.CommandHistory) == 0 {
		sess.Send("No command history yet.")
		Prompt(sess, u)
		return
	}
	for i, line := range u.CommandHistory {
		sess.Send(fmt.Sprintf("%3d  %s", i+1, line))
	}
	Prompt(sess, u)
}

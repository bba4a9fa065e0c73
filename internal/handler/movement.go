package handler

import (
	"fmt"
	"time"

	"github.com/mudgo/server/internal/core/event"
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// moveDelayFor computes the agility-scaled movement delay: a base of 600ms
// scaled by 10/agility, clamped to [0.5, 2.0].
func moveDelayFor(u *world.User) time.Duration {
	const base = 600 * time.Millisecond
	agi := u.Stats.Agility
	if agi <= 0 {
		agi = 1
	}
	factor := 10.0 / float64(agi)
	if factor < 0.5 {
		factor = 0.5
	}
	if factor > 2.0 {
		factor = 2.0
	}
	return time.Duration(float64(base) * factor)
}

// HandleMove processes one of the six direction verbs.
func HandleMove(dir world.Direction) HandlerFunc {
	return func(sess *net.Session, u *world.User, _ []string, deps *Deps) {
		if u.IsUnconscious {
			sess.Send("You are unconscious.")
			return
		}
		if u.MovementRestricted {
			reason := u.RestrictedReason
			if reason == "" {
				reason = "You cannot move right now."
			}
			sess.Send(reason)
			return
		}
		if deps.World.Effects.HasBlockingEffect(u.Username, "movement") {
			sess.Send("You cannot move!")
			return
		}
		if u.InCombat {
			sess.Send("You are fighting! Try 'flee'.")
			return
		}
		if now := time.Now(); now.Before(sess.MoveReadyAt) {
			sess.Send("You are still catching your breath.")
			return
		}

		room := deps.World.GetRoom(u.CurrentRoomID)
		if room == nil {
			sess.SendSystem("You are nowhere. Contact an administrator.")
			return
		}
		exit := room.ExitTo(dir)
		if exit == nil {
			sess.Send("You cannot go that way.")
			return
		}
		if exit.Locked && !hasKey(u, exit.KeyID, deps) {
			sess.Send("That way is locked.")
			return
		}

		if u.IsResting || u.IsMeditating {
			u.IsResting = false
			u.IsMeditating = false
			sess.Send("You get back on your feet.")
		}

		from := u.CurrentRoomID
		deps.BroadcastRoom(from, u.Username,
			fmt.Sprintf("%s leaves %s.", world.DisplayName(u.Username), dir))

		if err := deps.World.MoveUser(u, exit.TargetRoomID); err != nil {
			sess.SendSystem("That way leads nowhere.")
			return
		}
		sess.MoveReadyAt = time.Now().Add(moveDelayFor(u))

		deps.BroadcastRoom(u.CurrentRoomID, u.Username,
			fmt.Sprintf("%s arrives from the %s.", world.DisplayName(u.Username), dir.Opposite()))
		event.Emit(deps.Bus, event.PlayerMoved{Username: u.Username, FromRoom: from, ToRoom: u.CurrentRoomID})

		sendRoomView(sess, u, deps)
		Prompt(sess, u)

		// Hostile NPCs engage anyone who walks in.
		engageHostiles(sess, u, deps)
	}
}

func hasKey(u *world.User, keyID string, deps *Deps) bool {
	if keyID == "" {
		return false
	}
	for _, instID := range u.Inventory {
		if inst := deps.World.Item(instID); inst != nil && inst.TemplateID == keyID {
			return true
		}
	}
	return false
}

// engageHostiles makes hostile NPCs in the room open combat on arrival.
func engageHostiles(sess *net.Session, u *world.User, deps *Deps) {
	room := deps.World.GetRoom(u.CurrentRoomID)
	if room == nil || room.IsSafe() {
		return
	}
	for _, npc := range deps.World.NpcsInRoom(u.CurrentRoomID) {
		tmpl := deps.World.NpcTemplate(npc.TemplateID)
		if tmpl == nil || !tmpl.Hostile {
			continue
		}
		npc.AddHate(u.Username, 1)
		if !u.InCombat {
			u.InCombat = true
			u.CombatTarget = npc.InstanceID
			sess.Send(fmt.Sprintf("%s attacks you!", tmpl.Name))
		}
	}
}

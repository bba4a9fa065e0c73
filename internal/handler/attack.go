package handler

import (
	"fmt"
	"strings"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleAttack engages an NPC in the room. Damage rounds are resolved by
// the combat system on each tick; this just opens the engagement.
func HandleAttack(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Attack what?")
		return
	}
	if u.IsUnconscious {
		sess.Send("You are unconscious.")
		return
	}
	if deps.World.Effects.HasBlockingEffect(u.Username, "combat") {
		sess.Send("You cannot fight right now!")
		return
	}

	room := deps.World.GetRoom(u.CurrentRoomID)
	if room != nil && room.IsSafe() {
		sess.Send("A strange calm stays your hand. No fighting here.")
		return
	}

	target := strings.ToLower(strings.Join(args, " "))
	npc, tmpl := findNpc(u.CurrentRoomID, target, deps)
	if npc == nil {
		sess.Send("You see nothing like that to attack.")
		return
	}

	if u.IsResting || u.IsMeditating {
		u.IsResting = false
		u.IsMeditating = false
	}
	u.IsHiding = false
	u.IsSneaking = false

	u.InCombat = true
	u.CombatTarget = npc.InstanceID
	npc.AddHate(u.Username, 1)
	u.Dirty = true

	sess.Send(fmt.Sprintf("You attack %s!", tmpl.Name))
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s attacks %s!", world.DisplayName(u.Username), tmpl.Name))
}

// HandleFlee attempts to break combat through a random exit. Success odds
// scale with the gap between the fleer's agility and the NPC's.
func HandleFlee(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if !u.InCombat {
		sess.Send("You are not fighting anything.")
		return
	}
	if u.IsUnconscious {
		sess.Send("You are unconscious.")
		return
	}
	if deps.World.Effects.HasBlockingEffect(u.Username, "movement") {
		sess.Send("You cannot move!")
		return
	}

	room := deps.World.GetRoom(u.CurrentRoomID)
	if room == nil || len(room.Exits) == 0 {
		sess.Send("There is nowhere to run!")
		return
	}

	npcAgi := 10
	if npc := deps.World.Npc(u.CombatTarget); npc != nil {
		if tmpl := deps.World.NpcTemplate(npc.TemplateID); tmpl != nil && tmpl.Agility > 0 {
			npcAgi = tmpl.Agility
		}
	}

	// Base 50%, +/-3% per point of agility difference, clamped to [10%, 90%].
	chance := 50 + 3*(u.Stats.Agility-npcAgi)
	if chance < 10 {
		chance = 10
	}
	if chance > 90 {
		chance = 90
	}
	if deps.Rand.Intn(100) >= chance {
		sess.Send("You try to flee but cannot break away!")
		deps.BroadcastRoom(u.CurrentRoomID, u.Username,
			fmt.Sprintf("%s tries to flee!", world.DisplayName(u.Username)))
		return
	}

	exit := room.Exits[deps.Rand.Intn(len(room.Exits))]
	from := u.CurrentRoomID
	u.InCombat = false
	u.CombatTarget = ""

	deps.BroadcastRoom(from, u.Username,
		fmt.Sprintf("%s flees %s!", world.DisplayName(u.Username), exit.Direction))
	if err := deps.World.MoveUser(u, exit.TargetRoomID); err != nil {
		sess.SendSystem("You stumble but find nowhere to run.")
		return
	}
	sess.Send(fmt.Sprintf("You flee %s!", exit.Direction))
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s runs in from the %s, looking panicked.", world.DisplayName(u.Username), exit.Direction.Opposite()))
	sendRoomView(sess, u, deps)
	Prompt(sess, u)
	engageHostiles(sess, u, deps)
}

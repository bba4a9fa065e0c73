package handler

import (
	"fmt"
	"strings"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// sendRoomView renders the user's current room: name, description, exits,
// items on the floor, NPCs and other players.
func sendRoomView(sess *net.Session, u *world.User, deps *Deps) {
	room := deps.World.GetRoom(u.CurrentRoomID)
	if room == nil {
		sess.SendSystem("You are floating in the void. Contact an administrator.")
		return
	}
	sess.Send(room.Name)
	sess.Send(room.Description)

	var exits []string
	for _, ex := range room.Exits {
		name := string(ex.Direction)
		if ex.Locked {
			name += " (locked)"
		}
		exits = append(exits, name)
	}
	if len(exits) == 0 {
		sess.Send("There are no obvious exits.")
	} else {
		sess.Send("Exits: " + strings.Join(exits, ", "))
	}

	rs := deps.World.RoomStateFor(room.ID)
	for _, instID := range rs.Items {
		if inst := deps.World.Item(instID); inst != nil {
			tmpl := deps.World.ItemTemplate(inst.TemplateID)
			sess.Send(fmt.Sprintf("  %s lies here.", inst.DisplayName(tmpl)))
		}
	}
	if rs.Money.TotalCopper() > 0 {
		sess.Send(fmt.Sprintf("  A pile of coins lies here (%s).", moneyString(rs.Money)))
	}
	for _, npc := range deps.World.NpcsInRoom(room.ID) {
		tmpl := deps.World.NpcTemplate(npc.TemplateID)
		if tmpl == nil {
			continue
		}
		sess.Send(fmt.Sprintf("  %s is here.", tmpl.Name))
	}
	for _, name := range rs.Players {
		if name == u.Username {
			continue
		}
		other := deps.World.GetUser(name)
		suffix := ""
		if other != nil && other.IsUnconscious {
			suffix = " (unconscious)"
		}
		sess.Send(fmt.Sprintf("  %s is here%s.", world.DisplayName(name), suffix))
	}
}

// HandleLook shows the room, or examines a named item or NPC.
func HandleLook(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sendRoomView(sess, u, deps)
		Prompt(sess, u)
		return
	}

	target := strings.ToLower(strings.Join(args, " "))

	// Inventory and floor items first.
	if inst, tmpl := findItem(u, target, deps, true); inst != nil {
		sess.Send(inst.DisplayName(tmpl))
		if tmpl != nil && tmpl.Description != "" {
			sess.Send(tmpl.Description)
		}
		if inst.Durability < inst.MaxDurability {
			sess.Send(fmt.Sprintf("It shows wear (%d/%d durability).", inst.Durability, inst.MaxDurability))
		}
		Prompt(sess, u)
		return
	}

	if npc, tmpl := findNpc(u.CurrentRoomID, target, deps); npc != nil {
		sess.Send(tmpl.Name)
		if tmpl.Description != "" {
			sess.Send(tmpl.Description)
		}
		sess.Send(healthDescription(tmpl.Name, npc.Health, tmpl.MaxHealth))
		Prompt(sess, u)
		return
	}

	if other := deps.World.GetUser(target); other != nil && other.CurrentRoomID == u.CurrentRoomID && deps.World.IsOnline(other.Username) {
		sess.Send(fmt.Sprintf("%s, a level %d %s %s.",
			world.DisplayName(other.Username), other.Level, other.RaceID, other.ClassID))
		Prompt(sess, u)
		return
	}

	sess.Send("You see nothing like that here.")
	Prompt(sess, u)
}

// healthDescription renders approximate health without exact numbers.
func healthDescription(name string, health, max int) string {
	if max <= 0 {
		return name + " looks unharmed."
	}
	pct := health * 100 / max
	switch {
	case pct >= 100:
		return name + " looks unharmed."
	case pct >= 75:
		return name + " has some small wounds."
	case pct >= 50:
		return name + " is hurt."
	case pct >= 25:
		return name + " is badly wounded."
	default:
		return name + " is near death."
	}
}

// findNpc matches an NPC in a room by name prefix or template ID.
func findNpc(roomID, target string, deps *Deps) (*world.NpcInstance, *world.NpcTemplate) {
	for _, npc := range deps.World.NpcsInRoom(roomID) {
		tmpl := deps.World.NpcTemplate(npc.TemplateID)
		if tmpl == nil {
			continue
		}
		if tmpl.ID == target || strings.HasPrefix(strings.ToLower(tmpl.Name), target) {
			return npc, tmpl
		}
	}
	return nil, nil
}

// findItem matches an item in the user's inventory (and optionally the
// room floor) by display-name prefix or instance ID.
func findItem(u *world.User, target string, deps *Deps, includeFloor bool) (*world.ItemInstance, *world.ItemTemplate) {
	match := func(ids []string) (*world.ItemInstance, *world.ItemTemplate) {
		for _, id := range ids {
			inst := deps.World.Item(id)
			if inst == nil {
				continue
			}
			tmpl := deps.World.ItemTemplate(inst.TemplateID)
			name := strings.ToLower(inst.DisplayName(tmpl))
			if id == target || inst.TemplateID == target || strings.HasPrefix(name, target) {
				return inst, tmpl
			}
		}
		return nil, nil
	}
	if inst, tmpl := match(u.Inventory); inst != nil {
		return inst, tmpl
	}
	if includeFloor {
		rs := deps.World.RoomStateFor(u.CurrentRoomID)
		return match(rs.Items)
	}
	return nil, nil
}

package handler

import (
	"fmt"
	"strings"

	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleInventory lists carried and equipped items.
func HandleInventory(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	if len(u.Inventory) == 0 {
		sess.Send("You are carrying nothing.")
	} else {
		sess.Send("You are carrying:")
		for _, instID := range u.Inventory {
			inst := deps.World.Item(instID)
			if inst == nil {
				continue
			}
			tmpl := deps.World.ItemTemplate(inst.TemplateID)
			sess.Send("  " + inst.DisplayName(tmpl))
		}
	}

	equipped := false
	for _, slot := range world.EquipSlots {
		instID, ok := u.Equipment[slot]
		if !ok {
			continue
		}
		if !equipped {
			sess.Send("You are wearing:")
			equipped = true
		}
		inst := deps.World.Item(instID)
		if inst == nil {
			continue
		}
		tmpl := deps.World.ItemTemplate(inst.TemplateID)
		sess.Send(fmt.Sprintf("  [%-9s] %s", strings.ToLower(string(slot)), inst.DisplayName(tmpl)))
	}
	sess.Send("Purse: " + moneyString(u.Money))
	Prompt(sess, u)
}

// HandleGet picks an item (or the coin pile) up off the floor.
func HandleGet(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Get what?")
		return
	}
	if u.IsUnconscious {
		sess.Send("You are unconscious.")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	rs := deps.World.RoomStateFor(u.CurrentRoomID)

	if target == "coins" || target == "money" || target == "gold" {
		if rs.Money.TotalCopper() == 0 {
			sess.Send("There are no coins here.")
			return
		}
		picked := rs.Money
		u.Money = copperToCurrency(u.Money.TotalCopper() + picked.TotalCopper())
		rs.Money = world.Currency{}
		u.Dirty = true
		sess.Send(fmt.Sprintf("You pick up %s.", moneyString(picked)))
		deps.BroadcastRoom(u.CurrentRoomID, u.Username,
			fmt.Sprintf("%s picks up a pile of coins.", world.DisplayName(u.Username)))
		Prompt(sess, u)
		return
	}

	for _, instID := range rs.Items {
		inst := deps.World.Item(instID)
		if inst == nil {
			continue
		}
		tmpl := deps.World.ItemTemplate(inst.TemplateID)
		name := strings.ToLower(inst.DisplayName(tmpl))
		if instID != target && inst.TemplateID != target && !strings.HasPrefix(name, target) {
			continue
		}
		if inst.Soulbound && inst.BoundTo != "" && inst.BoundTo != u.Username {
			sess.Send("That item is bound to someone else.")
			return
		}
		deps.World.GiveItemToUser(instID, u, u.CurrentRoomID)
		sess.Send(fmt.Sprintf("You pick up %s.", inst.DisplayName(tmpl)))
		deps.BroadcastRoom(u.CurrentRoomID, u.Username,
			fmt.Sprintf("%s picks up %s.", world.DisplayName(u.Username), inst.DisplayName(tmpl)))
		Prompt(sess, u)
		return
	}
	sess.Send("You see nothing like that here.")
}

// HandleDrop puts a carried item on the floor.
func HandleDrop(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Drop what?")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	inst, tmpl := findItem(u, target, deps, false)
	if inst == nil {
		sess.Send("You are not carrying that.")
		return
	}
	deps.World.DropItemToRoom(inst.InstanceID, u, u.CurrentRoomID)
	sess.Send(fmt.Sprintf("You drop %s.", inst.DisplayName(tmpl)))
	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s drops %s.", world.DisplayName(u.Username), inst.DisplayName(tmpl)))
	Prompt(sess, u)
}

// HandleWear equips a carried item into its template slot.
func HandleWear(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Wear what?")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	inst, tmpl := findItem(u, target, deps, false)
	if inst == nil {
		sess.Send("You are not carrying that.")
		return
	}
	if tmpl == nil || tmpl.Slot == "" {
		sess.Send("You cannot wear that.")
		return
	}
	if tmpl.MinLevel > u.Level {
		sess.Send(fmt.Sprintf("You need to be level %d to use that.", tmpl.MinLevel))
		return
	}
	if inst.Soulbound && inst.BoundTo != "" && inst.BoundTo != u.Username {
		sess.Send("That item is bound to someone else.")
		return
	}
	if err := deps.World.EquipItem(u, inst.InstanceID, tmpl.Slot); err != nil {
		sess.Send(fmt.Sprintf("You are already wearing something on your %s.", strings.ToLower(string(tmpl.Slot))))
		return
	}
	if inst.Soulbound && inst.BoundTo == "" {
		inst.BoundTo = u.Username
	}
	sess.Send(fmt.Sprintf("You equip %s.", inst.DisplayName(tmpl)))
	Prompt(sess, u)
}

// HandleRemove unequips an item back into the inventory.
func HandleRemove(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Remove what?")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	for _, slot := range world.EquipSlots {
		instID, ok := u.Equipment[slot]
		if !ok {
			continue
		}
		inst := deps.World.Item(instID)
		if inst == nil {
			continue
		}
		tmpl := deps.World.ItemTemplate(inst.TemplateID)
		name := strings.ToLower(inst.DisplayName(tmpl))
		if !strings.HasPrefix(name, target) && strings.ToLower(string(slot)) != target {
			continue
		}
		if _, err := deps.World.UnequipItem(u, slot); err != nil {
			continue
		}
		sess.Send(fmt.Sprintf("You remove %s.", inst.DisplayName(tmpl)))
		Prompt(sess, u)
		return
	}
	sess.Send("You are not wearing that.")
}

// HandleUse consumes a usable item: Lua scripts get first refusal, then
// the built-in consumable behavior (heal, apply effect) applies.
func HandleUse(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Use what?")
		return
	}
	target := strings.ToLower(strings.Join(args, " "))
	inst, tmpl := findItem(u, target, deps, false)
	if inst == nil {
		sess.Send("You are not carrying that.")
		return
	}
	if tmpl == nil || tmpl.Type != world.ItemConsumable {
		sess.Send("You cannot use that.")
		return
	}

	if msg, handled := deps.Scripting.OnItemUse(tmpl.ID, u.Username); handled {
		sess.Send(msg)
		consumeCharge(inst, u, deps)
		Prompt(sess, u)
		return
	}

	if heal := tmpl.StatBonuses["heal"]; heal > 0 {
		before := u.Health
		u.Heal(heal)
		sess.Send(fmt.Sprintf("You use %s and recover %d health.", inst.DisplayName(tmpl), u.Health-before))
	} else {
		sess.Send(fmt.Sprintf("You use %s.", inst.DisplayName(tmpl)))
	}
	consumeCharge(inst, u, deps)
	Prompt(sess, u)
}

// consumeCharge decrements multi-use items and destroys spent ones.
func consumeCharge(inst *world.ItemInstance, u *world.User, deps *Deps) {
	if inst.Charges > 1 {
		inst.Charges--
		u.Dirty = true
		return
	}
	deps.World.RemoveFromInventory(u, inst.InstanceID)
	deps.World.DestroyItem(inst.InstanceID)
}

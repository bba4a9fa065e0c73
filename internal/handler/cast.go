package handler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mudgo/server/internal/data"
	"github.com/mudgo/server/internal/net"
	"github.com/mudgo/server/internal/world"
)

// HandleAbilities lists the abilities the user can cast at their level.
func HandleAbilities(sess *net.Session, u *world.User, _ []string, deps *Deps) {
	abilities := deps.Tables.Abilities.ForClass(u.ClassID, u.Level)
	if len(abilities) == 0 {
		sess.Send("You know no abilities yet.")
		Prompt(sess, u)
		return
	}
	sort.Slice(abilities, func(i, j int) bool { return abilities[i].MinLevel < abilities[j].MinLevel })
	sess.Send("You know:")
	for _, a := range abilities {
		cost := ""
		if a.ManaCost > 0 {
			cost = fmt.Sprintf(" (%d mana)", a.ManaCost)
		} else if a.ResourceCost > 0 {
			cost = fmt.Sprintf(" (%d %s)", a.ResourceCost, strings.ToLower(string(world.ResourceFor(u.ClassID))))
		}
		sess.Send(fmt.Sprintf("  %-16s %s%s", a.ID, a.Description, cost))
	}
	Prompt(sess, u)
}

// HandleCast casts an ability at an optional target.
func HandleCast(sess *net.Session, u *world.User, args []string, deps *Deps) {
	if len(args) == 0 {
		sess.Send("Cast what?")
		return
	}
	if u.IsUnconscious {
		sess.Send("You are unconscious.")
		return
	}

	abilityID := strings.ToLower(args[0])
	a := deps.Tables.Abilities.Get(abilityID)
	if a == nil || (a.ClassID != "" && a.ClassID != u.ClassID) || u.Level < a.MinLevel {
		sess.Send("You do not know that ability.")
		return
	}

	if remaining, ok := u.Cooldowns[a.ID]; ok && remaining > 0 {
		sess.Send(fmt.Sprintf("%s is not ready yet.", a.Name))
		return
	}

	harmful := a.Damage > 0 || (a.Effect != nil && a.Effect.DamagePerTick > 0)
	if harmful {
		if deps.World.Effects.HasBlockingEffect(u.Username, "combat") {
			sess.Send("You cannot fight right now!")
			return
		}
		if room := deps.World.GetRoom(u.CurrentRoomID); room != nil && room.IsSafe() {
			sess.Send("A strange calm stays your hand. No fighting here.")
			return
		}
	}

	// Resolve the target before spending anything.
	var npc *world.NpcInstance
	var npcTmpl *world.NpcTemplate
	selfTarget := a.TargetSelf || (!harmful && len(args) < 2)
	if !selfTarget {
		targetName := strings.ToLower(strings.Join(args[1:], " "))
		if targetName == "" {
			if npc = deps.World.Npc(u.CombatTarget); npc != nil {
				npcTmpl = deps.World.NpcTemplate(npc.TemplateID)
			}
		} else {
			npc, npcTmpl = findNpc(u.CurrentRoomID, targetName, deps)
		}
		if npc == nil {
			sess.Send("Cast it at what?")
			return
		}
	}

	// Costs are transactional: check-and-spend, nothing happens on failure.
	if a.ManaCost > 0 && !world.SpendMana(u, a.ManaCost) {
		sess.Send("You do not have enough mana.")
		return
	}
	if a.ResourceCost > 0 && !world.SpendResource(u, a.ResourceCost) {
		sess.Send(fmt.Sprintf("You do not have enough %s.", strings.ToLower(string(world.ResourceFor(u.ClassID)))))
		return
	}
	if a.CooldownTicks > 0 {
		if u.Cooldowns == nil {
			u.Cooldowns = make(map[string]int)
		}
		u.Cooldowns[a.ID] = a.CooldownTicks
	}

	if a.CastMessage != "" {
		sess.Send(a.CastMessage)
	} else {
		sess.Send(fmt.Sprintf("You cast %s.", a.Name))
	}

	if selfTarget {
		applySelfCast(sess, u, a, deps)
		Prompt(sess, u)
		return
	}

	deps.BroadcastRoom(u.CurrentRoomID, u.Username,
		fmt.Sprintf("%s casts %s at %s!", world.DisplayName(u.Username), a.Name, npcTmpl.Name))

	if a.Damage > 0 {
		dmg := a.Damage + u.Stats.Intelligence/5
		npc.Health -= dmg
		npc.AddHate(u.Username, dmg)
		u.InCombat = true
		u.CombatTarget = npc.InstanceID
		world.OnDamageDealt(u)
		sess.Send(fmt.Sprintf("Your %s hits %s for %d damage!", a.Name, npcTmpl.Name, dmg))
		// Death is resolved by the combat system this tick, not here, so
		// XP and loot follow the normal kill path.
	}
	if e := a.BuildEffect(u.Username); e != nil {
		e.IsPlayerEffect = false
		deps.World.Effects.Apply(npc.InstanceID, e)
		npc.AddHate(u.Username, 1)
		u.InCombat = true
		if u.CombatTarget == "" {
			u.CombatTarget = npc.InstanceID
		}
	}
	Prompt(sess, u)
}

func applySelfCast(sess *net.Session, u *world.User, a *data.Ability, deps *Deps) {
	if a.Heal > 0 {
		before := u.Health
		u.Heal(a.Heal + u.Stats.Wisdom/5)
		sess.Send(fmt.Sprintf("You recover %d health.", u.Health-before))
	}
	if e := a.BuildEffect(u.Username); e != nil {
		e.IsPlayerEffect = true
		deps.World.Effects.Apply(u.Username, e)
		sess.Send(fmt.Sprintf("You feel the touch of %s.", e.Name))
	}
}

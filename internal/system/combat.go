package system

import (
	"fmt"
	"sort"
	"time"

	"github.com/mudgo/server/internal/core/event"
	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/scripting"
	"github.com/mudgo/server/internal/world"
)

// CombatSystem resolves one combat round per tick for every engagement.
// Initiative is agility plus a small jitter roll; higher acts first.
type CombatSystem struct {
	deps *handler.Deps
}

func NewCombatSystem(deps *handler.Deps) *CombatSystem {
	return &CombatSystem{deps: deps}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

type combatAction struct {
	initiative int
	user       *world.User        // player action when set
	npc        *world.NpcInstance // npc action when set
}

func (s *CombatSystem) Update(_ time.Duration) {
	// DOT kills from the effect phase resolve before new rounds.
	s.sweepDeadNpcs()

	var actions []combatAction

	s.deps.World.OnlineUsers(func(u *world.User) {
		if !u.InCombat || u.IsUnconscious {
			return
		}
		npc := s.deps.World.Npc(u.CombatTarget)
		if npc == nil || npc.RoomID != u.CurrentRoomID {
			u.InCombat = false
			u.CombatTarget = ""
			return
		}
		if s.deps.World.Effects.HasBlockingEffect(u.Username, "combat") {
			return
		}
		actions = append(actions, combatAction{
			initiative: u.Stats.Agility + s.deps.Rand.Intn(6),
			user:       u,
		})
	})

	s.deps.World.AllNpcs(func(npc *world.NpcInstance) {
		if npc.Health <= 0 || len(npc.HateList) == 0 {
			return
		}
		if s.deps.World.Effects.HasBlockingEffect(npc.InstanceID, "combat") {
			return
		}
		tmpl := s.deps.World.NpcTemplate(npc.TemplateID)
		if tmpl == nil {
			return
		}
		// Townsfolk with neither flag never swing, however hard they are hit.
		if !tmpl.Hostile && !tmpl.PassiveRetaliator {
			return
		}
		actions = append(actions, combatAction{
			initiative: tmpl.Agility + s.deps.Rand.Intn(6),
			npc:        npc,
		})
	})

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].initiative > actions[j].initiative
	})

	for _, a := range actions {
		if a.user != nil {
			s.playerRound(a.user)
		} else {
			s.npcRound(a.npc)
		}
	}

	s.sweepDeadNpcs()
}

func (s *CombatSystem) playerRound(u *world.User) {
	if u.IsUnconscious || !u.InCombat {
		return
	}
	npc := s.deps.World.Npc(u.CombatTarget)
	if npc == nil || npc.Health <= 0 {
		return
	}
	tmpl := s.deps.World.NpcTemplate(npc.TemplateID)
	if tmpl == nil {
		return
	}
	sess := s.deps.SessionFor(u.Username)

	// Hit roll: 75% base, shifted by dexterity, clamped to [40%, 95%].
	chance := 75 + (u.Stats.Dexterity - 10)
	if chance < 40 {
		chance = 40
	}
	if chance > 95 {
		chance = 95
	}
	if s.deps.Rand.Intn(100) >= chance {
		if sess != nil {
			sess.Send(fmt.Sprintf("You swing at %s and miss.", tmpl.Name))
		}
		return
	}

	dmg := u.Stats.Strength/2 + s.deps.World.WeaponDamage(u) + s.deps.Rand.Intn(4)
	dmg += s.deps.World.Effects.StatModifierTotal(u.Username, "damage")
	dmg -= tmpl.Defense
	if dmg < 1 {
		dmg = 1
	}
	npc.Health -= dmg
	npc.AddHate(u.Username, dmg)
	world.OnDamageDealt(u)

	if sess != nil {
		sess.Send(fmt.Sprintf("You hit %s for %d damage.", tmpl.Name, dmg))
	}
	s.deps.BroadcastRoom(npc.RoomID, u.Username,
		fmt.Sprintf("%s hits %s.", world.DisplayName(u.Username), tmpl.Name))

	// Weapon procs (poison daggers and the like) ride on successful hits.
	s.applyWeaponProc(u, npc)
}

func (s *CombatSystem) applyWeaponProc(u *world.User, npc *world.NpcInstance) {
	instID, ok := u.Equipment[world.SlotMainHand]
	if !ok {
		return
	}
	inst := s.deps.World.Item(instID)
	if inst == nil {
		return
	}
	tmpl := s.deps.World.ItemTemplate(inst.TemplateID)
	if tmpl == nil || tmpl.ProcEffect == "" {
		return
	}
	ability := s.deps.Tables.Abilities.Get(tmpl.ProcEffect)
	if ability == nil {
		return
	}
	if e := ability.BuildEffect(u.Username); e != nil {
		e.IsPlayerEffect = false
		s.deps.World.Effects.Apply(npc.InstanceID, e)
	}
}

func (s *CombatSystem) npcRound(npc *world.NpcInstance) {
	if npc.Health <= 0 {
		return
	}
	tmpl := s.deps.World.NpcTemplate(npc.TemplateID)
	if tmpl == nil {
		return
	}

	target := s.pickTarget(npc)
	if target == nil {
		// Nobody left to fight; calm down.
		npc.HateList = nil
		return
	}

	spread := tmpl.DamageMax - tmpl.DamageMin
	dmg := tmpl.DamageMin
	if spread > 0 {
		dmg += s.deps.Rand.Intn(spread + 1)
	}
	dmg -= s.deps.World.ArmorDefense(target)
	dmg -= s.deps.World.Effects.StatModifierTotal(target.Username, "damage_reduction")
	dmg -= s.deps.World.Effects.StatModifierTotal(target.Username, "absorb")

	sess := s.deps.SessionFor(target.Username)
	attackText := fmt.Sprintf("%s attacks you", tmpl.Name)
	if len(tmpl.AttackTexts) > 0 {
		attackText = fmt.Sprintf("%s %s", tmpl.Name, tmpl.AttackTexts[s.deps.Rand.Intn(len(tmpl.AttackTexts))])
	}

	if dmg <= 0 {
		if sess != nil {
			sess.Send(fmt.Sprintf("%s, but it glances off you.", attackText))
		}
		return
	}

	dropped := target.ApplyDamage(dmg)
	world.OnDamageTaken(target)
	target.InCombat = !dropped
	if target.CombatTarget == "" && !dropped {
		target.CombatTarget = npc.InstanceID
	}

	if sess != nil {
		sess.Send(fmt.Sprintf("%s for %d damage!", attackText, dmg))
	}
	if dropped {
		if sess != nil {
			sess.Send("You collapse!")
		}
		s.deps.BroadcastRoom(target.CurrentRoomID, target.Username,
			fmt.Sprintf("%s collapses!", world.DisplayName(target.Username)))
		npc.RemoveHate(target.Username)
		event.Emit(s.deps.Bus, event.PlayerDied{
			Username: target.Username,
			RoomID:   target.CurrentRoomID,
			KillerID: npc.InstanceID,
		})
	}
}

// pickTarget selects the highest-hate conscious player still in the room.
func (s *CombatSystem) pickTarget(npc *world.NpcInstance) *world.User {
	var best *world.User
	bestHate := -1
	for name, hate := range npc.HateList {
		u := s.deps.World.GetUser(name)
		if u == nil || !s.deps.World.IsOnline(name) || u.IsUnconscious || u.CurrentRoomID != npc.RoomID {
			continue
		}
		if hate > bestHate {
			bestHate = hate
			best = u
		}
	}
	return best
}

func (s *CombatSystem) sweepDeadNpcs() {
	var dead []*world.NpcInstance
	s.deps.World.AllNpcs(func(npc *world.NpcInstance) {
		if npc.Health <= 0 {
			dead = append(dead, npc)
		}
	})
	for _, npc := range dead {
		s.killNpc(npc)
	}
}

// killNpc resolves a kill: death message, XP split by hate share, loot
// drops, respawn scheduling and despawn.
func (s *CombatSystem) killNpc(npc *world.NpcInstance) {
	tmpl := s.deps.World.NpcTemplate(npc.TemplateID)
	if tmpl == nil {
		s.deps.World.RemoveNpc(npc.InstanceID)
		return
	}

	deathMsg := fmt.Sprintf("%s dies.", tmpl.Name)
	if len(tmpl.DeathMessages) > 0 {
		deathMsg = tmpl.DeathMessages[s.deps.Rand.Intn(len(tmpl.DeathMessages))]
	}
	s.deps.BroadcastRoom(npc.RoomID, "", deathMsg)

	// XP is split proportionally to each attacker's share of total hate.
	total := npc.TotalHate()
	topAttacker := npc.TopHate()
	var topUser *world.User
	if total > 0 && tmpl.XPValue > 0 {
		for name, hate := range npc.HateList {
			u := s.deps.World.GetUser(name)
			if u == nil || !s.deps.World.IsOnline(name) {
				continue
			}
			share := int64(tmpl.XPValue * hate / total)
			if share <= 0 {
				continue
			}
			s.awardXP(u, share)
			if name == topAttacker {
				topUser = u
			}
		}
	}

	// Static loot table plus script-granted extras.
	for itemID, pct := range tmpl.Loot {
		if s.deps.Rand.Intn(100) >= pct {
			continue
		}
		s.dropLoot(itemID, npc.RoomID)
	}
	killerName, killerLevel := "", 0
	if topUser != nil {
		killerName, killerLevel = topUser.Username, topUser.Level
	}
	for _, itemID := range s.deps.Scripting.OnNpcDeath(scripting.DeathContext{
		NpcTemplateID: tmpl.ID,
		NpcName:       tmpl.Name,
		RoomID:        npc.RoomID,
		KillerName:    killerName,
		KillerLevel:   killerLevel,
	}) {
		s.dropLoot(itemID, npc.RoomID)
	}

	if tmpl.RespawnTicks > 0 {
		s.deps.World.QueueRespawn(tmpl.ID, npc.RoomID, tmpl.RespawnTicks)
	}
	roomID := npc.RoomID
	s.deps.World.RemoveNpc(npc.InstanceID)
	event.Emit(s.deps.Bus, event.NpcKilled{
		InstanceID:  npc.InstanceID,
		TemplateID:  tmpl.ID,
		RoomID:      roomID,
		TopAttacker: topAttacker,
	})
}

func (s *CombatSystem) dropLoot(itemID, roomID string) {
	inst, err := s.deps.World.SpawnItem(itemID, "loot")
	if err != nil {
		return
	}
	rs := s.deps.World.RoomStateFor(roomID)
	rs.Items = append(rs.Items, inst.InstanceID)
	tmpl := s.deps.World.ItemTemplate(inst.TemplateID)
	s.deps.BroadcastRoom(roomID, "", fmt.Sprintf("%s falls to the ground.", inst.DisplayName(tmpl)))
}

func (s *CombatSystem) awardXP(u *world.User, xp int64) {
	u.Experience += xp
	u.Dirty = true
	sess := s.deps.SessionFor(u.Username)
	if sess != nil {
		sess.Send(fmt.Sprintf("You gain %d experience.", xp))
	}
	for u.Experience >= world.XPForLevel(u.Level+1) {
		u.Level++
		u.MaxHealth += 10 + u.Stats.Constitution/2
		u.Health = u.MaxHealth
		if world.ResourceFor(u.ClassID) == world.ResourceMana {
			u.MaxMana = world.MaxResourceFor(u)
			u.Mana = u.MaxMana
		} else {
			u.MaxResource = world.MaxResourceFor(u)
		}
		event.Emit(s.deps.Bus, event.LevelUp{Username: u.Username, NewLevel: u.Level})
		if sess != nil {
			sess.Send(fmt.Sprintf("You have reached level %d!", u.Level))
		}
		s.deps.BroadcastRoom(u.CurrentRoomID, u.Username,
			fmt.Sprintf("%s glows briefly with new strength.", world.DisplayName(u.Username)))
	}
}

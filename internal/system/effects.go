package system

import (
	"fmt"
	"time"

	"github.com/mudgo/server/internal/core/event"
	coresys "github.com/mudgo/server/internal/core/system"
	"github.com/mudgo/server/internal/handler"
	"github.com/mudgo/server/internal/world"
)

// EffectTickSystem applies periodic effect payloads and expires effects.
// Registered before the combat system so DOT kills resolve through the
// normal kill path in the same tick.
type EffectTickSystem struct {
	deps *handler.Deps
}

func NewEffectTickSystem(deps *handler.Deps) *EffectTickSystem {
	return &EffectTickSystem{deps: deps}
}

func (s *EffectTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EffectTickSystem) Update(_ time.Duration) {
	tick := s.deps.Tick()
	now := time.Now()

	// Snapshot first: payload application and expiry both mutate the registry.
	var active []*world.ActiveEffect
	s.deps.World.Effects.ForEach(func(e *world.ActiveEffect) {
		active = append(active, e)
	})

	var expired []*world.ActiveEffect
	for _, e := range active {
		if s.applyPayload(e, tick) {
			continue // target vanished, effect removed inside
		}
		if e.IsTimeBased {
			if !now.Before(e.ExpiresAt) {
				expired = append(expired, e)
			}
			continue
		}
		e.RemainingTicks--
		if e.RemainingTicks <= 0 {
			expired = append(expired, e)
		}
	}

	for _, e := range expired {
		if s.deps.World.Effects.Remove(e.InstanceID) == nil {
			continue
		}
		event.Emit(s.deps.Bus, event.EffectExpired{
			InstanceID: e.InstanceID,
			TargetID:   e.TargetID,
			Name:       e.Name,
			IsPlayer:   e.IsPlayerEffect,
		})
		if e.IsPlayerEffect {
			if sess := s.deps.SessionFor(e.TargetID); sess != nil {
				sess.Send(fmt.Sprintf("The effect of %s fades.", e.Name))
			}
		}
	}
}

// applyPayload applies one periodic action if it is due. Returns true when
// the effect's target no longer exists and the effect was dropped.
func (s *EffectTickSystem) applyPayload(e *world.ActiveEffect, tick int64) bool {
	interval := int64(e.TickInterval)
	if interval > 1 && tick-e.LastTickApplied < interval {
		return false
	}
	e.LastTickApplied = tick

	p := e.Payload
	if p.DamagePerTick == 0 && p.HealPerTick == 0 {
		return false
	}

	if e.IsPlayerEffect {
		u := s.deps.World.GetUser(e.TargetID)
		if u == nil || !s.deps.World.IsOnline(e.TargetID) {
			s.deps.World.Effects.Remove(e.InstanceID)
			return true
		}
		sess := s.deps.SessionFor(e.TargetID)
		if p.DamagePerTick > 0 {
			dropped := u.ApplyDamage(p.DamagePerTick)
			if sess != nil {
				sess.Send(fmt.Sprintf("%s sears you for %d damage.", e.Name, p.DamagePerTick))
				if dropped {
					sess.Send("You collapse!")
				}
			}
			if dropped {
				s.deps.BroadcastRoom(u.CurrentRoomID, u.Username,
					fmt.Sprintf("%s collapses!", world.DisplayName(u.Username)))
				event.Emit(s.deps.Bus, event.PlayerDied{Username: u.Username, RoomID: u.CurrentRoomID, KillerID: e.SourceID})
			}
		}
		if p.HealPerTick > 0 && u.Health < u.MaxHealth {
			u.Heal(p.HealPerTick)
			if sess != nil {
				sess.Send(fmt.Sprintf("%s knits your wounds for %d.", e.Name, p.HealPerTick))
			}
		}
		return false
	}

	npc := s.deps.World.Npc(e.TargetID)
	if npc == nil {
		s.deps.World.Effects.Remove(e.InstanceID)
		return true
	}
	if p.DamagePerTick > 0 {
		npc.Health -= p.DamagePerTick
		// DOT damage keeps threat attributed to the caster.
		npc.AddHate(e.SourceID, p.DamagePerTick)
	}
	if p.HealPerTick > 0 {
		if tmpl := s.deps.World.NpcTemplate(npc.TemplateID); tmpl != nil && npc.Health < tmpl.MaxHealth {
			npc.Health += p.HealPerTick
			if npc.Health > tmpl.MaxHealth {
				npc.Health = tmpl.MaxHealth
			}
		}
	}
	return false
}

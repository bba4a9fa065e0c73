package world

// ResourceType is the class-specific pool distinct from mana.
type ResourceType string

const (
	ResourceNone   ResourceType = "NONE"
	ResourceMana   ResourceType = "MANA"
	ResourceRage   ResourceType = "RAGE"
	ResourceEnergy ResourceType = "ENERGY"
	ResourceKi     ResourceType = "KI"
	ResourceHoly   ResourceType = "HOLY"
	ResourceNature ResourceType = "NATURE"
)

// ClassResource maps class IDs to their resource archetype. Unknown classes
// fall back to NONE.
var ClassResource = map[string]ResourceType{
	"warrior": ResourceRage,
	"mage":    ResourceMana,
	"rogue":   ResourceEnergy,
	"monk":    ResourceKi,
	"paladin": ResourceHoly,
	"druid":   ResourceNature,
	"cleric":  ResourceMana,
}

// ResourceFor returns the resource archetype for a user's class.
func ResourceFor(classID string) ResourceType {
	if rt, ok := ClassResource[classID]; ok {
		return rt
	}
	return ResourceNone
}

// MaxResourceFor computes the resource pool ceiling for a user.
func MaxResourceFor(u *User) int {
	switch ResourceFor(u.ClassID) {
	case ResourceMana:
		return 20 + 3*u.Stats.Intelligence + 2*u.Stats.Wisdom
	case ResourceRage, ResourceEnergy:
		return 100
	case ResourceKi:
		return 3*u.Stats.Wisdom + 2*u.Level
	case ResourceHoly:
		// 3 charges, 4 at level 20, 5 at level 40.
		charges := 3
		if u.Level >= 40 {
			charges = 5
		} else if u.Level >= 20 {
			charges = 4
		}
		return charges
	case ResourceNature:
		return 30 + 2*u.Stats.Wisdom
	}
	return 0
}

// RegenResource applies one tick of resource regeneration. For MANA
// classes the resource pool is the mana vital itself; all other archetypes
// use the generic resource pool. HOLY charges accrue one per 5 ticks via
// the per-user HolyProgress counter.
func RegenResource(u *User) {
	switch ResourceFor(u.ClassID) {
	case ResourceMana:
		gain := 4 + u.Stats.Intelligence/10
		if u.IsMeditating {
			gain *= 2
		}
		addMana(u, gain)
	case ResourceRage:
		// Rage builds only from combat events and decays out of combat.
		if !u.InCombat {
			spendRaw(u, 5)
		}
	case ResourceEnergy:
		addResource(u, 25)
	case ResourceKi:
		gain := 3 + u.Stats.Wisdom/10
		if u.IsMeditating {
			gain *= 3
		}
		addResource(u, gain)
	case ResourceHoly:
		u.HolyProgress++
		if u.HolyProgress >= 5 {
			u.HolyProgress = 0
			addResource(u, 1)
		}
	case ResourceNature:
		gain := 3 + u.Stats.Wisdom/10
		addResource(u, gain)
	}
}

// OnDamageDealt feeds combat events into rage generation.
func OnDamageDealt(u *User) {
	if ResourceFor(u.ClassID) == ResourceRage {
		addResource(u, 10)
	}
}

// OnDamageTaken feeds incoming damage into rage generation.
func OnDamageTaken(u *User) {
	if ResourceFor(u.ClassID) == ResourceRage {
		addResource(u, 15)
	}
}

// SpendResource deducts cost transactionally: either the full cost is
// available and spent, or nothing changes.
func SpendResource(u *User, cost int) bool {
	if cost < 0 || u.Resource < cost {
		return false
	}
	u.Resource -= cost
	u.Dirty = true
	return true
}

// SpendMana deducts a mana cost transactionally.
func SpendMana(u *User, cost int) bool {
	if cost < 0 || u.Mana < cost {
		return false
	}
	u.Mana -= cost
	u.Dirty = true
	return true
}

func addResource(u *User, gain int) {
	if gain <= 0 || u.Resource >= u.MaxResource {
		return
	}
	u.Resource += gain
	if u.Resource > u.MaxResource {
		u.Resource = u.MaxResource
	}
	u.Dirty = true
}

func addMana(u *User, gain int) {
	if gain <= 0 || u.Mana >= u.MaxMana {
		return
	}
	u.Mana += gain
	if u.Mana > u.MaxMana {
		u.Mana = u.MaxMana
	}
	u.Dirty = true
}

func spendRaw(u *User, amount int) {
	if amount <= 0 || u.Resource == 0 {
		return
	}
	u.Resource -= amount
	if u.Resource < 0 {
		u.Resource = 0
	}
	u.Dirty = true
}

// RegenVitals applies one tick of HP regeneration with the resting bonus.
// Mana regeneration belongs to RegenResource (MANA archetype). Never pushes
// health above its maximum. Unconscious users recover one point per tick
// until they wake at 1 HP.
func RegenVitals(u *User) {
	hpGain := 1 + u.Stats.Constitution/10
	if u.IsResting {
		hpGain *= 3
	}
	if u.IsUnconscious {
		hpGain = 1
	}
	if u.Health < u.MaxHealth {
		u.Heal(hpGain)
	}
}

package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mudgo/server/internal/world"
)

// AbilityEffect is the effect an ability applies on its target, expanded to
// a world.ActiveEffect at cast time.
type AbilityEffect struct {
	Type          world.EffectType       `yaml:"type"`
	Name          string                 `yaml:"name"`
	DurationTicks int                    `yaml:"duration_ticks"`
	TickInterval  int                    `yaml:"tick_interval"`
	Stacking      world.StackingBehavior `yaml:"stacking"`
	DamagePerTick int                    `yaml:"damage_per_tick"`
	HealPerTick   int                    `yaml:"heal_per_tick"`
	StatModifiers map[string]int         `yaml:"stat_modifiers"`
	BlockMovement bool                   `yaml:"block_movement"`
	BlockCombat   bool                   `yaml:"block_combat"`
}

// Ability is a castable spell or class skill.
type Ability struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ClassID     string `yaml:"class"` // "" = usable by all classes
	MinLevel    int    `yaml:"min_level"`

	ManaCost      int `yaml:"mana_cost"`
	ResourceCost  int `yaml:"resource_cost"`
	CooldownTicks int `yaml:"cooldown_ticks"`

	Damage     int  `yaml:"damage"`
	Heal       int  `yaml:"heal"`
	TargetSelf bool `yaml:"target_self"` // heals and buffs default to the caster

	Effect *AbilityEffect `yaml:"effect"`

	CastMessage string `yaml:"cast_message"`
}

// BuildEffect expands the ability's effect block into a fresh ActiveEffect,
// or nil when the ability applies none.
func (a *Ability) BuildEffect(sourceID string) *world.ActiveEffect {
	if a.Effect == nil {
		return nil
	}
	name := a.Effect.Name
	if name == "" {
		name = a.Name
	}
	stacking := a.Effect.Stacking
	if stacking == "" {
		stacking = world.StackRefresh
	}
	e := world.NewEffect(a.Effect.Type, name, a.Effect.DurationTicks, a.Effect.TickInterval, world.EffectPayload{
		DamagePerTick: a.Effect.DamagePerTick,
		HealPerTick:   a.Effect.HealPerTick,
		StatModifiers: a.Effect.StatModifiers,
		BlockMovement: a.Effect.BlockMovement,
		BlockCombat:   a.Effect.BlockCombat,
	}, stacking)
	e.SourceID = sourceID
	return e
}

type abilityListFile struct {
	Abilities []Ability `yaml:"abilities"`
}

// AbilityTable holds all abilities indexed by ID.
type AbilityTable struct {
	abilities map[string]*Ability
}

// LoadAbilityTable loads abilities from a YAML file.
func LoadAbilityTable(path string) (*AbilityTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abilities: %w", err)
	}
	var f abilityListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse abilities: %w", err)
	}
	t := &AbilityTable{abilities: make(map[string]*Ability, len(f.Abilities))}
	for i := range f.Abilities {
		a := &f.Abilities[i]
		if _, dup := t.abilities[a.ID]; dup {
			return nil, fmt.Errorf("duplicate ability %q", a.ID)
		}
		t.abilities[a.ID] = a
	}
	return t, nil
}

// Get returns an ability by ID, or nil if not found.
func (t *AbilityTable) Get(id string) *Ability {
	return t.abilities[id]
}

// Count returns the number of loaded abilities.
func (t *AbilityTable) Count() int {
	return len(t.abilities)
}

// ForClass lists the abilities a user of the given class and level can use.
func (t *AbilityTable) ForClass(classID string, level int) []*Ability {
	var out []*Ability
	for _, a := range t.abilities {
		if (a.ClassID == "" || a.ClassID == classID) && level >= a.MinLevel {
			out = append(out, a)
		}
	}
	return out
}

package world

import "github.com/google/uuid"

// MerchantStock is one line of a merchant NPC's inventory.
type MerchantStock struct {
	TemplateID string `json:"templateId" yaml:"item"`
	Price      int    `json:"price" yaml:"price"`       // copper; 0 = template base value
	Quantity   int    `json:"quantity" yaml:"quantity"` // -1 = unlimited
}

// NpcTemplate is the static NPC definition.
type NpcTemplate struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	MaxHealth   int    `json:"maxHealth" yaml:"max_health"`
	DamageMin   int    `json:"damageMin" yaml:"damage_min"`
	DamageMax   int    `json:"damageMax" yaml:"damage_max"`
	Defense     int    `json:"defense" yaml:"defense"`
	Agility     int    `json:"agility" yaml:"agility"`
	Hostile     bool   `json:"hostile" yaml:"hostile"` // initiates combat on entry
	// PassiveRetaliator NPCs fight back when attacked but never initiate;
	// with neither this nor Hostile set an NPC never swings at all.
	PassiveRetaliator bool `json:"passiveRetaliator" yaml:"passive_retaliator"`
	XPValue           int  `json:"xpValue" yaml:"xp_value"`

	AttackTexts   []string `json:"attackTexts,omitempty" yaml:"attack_texts"`
	DeathMessages []string `json:"deathMessages,omitempty" yaml:"death_messages"`

	IsMerchant bool            `json:"isMerchant" yaml:"merchant"`
	Stock      []MerchantStock `json:"stock,omitempty" yaml:"stock"`

	// Loot table: template ID → drop chance in percent.
	Loot map[string]int `json:"loot,omitempty" yaml:"loot"`

	RespawnTicks int `json:"respawnTicks" yaml:"respawn_ticks"`
}

// NpcInstance is a live NPC in a room.
type NpcInstance struct {
	InstanceID string `json:"instanceId"`
	TemplateID string `json:"templateId"`
	RoomID     string `json:"roomId"`
	Health     int    `json:"health"`

	// HateList accumulates threat per attacker (username → damage dealt).
	// No decay: entries clear on NPC death or when the attacker leaves the
	// room or disconnects.
	HateList map[string]int `json:"-"`

	// Stock quantities for merchants, keyed by template ID. Copied from the
	// template at spawn; -1 = unlimited.
	StockLeft map[string]int `json:"-"`
}

// NewNpcInstance spawns an instance of a template into a room.
func NewNpcInstance(tmpl *NpcTemplate, roomID string) *NpcInstance {
	n := &NpcInstance{
		InstanceID: uuid.NewString(),
		TemplateID: tmpl.ID,
		RoomID:     roomID,
		Health:     tmpl.MaxHealth,
	}
	if tmpl.IsMerchant {
		n.StockLeft = make(map[string]int, len(tmpl.Stock))
		for _, s := range tmpl.Stock {
			n.StockLeft[s.TemplateID] = s.Quantity
		}
	}
	return n
}

// AddHate accumulates threat from an attacker.
func (n *NpcInstance) AddHate(username string, damage int) {
	if damage <= 0 || username == "" {
		return
	}
	if n.HateList == nil {
		n.HateList = make(map[string]int)
	}
	n.HateList[username] += damage
}

// TopHate returns the username with the highest accumulated threat, or "".
func (n *NpcInstance) TopHate() string {
	var top string
	max := -1
	for name, hate := range n.HateList {
		if hate > max {
			max = hate
			top = name
		}
	}
	return top
}

// TotalHate sums all threat (XP attribution denominator).
func (n *NpcInstance) TotalHate() int {
	total := 0
	for _, h := range n.HateList {
		total += h
	}
	return total
}

// RemoveHate drops one attacker from the hate list.
func (n *NpcInstance) RemoveHate(username string) {
	delete(n.HateList, username)
}

// RespawnEntry queues a dead NPC template for respawn into its home room.
type RespawnEntry struct {
	TemplateID string `json:"templateId"`
	RoomID     string `json:"roomId"`
	TicksLeft  int    `json:"ticksLeft"`
}

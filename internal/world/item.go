package world

import (
	"time"

	"github.com/google/uuid"
)

// ItemType classifies item templates.
type ItemType string

const (
	ItemWeapon     ItemType = "weapon"
	ItemArmor      ItemType = "armor"
	ItemConsumable ItemType = "consumable"
	ItemQuest      ItemType = "quest"
	ItemMisc       ItemType = "misc"
)

// ItemTemplate is the static definition an instance points back to.
type ItemTemplate struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Type        ItemType       `json:"type" yaml:"type"`
	Slot        EquipSlot      `json:"slot,omitempty" yaml:"slot"`
	BaseValue   int            `json:"baseValue" yaml:"base_value"` // copper
	Weight      int            `json:"weight,omitempty" yaml:"weight"`
	StatBonuses map[string]int `json:"statBonuses,omitempty" yaml:"stat_bonuses"`
	Damage      int            `json:"damage,omitempty" yaml:"damage"`   // weapons
	Defense     int            `json:"defense,omitempty" yaml:"defense"` // armor
	MinLevel    int            `json:"minLevel,omitempty" yaml:"min_level"`
	// ProcEffect names an effect template applied on hit (e.g. a poison
	// dagger). Empty for plain items.
	ProcEffect string `json:"procEffect,omitempty" yaml:"proc_effect"`
}

// ItemInstance is a mutable game-world object referencing its template.
type ItemInstance struct {
	InstanceID string    `json:"instanceId"`
	TemplateID string    `json:"templateId"`
	Created    time.Time `json:"created"`
	CreatedBy  string    `json:"createdBy"` // username, "system" or "loot"

	CustomName    string            `json:"customName,omitempty"`
	Durability    int               `json:"durability"`
	MaxDurability int               `json:"maxDurability"`
	Quality       string            `json:"quality,omitempty"`
	Soulbound     bool              `json:"soulbound,omitempty"`
	BoundTo       string            `json:"boundTo,omitempty"`
	Charges       int               `json:"charges,omitempty"`
	Enchantments  []string          `json:"enchantments,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"` // open-ended extensions
	History       []string          `json:"history,omitempty"`    // optional audit trail
}

// NewItemInstance mints an instance of a template.
func NewItemInstance(tmpl *ItemTemplate, createdBy string) *ItemInstance {
	return &ItemInstance{
		InstanceID:    uuid.NewString(),
		TemplateID:    tmpl.ID,
		Created:       time.Now(),
		CreatedBy:     createdBy,
		Durability:    100,
		MaxDurability: 100,
	}
}

// DisplayName prefers the custom name over the template name.
func (i *ItemInstance) DisplayName(tmpl *ItemTemplate) string {
	if i.CustomName != "" {
		return i.CustomName
	}
	if tmpl != nil {
		return tmpl.Name
	}
	return i.TemplateID
}

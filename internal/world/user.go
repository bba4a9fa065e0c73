package world

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameFolder = cases.Fold()

// FoldName normalizes a username for case-insensitive lookup.
func FoldName(name string) string {
	return nameFolder.String(name)
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a folded username for output.
func DisplayName(name string) string {
	return titleCaser.String(name)
}

// EquipSlot is a named equipment slot.
type EquipSlot string

const (
	SlotHead      EquipSlot = "HEAD"
	SlotNeck      EquipSlot = "NECK"
	SlotShoulders EquipSlot = "SHOULDERS"
	SlotChest     EquipSlot = "CHEST"
	SlotBack      EquipSlot = "BACK"
	SlotWrists    EquipSlot = "WRISTS"
	SlotHands     EquipSlot = "HANDS"
	SlotWaist     EquipSlot = "WAIST"
	SlotLegs      EquipSlot = "LEGS"
	SlotFeet      EquipSlot = "FEET"
	SlotFinger    EquipSlot = "FINGER"
	SlotMainHand  EquipSlot = "MAIN_HAND"
	SlotOffHand   EquipSlot = "OFF_HAND"
)

// EquipSlots lists every slot in display order.
var EquipSlots = []EquipSlot{
	SlotHead, SlotNeck, SlotShoulders, SlotChest, SlotBack, SlotWrists,
	SlotHands, SlotWaist, SlotLegs, SlotFeet, SlotFinger,
	SlotMainHand, SlotOffHand,
}

// Currency is a gold/silver/copper triple. Components are independent and
// non-negative; 100 copper = 1 silver = 1/100 gold for display only.
type Currency struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Copper int `json:"copper"`
}

// TotalCopper flattens the triple for price comparisons.
func (c Currency) TotalCopper() int {
	return c.Gold*10000 + c.Silver*100 + c.Copper
}

// Stats holds the seven core attributes.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Agility      int `json:"agility"`
	Constitution int `json:"constitution"`
	Wisdom       int `json:"wisdom"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`
}

// User is the full persistent player record. In-memory instances are owned
// by the world State and mutated only from the game loop goroutine.
type User struct {
	Username     string `json:"username"` // folded, unique
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt,omitempty"` // legacy imports only; bcrypt embeds its own

	Health      int `json:"health"`
	MaxHealth   int `json:"maxHealth"`
	Mana        int `json:"mana"`
	MaxMana     int `json:"maxMana"`
	Resource    int `json:"resource"`
	MaxResource int `json:"maxResource"`

	Level      int   `json:"level"`
	Experience int64 `json:"experience"`

	Stats Stats `json:"stats"`

	CurrentRoomID string `json:"currentRoomId"`

	Inventory    []string             `json:"inventory"` // item instance IDs, ordered
	Money        Currency             `json:"money"`
	BankMoney    Currency             `json:"bankMoney"`
	Equipment    map[EquipSlot]string `json:"equipment"` // slot → item instance ID

	ClassID string `json:"classId"`
	RaceID  string `json:"raceId"`

	InCombat           bool   `json:"inCombat"`
	IsUnconscious      bool   `json:"isUnconscious"`
	IsResting          bool   `json:"isResting"`
	IsMeditating       bool   `json:"isMeditating"`
	MovementRestricted bool   `json:"movementRestricted"`
	RestrictedReason   string `json:"restrictedReason,omitempty"`
	IsSneaking         bool   `json:"isSneaking"`
	IsHiding           bool   `json:"isHiding"`

	JoinDate       time.Time `json:"joinDate"`
	LastLogin      time.Time `json:"lastLogin"`
	TotalPlayTime  int64     `json:"totalPlayTime"`            // seconds
	CommandHistory []string  `json:"commandHistory,omitempty"` // bounded ring, capacity 30

	PendingAdminMessages []string `json:"pendingAdminMessages,omitempty"`

	Flags map[string]bool `json:"flags,omitempty"` // "admin", "builder", "banned", …

	// QuestLog maps quest ID to status ("active", "completed", or a
	// content-defined stage label).
	QuestLog map[string]string `json:"questLog,omitempty"`

	// --- Runtime-only fields below (never persisted) ---

	CombatTarget string         `json:"-"` // NPC instance ID currently engaged, "" if none
	Cooldowns    map[string]int `json:"-"` // ability ID → remaining ticks
	HolyProgress int            `json:"-"` // HOLY resource charge counter
	Dirty        bool           `json:"-"` // set on mutation; batch save clears it
}

// XPForLevel is the total experience needed to reach a level. Quadratic
// curve: level 2 at 1000, level 3 at 4000, level 10 at 81000.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level - 1)
	return 1000 * n * n
}

// HasFlag reports whether an authorization flag is set.
func (u *User) HasFlag(flag string) bool {
	return u.Flags[flag]
}

// IsAdmin is shorthand for the admin flag.
func (u *User) IsAdmin() bool { return u.HasFlag("admin") }

// SetFlag sets or clears an authorization flag.
func (u *User) SetFlag(flag string, on bool) {
	if u.Flags == nil {
		u.Flags = make(map[string]bool)
	}
	if on {
		u.Flags[flag] = true
	} else {
		delete(u.Flags, flag)
	}
	u.Dirty = true
}

// ApplyDamage reduces health, clamping at zero and marking unconsciousness.
// Damage breaks rest and meditation. Returns true if the user dropped.
func (u *User) ApplyDamage(amount int) bool {
	if amount <= 0 {
		return false
	}
	u.IsResting = false
	u.IsMeditating = false
	u.Health -= amount
	if u.Health <= 0 {
		u.Health = 0
		u.IsUnconscious = true
		u.InCombat = false
		u.CombatTarget = ""
	}
	u.Dirty = true
	return u.Health == 0
}

// Heal raises health without exceeding the maximum.
func (u *User) Heal(amount int) {
	if amount <= 0 {
		return
	}
	u.Health += amount
	if u.Health > u.MaxHealth {
		u.Health = u.MaxHealth
	}
	if u.Health > 0 {
		u.IsUnconscious = false
	}
	u.Dirty = true
}

// RecordCommand appends to the persisted command history ring.
func (u *User) RecordCommand(line string) {
	u.CommandHistory = append(u.CommandHistory, line)
	if len(u.CommandHistory) > 30 {
		u.CommandHistory = u.CommandHistory[len(u.CommandHistory)-30:]
	}
}

// QueueAdminMessage appends an offline admin message.
func (u *User) QueueAdminMessage(msg string) {
	u.PendingAdminMessages = append(u.PendingAdminMessages, msg)
	u.Dirty = true
}

// DrainAdminMessages returns and clears the offline message queue.
func (u *User) DrainAdminMessages() []string {
	msgs := u.PendingAdminMessages
	u.PendingAdminMessages = nil
	if len(msgs) > 0 {
		u.Dirty = true
	}
	return msgs
}

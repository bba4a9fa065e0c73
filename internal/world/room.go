package world

// Direction is a movement verb. Stored lowercase.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Opposite returns the reverse direction, or "" for unknown directions.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	}
	return ""
}

// Exit links a room to a neighbor.
type Exit struct {
	Direction    Direction `json:"direction" yaml:"direction"`
	TargetRoomID string    `json:"targetRoomId" yaml:"target"`
	Locked       bool      `json:"locked,omitempty" yaml:"locked"`
	KeyID        string    `json:"keyId,omitempty" yaml:"key"`
}

// Room is the static definition of a location. Mutable contents live in
// RoomState so static world content can ship read-only.
type Room struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Exits       []Exit   `json:"exits" yaml:"exits"`
	Flags       []string `json:"flags,omitempty" yaml:"flags"` // "safe", "no-recall", "pvp", "outdoor"
	AreaID      string   `json:"areaId,omitempty" yaml:"area"`
	GridX       int      `json:"gridX" yaml:"grid_x"`
	GridY       int      `json:"gridY" yaml:"grid_y"`
}

// ExitTo returns the exit in the given direction, or nil.
func (r *Room) ExitTo(dir Direction) *Exit {
	for i := range r.Exits {
		if r.Exits[i].Direction == dir {
			return &r.Exits[i]
		}
	}
	return nil
}

// HasFlag reports whether a static room flag is set.
func (r *Room) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// IsSafe reports the safe-room flag (passive NPCs never retaliate here).
func (r *Room) IsSafe() bool { return r.HasFlag("safe") }

// RoomState is the mutable runtime/persisted state of a room: what is lying
// on the floor and which NPC instances are currently spawned there. The
// online-player list is a runtime inverse index and is rebuilt on load.
type RoomState struct {
	RoomID   string   `json:"roomId"`
	Items    []string `json:"items,omitempty"` // item instance IDs on the floor
	Money    Currency `json:"money"`
	NpcIDs   []string `json:"npcIds,omitempty"` // spawned NPC instance IDs
	Players  []string `json:"-"`                // online usernames, runtime only
}

// Area groups rooms under shared flags.
type Area struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Flags []string `json:"flags,omitempty" yaml:"flags"`
}

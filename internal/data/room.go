package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mudgo/server/internal/world"
)

type roomListFile struct {
	Areas []world.Area `yaml:"areas"`
	Rooms []world.Room `yaml:"rooms"`
}

// RoomTable holds all static rooms and areas indexed by ID.
type RoomTable struct {
	rooms map[string]*world.Room
	areas map[string]*world.Area
}

// LoadRoomTable loads rooms and areas from a YAML file and validates that
// every exit targets a room that exists.
func LoadRoomTable(path string) (*RoomTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms: %w", err)
	}
	var f roomListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rooms: %w", err)
	}
	t := &RoomTable{
		rooms: make(map[string]*world.Room, len(f.Rooms)),
		areas: make(map[string]*world.Area, len(f.Areas)),
	}
	for i := range f.Areas {
		a := &f.Areas[i]
		if _, dup := t.areas[a.ID]; dup {
			return nil, fmt.Errorf("duplicate area id %q", a.ID)
		}
		t.areas[a.ID] = a
	}
	for i := range f.Rooms {
		r := &f.Rooms[i]
		if _, dup := t.rooms[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %q", r.ID)
		}
		t.rooms[r.ID] = r
	}
	for _, r := range t.rooms {
		for _, ex := range r.Exits {
			if _, ok := t.rooms[ex.TargetRoomID]; !ok {
				return nil, fmt.Errorf("room %q: exit %s targets unknown room %q", r.ID, ex.Direction, ex.TargetRoomID)
			}
		}
	}
	return t, nil
}

// Get returns a room by ID, or nil if not found.
func (t *RoomTable) Get(id string) *world.Room {
	return t.rooms[id]
}

// Count returns the number of loaded rooms.
func (t *RoomTable) Count() int {
	return len(t.rooms)
}

// ForEach iterates every room.
func (t *RoomTable) ForEach(fn func(*world.Room)) {
	for _, r := range t.rooms {
		fn(r)
	}
}

// Areas iterates every area.
func (t *RoomTable) Areas(fn func(*world.Area)) {
	for _, a := range t.areas {
		fn(a)
	}
}

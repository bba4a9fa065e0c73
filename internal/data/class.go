package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mudgo/server/internal/world"
)

// ClassDef is a playable class definition.
type ClassDef struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	BaseHealth  int         `yaml:"base_health"`
	BaseStats   world.Stats `yaml:"base_stats"`
	// StartingItems lists item template IDs minted into a new character's
	// inventory at creation.
	StartingItems []string `yaml:"starting_items"`
}

// RaceDef is a playable race; its modifiers add onto the class base stats.
type RaceDef struct {
	ID            string      `yaml:"id"`
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description"`
	StatModifiers world.Stats `yaml:"stat_modifiers"`
}

type classListFile struct {
	Classes []ClassDef `yaml:"classes"`
	Races   []RaceDef  `yaml:"races"`
}

// ClassTable holds classes and races indexed by ID.
type ClassTable struct {
	classes map[string]*ClassDef
	races   map[string]*RaceDef
}

// LoadClassTable loads class and race definitions from a YAML file.
func LoadClassTable(path string) (*ClassTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classes: %w", err)
	}
	var f classListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse classes: %w", err)
	}
	t := &ClassTable{
		classes: make(map[string]*ClassDef, len(f.Classes)),
		races:   make(map[string]*RaceDef, len(f.Races)),
	}
	for i := range f.Classes {
		c := &f.Classes[i]
		if _, dup := t.classes[c.ID]; dup {
			return nil, fmt.Errorf("duplicate class %q", c.ID)
		}
		t.classes[c.ID] = c
	}
	for i := range f.Races {
		r := &f.Races[i]
		if _, dup := t.races[r.ID]; dup {
			return nil, fmt.Errorf("duplicate race %q", r.ID)
		}
		t.races[r.ID] = r
	}
	return t, nil
}

// Class returns a class by ID, or nil.
func (t *ClassTable) Class(id string) *ClassDef { return t.classes[id] }

// Race returns a race by ID, or nil.
func (t *ClassTable) Race(id string) *RaceDef { return t.races[id] }

// ClassCount returns the number of loaded classes.
func (t *ClassTable) ClassCount() int { return len(t.classes) }

// RaceCount returns the number of loaded races.
func (t *ClassTable) RaceCount() int { return len(t.races) }

// ClassIDs lists class IDs for the signup prompt.
func (t *ClassTable) ClassIDs() []string {
	out := make([]string, 0, len(t.classes))
	for id := range t.classes {
		out = append(out, id)
	}
	return out
}

// RaceIDs lists race IDs for the signup prompt.
func (t *ClassTable) RaceIDs() []string {
	out := make([]string, 0, len(t.races))
	for id := range t.races {
		out = append(out, id)
	}
	return out
}

package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mudgo/server/internal/world"
)

// SpawnEntry defines which NPC template spawns in which room at boot.
type SpawnEntry struct {
	TemplateID string `yaml:"npc"`
	RoomID     string `yaml:"room"`
	Count      int    `yaml:"count"` // 0 means 1
}

type npcListFile struct {
	Npcs   []world.NpcTemplate `yaml:"npcs"`
	Spawns []SpawnEntry        `yaml:"spawns"`
}

// NpcTable holds all NPC templates indexed by ID, plus the boot spawn list.
type NpcTable struct {
	templates map[string]*world.NpcTemplate
	spawns    []SpawnEntry
}

// LoadNpcTable loads NPC templates and spawn entries from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npcs: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npcs: %w", err)
	}
	t := &NpcTable{templates: make(map[string]*world.NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		tmpl := &f.Npcs[i]
		if _, dup := t.templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("duplicate npc template %q", tmpl.ID)
		}
		t.templates[tmpl.ID] = tmpl
	}
	for _, s := range f.Spawns {
		if _, ok := t.templates[s.TemplateID]; !ok {
			return nil, fmt.Errorf("spawn entry references unknown npc %q", s.TemplateID)
		}
		if s.Count == 0 {
			s.Count = 1
		}
		t.spawns = append(t.spawns, s)
	}
	return t, nil
}

// Get returns an NPC template by ID, or nil if not found.
func (t *NpcTable) Get(id string) *world.NpcTemplate {
	return t.templates[id]
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}

// Spawns returns the boot spawn list.
func (t *NpcTable) Spawns() []SpawnEntry {
	return t.spawns
}

// ForEach iterates every template.
func (t *NpcTable) ForEach(fn func(*world.NpcTemplate)) {
	for _, tmpl := range t.templates {
		fn(tmpl)
	}
}

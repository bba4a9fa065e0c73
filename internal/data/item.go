package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mudgo/server/internal/world"
)

type itemListFile struct {
	Items []world.ItemTemplate `yaml:"items"`
}

// ItemTable holds all item templates indexed by ID.
type ItemTable struct {
	templates map[string]*world.ItemTemplate
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	t := &ItemTable{templates: make(map[string]*world.ItemTemplate, len(f.Items))}
	for i := range f.Items {
		tmpl := &f.Items[i]
		if _, dup := t.templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("duplicate item template %q", tmpl.ID)
		}
		t.templates[tmpl.ID] = tmpl
	}
	return t, nil
}

// Get returns an item template by ID, or nil if not found.
func (t *ItemTable) Get(id string) *world.ItemTemplate {
	return t.templates[id]
}

// Count returns the number of loaded templates.
func (t *ItemTable) Count() int {
	return len(t.templates)
}

// ForEach iterates every template.
func (t *ItemTable) ForEach(fn func(*world.ItemTemplate)) {
	for _, tmpl := range t.templates {
		fn(tmpl)
	}
}

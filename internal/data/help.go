package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HelpTopic is one entry shown by the help command.
type HelpTopic struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`
	Summary  string   `yaml:"summary"`
	Body     string   `yaml:"body"`
	AdminOnly bool    `yaml:"admin_only"`
}

type helpListFile struct {
	Topics []HelpTopic `yaml:"topics"`
}

// HelpTable holds help topics indexed by name and alias.
type HelpTable struct {
	topics []HelpTopic
	index  map[string]*HelpTopic
}

// LoadHelpTable loads help topics from a YAML file.
func LoadHelpTable(path string) (*HelpTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read help: %w", err)
	}
	var f helpListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse help: %w", err)
	}
	t := &HelpTable{topics: f.Topics, index: make(map[string]*HelpTopic)}
	for i := range t.topics {
		topic := &t.topics[i]
		t.index[topic.Name] = topic
		for _, alias := range topic.Aliases {
			t.index[alias] = topic
		}
	}
	return t, nil
}

// Get resolves a topic by name or alias, or nil.
func (t *HelpTable) Get(name string) *HelpTopic {
	return t.index[name]
}

// Topics lists all topics in file order.
func (t *HelpTable) Topics() []HelpTopic {
	return t.topics
}

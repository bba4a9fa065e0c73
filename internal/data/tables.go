package data

import (
	"path/filepath"

	"go.uber.org/zap"
)

// Tables bundles every static table loaded at boot. All tables are
// read-only after load and safe to share across goroutines.
type Tables struct {
	Rooms     *RoomTable
	Items     *ItemTable
	Npcs      *NpcTable
	Abilities *AbilityTable
	Classes   *ClassTable
	Help      *HelpTable
}

// LoadTables loads every static table from the data directory. File names
// are fixed: rooms.yaml, items.yaml, npcs.yaml, abilities.yaml,
// classes.yaml, help.yaml.
func LoadTables(dir string, log *zap.Logger) (*Tables, error) {
	t := &Tables{}
	var err error

	if t.Rooms, err = LoadRoomTable(filepath.Join(dir, "rooms.yaml")); err != nil {
		return nil, err
	}
	if t.Items, err = LoadItemTable(filepath.Join(dir, "items.yaml")); err != nil {
		return nil, err
	}
	if t.Npcs, err = LoadNpcTable(filepath.Join(dir, "npcs.yaml")); err != nil {
		return nil, err
	}
	if t.Abilities, err = LoadAbilityTable(filepath.Join(dir, "abilities.yaml")); err != nil {
		return nil, err
	}
	if t.Classes, err = LoadClassTable(filepath.Join(dir, "classes.yaml")); err != nil {
		return nil, err
	}
	if t.Help, err = LoadHelpTable(filepath.Join(dir, "help.yaml")); err != nil {
		return nil, err
	}

	log.Info("static tables loaded",
		zap.Int("rooms", t.Rooms.Count()),
		zap.Int("items", t.Items.Count()),
		zap.Int("npcs", t.Npcs.Count()),
		zap.Int("abilities", t.Abilities.Count()),
		zap.Int("classes", t.Classes.ClassCount()),
		zap.Int("races", t.Classes.RaceCount()),
	)
	return t, nil
}

package world

import "encoding/json"

// Quest is one entry in the world's quest table. The engine treats the
// Data document as opaque; quest content tooling owns its shape, the
// server only registers quests and tracks per-user status.
type Quest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MinLevel    int             `json:"minLevel,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Quest log status values. Free-form strings are allowed; these are the
// ones the engine itself writes.
const (
	QuestActive    = "active"
	QuestCompleted = "completed"
)

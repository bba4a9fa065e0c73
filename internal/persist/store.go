package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mudgo/server/internal/config"
)

// ErrNotFound is returned by LoadOne for a missing record.
var ErrNotFound = errors.New("persist: record not found")

// Collection names. Every backend stores the same collections of JSON
// documents keyed by record key, so export and import round-trip across
// backends without translation.
const (
	ColUsers       = "users"
	ColRoomState   = "room_state"
	ColItems       = "items"
	ColNpcs        = "npcs"
	ColRespawns    = "respawns"
	ColQuests      = "quests"
	ColMudConfig   = "mud_config"
	ColSnakeScores = "snake_scores"
	ColBugReports  = "bug_reports"
)

// Collections lists every known collection, in export order.
var Collections = []string{
	ColUsers, ColRoomState, ColItems, ColNpcs, ColRespawns,
	ColQuests, ColMudConfig, ColSnakeScores, ColBugReports,
}

// Store is a keyed JSON document store. One implementation per backend
// (file, sqlite, postgres); the game loop only ever sees this interface.
type Store interface {
	// LoadAll returns every document in a collection keyed by record key.
	// A missing collection yields an empty map, not an error.
	LoadAll(ctx context.Context, collection string) (map[string]json.RawMessage, error)

	// LoadOne returns a single document or ErrNotFound.
	LoadOne(ctx context.Context, collection, key string) (json.RawMessage, error)

	// SaveOne upserts a single document.
	SaveOne(ctx context.Context, collection, key string, doc json.RawMessage) error

	// SaveAll upserts a batch of documents in one write.
	SaveAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error

	// ReplaceAll overwrites a collection with exactly the given documents.
	// Records absent from docs are removed. Snapshot saves use this so
	// despawned entities do not linger in the store.
	ReplaceAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error

	// Delete removes a document. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error

	Close() error
}

// Open builds the store named by the config backend.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "file", "":
		return OpenFileStore(cfg.DataDir, log)
	case "sqlite":
		return OpenSqliteStore(ctx, cfg.SQLitePath, log)
	case "postgres":
		return OpenPostgresStore(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// MarshalDoc is the single marshalling point so every backend writes
// byte-identical documents.
func MarshalDoc(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal doc: %w", err)
	}
	return b, nil
}

package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// FileStore keeps one JSON file per collection under a save directory. The
// whole collection is rewritten on save via tempfile + rename, so a crash
// mid-write never corrupts the previous snapshot. A directory-level flock
// guards against two server processes sharing one save dir.
type FileStore struct {
	dir  string
	lock *flock.Flock
	log  *zap.Logger
}

func OpenFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire save dir lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("save dir %s is locked by another process", dir)
	}
	return &FileStore{dir: dir, lock: lock, log: log}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStore) LoadAll(_ context.Context, collection string) (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.path(collection))
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	docs := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return docs, nil
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", collection, err)
	}
	return docs, nil
}

func (s *FileStore) LoadOne(ctx context.Context, collection, key string) (json.RawMessage, error) {
	docs, err := s.LoadAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	doc, ok := docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *FileStore) SaveOne(ctx context.Context, collection, key string, doc json.RawMessage) error {
	docs, err := s.LoadAll(ctx, collection)
	if err != nil {
		return err
	}
	docs[key] = doc
	return s.writeCollection(collection, docs)
}

func (s *FileStore) SaveAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error {
	existing, err := s.LoadAll(ctx, collection)
	if err != nil {
		return err
	}
	for k, v := range docs {
		existing[k] = v
	}
	return s.writeCollection(collection, existing)
}

func (s *FileStore) ReplaceAll(_ context.Context, collection string, docs map[string]json.RawMessage) error {
	if docs == nil {
		docs = map[string]json.RawMessage{}
	}
	return s.writeCollection(collection, docs)
}

func (s *FileStore) Delete(ctx context.Context, collection, key string) error {
	docs, err := s.LoadAll(ctx, collection)
	if err != nil {
		return err
	}
	if _, ok := docs[key]; !ok {
		return nil
	}
	delete(docs, key)
	return s.writeCollection(collection, docs)
}

// writeCollection serializes the full collection and atomically replaces
// the on-disk file.
func (s *FileStore) writeCollection(collection string, docs map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", collection, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", collection, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return s.lock.Unlock()
}

// sentinelFile records which backend last wrote a save directory, so the
// migration tool can refuse to import over a live mismatched store.
const sentinelFile = ".backend"

// WriteSentinel records the active backend name in the save directory.
func WriteSentinel(dir, backend string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, sentinelFile), []byte(backend+"\n"), 0o644)
}

// ReadSentinel returns the recorded backend name, or "" when unrecorded.
func ReadSentinel(dir string) string {
	raw, err := os.ReadFile(filepath.Join(dir, sentinelFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

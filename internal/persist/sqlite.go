package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SqliteStore keeps documents in a single-file SQLite database, one row per
// (collection, key). Suited to single-host deployments that want SQL
// tooling without a Postgres server.
type SqliteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func OpenSqliteStore(ctx context.Context, path string, log *zap.Logger) (*SqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer; the game loop is the only mutator.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := runSqliteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db, log: log}, nil
}

func (s *SqliteStore) LoadAll(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, doc FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	docs := map[string]json.RawMessage{}
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs[key] = json.RawMessage(doc)
	}
	return docs, rows.Err()
}

func (s *SqliteStore) LoadOne(ctx context.Context, collection, key string) (json.RawMessage, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = ? AND key = ?`, collection, key,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", collection, key, err)
	}
	return json.RawMessage(doc), nil
}

func (s *SqliteStore) SaveOne(ctx context.Context, collection, key string, doc json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, key, doc, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(collection, key) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		collection, key, string(doc))
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SqliteStore) SaveAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", collection, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (collection, key, doc, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(collection, key) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare save %s: %w", collection, err)
	}
	defer stmt.Close()

	for key, doc := range docs {
		if _, err := stmt.ExecContext(ctx, collection, key, string(doc)); err != nil {
			return fmt.Errorf("save %s/%s: %w", collection, key, err)
		}
	}
	return tx.Commit()
}

func (s *SqliteStore) ReplaceAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", collection, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (collection, key, doc, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("prepare replace %s: %w", collection, err)
	}
	defer stmt.Close()

	for key, doc := range docs {
		if _, err := stmt.ExecContext(ctx, collection, key, string(doc)); err != nil {
			return fmt.Errorf("replace %s/%s: %w", collection, key, err)
		}
	}
	return tx.Commit()
}

func (s *SqliteStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND key = ?`, collection, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mudgo/server/internal/config"
)

// PostgresStore keeps documents in a (collection, key, doc JSONB) table.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func OpenPostgresStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

func (s *PostgresStore) LoadAll(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, doc FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	docs := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var doc []byte
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		docs[key] = json.RawMessage(doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) LoadOne(ctx context.Context, collection, key string) (json.RawMessage, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND key = $2`, collection, key,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", collection, key, err)
	}
	return json.RawMessage(doc), nil
}

func (s *PostgresStore) SaveOne(ctx context.Context, collection, key string, doc json.RawMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, key, doc, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (collection, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		collection, key, []byte(doc))
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *PostgresStore) SaveAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error {
	batch := &pgx.Batch{}
	for key, doc := range docs {
		batch.Queue(
			`INSERT INTO documents (collection, key, doc, updated_at)
			 VALUES ($1, $2, $3, now())
			 ON CONFLICT (collection, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
			collection, key, []byte(doc))
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range docs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch save %s: %w", collection, err)
		}
	}
	return nil
}

func (s *PostgresStore) ReplaceAll(ctx context.Context, collection string, docs map[string]json.RawMessage) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM documents WHERE collection = $1`, collection)
	for key, doc := range docs {
		batch.Queue(
			`INSERT INTO documents (collection, key, doc, updated_at)
			 VALUES ($1, $2, $3, now())`,
			collection, key, []byte(doc))
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < len(docs)+1; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch replace %s: %w", collection, err)
		}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so the KV works with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	pgGetSQL = `SELECT value FROM kv_store
		WHERE namespace = $1 AND key = $2
		  AND (expires_at IS NULL OR expires_at > now())`

	pgSetSQL = `INSERT INTO kv_store (namespace, key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`

	pgDeleteSQL = `DELETE FROM kv_store WHERE namespace = $1 AND key = $2`
)

// PostgresKV stores keys in the kv_store table, scoped by namespace.
type PostgresKV struct {
	db        DBTX
	namespace string
}

// NewPostgresKV creates a Postgres-backed KV. The kv_store table must exist
// (see infra.RunMigrations).
func NewPostgresKV(db DBTX, namespace string) *PostgresKV {
	return &PostgresKV{db: db, namespace: namespace}
}

func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, pgGetSQL, s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *PostgresKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, pgSetSQL, s.namespace, key, value, expiryFor(ttl))
	return err
}

func (s *PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, pgDeleteSQL, s.namespace, key)
	return err
}

func expiryFor(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().Add(ttl).UTC()
	return &t
}

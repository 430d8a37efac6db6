package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelpass/proj/internal/storage"
)

// PostgresDB backs the KeyValueStore capability with a single kv table, for
// deployments where the personalization data should outlive the host machine.
type PostgresDB struct {
	Conn *pgxpool.Pool
}

const schema = `CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func New(ctx context.Context, dsn string, maxConns int, maxConnIdleTime time.Duration) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pool.Config().MaxConns = int32(maxConns)
	pool.Config().MaxConnIdleTime = maxConnIdleTime
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure kv table: %w", err)
	}
	return &PostgresDB{Conn: pool}, nil
}

func (db *PostgresDB) Get(ctx context.Context, key string) ([]byte, error) {
	rows, err := db.Conn.Query(ctx, "SELECT value FROM kv_store WHERE key = $1", key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	value, err := pgx.CollectOneRow(rows, pgx.RowTo[[]byte])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return value, nil
}

func (db *PostgresDB) Set(ctx context.Context, key string, value []byte) error {
	_, err := db.Conn.Exec(
		ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = now()`,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (db *PostgresDB) Delete(ctx context.Context, key string) error {
	_, err := db.Conn.Exec(ctx, "DELETE FROM kv_store WHERE key = $1", key)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	DSN    string
	Schema string
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(dsn, schema string, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		DSN:    dsn,
		Schema: schema,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Name() string {
	return "postgres"
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", d.DSN)
	if err != nil {
		return helpers.NewStorageError("open postgres", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return helpers.NewStorageError("ping postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewStorageError("create schema "+d.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			body BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
	`, d.table())
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return helpers.NewStorageError("create cache_entries", err)
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) table() string {
	return fmt.Sprintf(`"%s"."cache_entries"`, d.Schema)
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if d.DB == nil {
		return nil, false, helpers.NewStorageError("postgres store not initialized", nil)
	}

	var body []byte
	err := d.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT body FROM %s WHERE key = $1", d.table()), key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helpers.NewStorageError("read cache entry "+key, err)
	}
	return body, true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Put(ctx context.Context, key string, body []byte) error {
	if d.DB == nil {
		return helpers.NewStorageError("postgres store not initialized", nil)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, body, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at
	`, d.table())
	if _, err := d.DB.ExecContext(ctx, query, key, body, time.Now().UTC()); err != nil {
		return helpers.NewStorageError("write cache entry "+key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Count(ctx context.Context) (int, error) {
	if d.DB == nil {
		return 0, helpers.NewStorageError("postgres store not initialized", nil)
	}

	var n int
	if err := d.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", d.table())).Scan(&n); err != nil {
		return 0, helpers.NewStorageError("count cache entries", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

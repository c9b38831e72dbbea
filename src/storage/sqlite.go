package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Path   string
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(path string, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		Path:   path,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("sqlite", d.Path)
	if err != nil {
		return helpers.NewStorageError("open sqlite", err)
	}
	// One connection: ":memory:" databases are per connection and SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return helpers.NewStorageError("ping sqlite", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return helpers.NewStorageError("create cache_entries", err)
	}

	d.Logger.Info("SQLite cache ready at %s", d.Path)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if d.DB == nil {
		return nil, false, helpers.NewStorageError("sqlite store not initialized", nil)
	}

	var body []byte
	err := d.DB.QueryRowContext(ctx, "SELECT body FROM cache_entries WHERE key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helpers.NewStorageError("read cache entry "+key, err)
	}
	return body, true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Put(ctx context.Context, key string, body []byte) error {
	if d.DB == nil {
		return helpers.NewStorageError("sqlite store not initialized", nil)
	}

	query := `
		INSERT INTO cache_entries (key, body, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, created_at = excluded.created_at
	`
	if _, err := d.DB.ExecContext(ctx, query, key, body, time.Now().UTC().Unix()); err != nil {
		return helpers.NewStorageError("write cache entry "+key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Count(ctx context.Context) (int, error) {
	if d.DB == nil {
		return 0, helpers.NewStorageError("sqlite store not initialized", nil)
	}

	var n int
	if err := d.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&n); err != nil {
		return 0, helpers.NewStorageError("count cache entries", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("close sqlite: %w", err)
		}
	}
	return nil
}

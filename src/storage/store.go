package storage

import (
	"fmt"

	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"
)

// -----------------------------------------------------------------------------

// NewStore returns the cache backend selected in cfg. The store still needs
// Initialize before use.
func NewStore(cfg *models.MConfig, log *logger.Logger) (interfaces.ICacheStore, error) {
	switch cfg.Cache.Backend {
	case "", "file":
		return NewFileStore(cfg.Cache.Dir, log.Named("FileStore")), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Cache.DBPath, log.Named("SQLiteStore")), nil
	case "postgres":
		return NewPostgresStore(cfg.Cache.DBConnectionString, schemaName(cfg.Name), log.Named("PostgresStore")), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

// schemaName keeps letters, digits and underscores of the app name.
func schemaName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == '-' || r == '.':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "energy_forecast"
	}
	return string(out)
}

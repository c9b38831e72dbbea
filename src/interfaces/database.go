package interfaces

import "context"

// -----------------------------------------------------------------------------
// ICacheStore persists upstream bodies under their request key.
// -----------------------------------------------------------------------------

type ICacheStore interface {

	// -----------------------------------------------------------------------------

	// Initialize prepares the backing directory, file or schema.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Get returns the stored body and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// -----------------------------------------------------------------------------

	// Put stores body under key, replacing an existing entry.
	Put(ctx context.Context, key string, body []byte) error

	// -----------------------------------------------------------------------------

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// -----------------------------------------------------------------------------

	// Name identifies the backend in status output.
	Name() string

	// -----------------------------------------------------------------------------

	// Close releases the store.
	Close() error
}

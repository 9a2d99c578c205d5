package settings

import "context"

// Store is the key-value seam local settings are persisted through.
type Store interface {
	// Get returns the value stored under key. Returns (nil, nil) if the key
	// is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

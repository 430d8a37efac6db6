package storage

import "context"

// KeyValueStore is the durable storage capability the personalization layer
// runs on. One logical store per key, values are JSON-encoded blobs. All
// implementations are shared across execution contexts of the same deployment,
// so writes follow a last-writer-wins policy.
type KeyValueStore interface {
	// Get returns the stored value for key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}

// Null is the no-op store for contexts without a storage capability. Reads
// report absence and writes report ErrUnavailable, so callers degrade to
// in-memory-only operation instead of failing.
type Null struct{}

func (Null) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrNotFound
}

func (Null) Set(ctx context.Context, key string, value []byte) error {
	return ErrUnavailable
}

func (Null) Delete(ctx context.Context, key string) error {
	return ErrUnavailable
}

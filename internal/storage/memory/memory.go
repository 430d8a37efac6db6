package memory

import (
	"context"
	"sync"

	"reelpass/proj/internal/storage"
)

// Store is an in-memory KeyValueStore used by tests and provider-less
// execution contexts. It can be flipped into a failing state to exercise
// storage-unavailable paths.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	failed bool
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// SetFailing makes subsequent operations report ErrUnavailable, mimicking a
// quota or permission failure of the medium.
func (s *Store) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = failing
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failed {
		return nil, storage.ErrUnavailable
	}
	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return storage.ErrUnavailable
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return storage.ErrUnavailable
	}
	delete(s.values, key)
	return nil
}

package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelpass/proj/internal/storage"
)

var ErrStorageDirRequired = errors.New("storage directory not provided")

// Store persists each logical key as a JSON file inside a directory. Writes go
// through a temp file and rename so readers in other processes never observe a
// partial value.
type Store struct {
	mu  sync.RWMutex
	dir string
}

func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", storage.ErrUnavailable, key, err)
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(key)
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", storage.ErrUnavailable, key, err)
	}
	if _, err := file.Write(value); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", storage.ErrUnavailable, key, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: sync %s: %v", storage.ErrUnavailable, key, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", storage.ErrUnavailable, key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", storage.ErrUnavailable, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %v", storage.ErrUnavailable, key, err)
	}
	return nil
}

func (s *Store) pathFor(key string) string {
	// Keys are dotted identifiers like "metamask.userProfiles"; keep them
	// filesystem-safe.
	safe := strings.NewReplacer("/", "_", ":", ".").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/domain/models"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage"
)

// CollectionStore maps normalized accounts to an ordered, id-deduplicated list
// of movie summaries (newest added first) inside one JSON blob. Two instances
// back the watchlist and the liked list.
type CollectionStore struct {
	log  *slog.Logger
	kv   storage.KeyValueStore
	bus  pubsub.Broadcaster
	name string
	key  string

	mu         sync.Mutex
	cache      map[fields.Account][]models.MovieSummary
	canPersist bool

	listeners *listenerSet
	unsub     func()
}

func NewCollectionStore(log *slog.Logger, kv storage.KeyValueStore, bus pubsub.Broadcaster, name, key string) *CollectionStore {
	s := &CollectionStore{
		log:        log,
		kv:         kv,
		bus:        bus,
		name:       name,
		key:        key,
		cache:      make(map[fields.Account][]models.MovieSummary),
		canPersist: true,
		listeners:  newListenerSet(),
	}
	s.unsub = bus.Subscribe(key, s.onRemoteChange)
	return s
}

func (s *CollectionStore) Name() string {
	return s.name
}

// Close detaches the store from the cross-context channel.
func (s *CollectionStore) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// List returns the collection for account, freshly read. Absent accounts,
// corrupt data and unreadable storage all resolve to an empty list.
func (s *CollectionStore) List(ctx context.Context, account fields.Account) []models.MovieSummary {
	if account.IsNull() {
		return []models.MovieSummary{}
	}
	collections := s.read(ctx, account)
	list, ok := collections[account]
	if !ok {
		return []models.MovieSummary{}
	}
	return list
}

// Contains reports whether the collection for account holds the given id.
func (s *CollectionStore) Contains(ctx context.Context, account fields.Account, id int64) bool {
	for _, item := range s.List(ctx, account) {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Toggle removes the movie when an entry with the same id exists, otherwise
// prepends its summary. Movies without a usable id leave the collection
// unchanged. A storage.ErrUnavailable result means the returned state is held
// in memory only.
func (s *CollectionStore) Toggle(ctx context.Context, account fields.Account, movie models.CatalogMovie) ([]models.MovieSummary, error) {
	const op = "stores.CollectionStore.Toggle"
	if account.IsNull() {
		return nil, ErrAccountRequired
	}

	// Recompute from a fresh read so a concurrent cross-context update is not
	// clobbered by a stale in-memory view.
	collections := s.read(ctx, account)
	previous := collections[account]

	next, changed := toggle(previous, movie)
	if !changed {
		return previous, nil
	}

	if len(next) == 0 {
		delete(collections, account)
	} else {
		collections[account] = next
	}

	if err := s.write(ctx, collections); err != nil {
		s.log.With("op", op, "collection", s.name).
			Warn("toggle kept in memory only", "account", account.Label(), "errMsg", err.Error())
		return next, err
	}
	return next, nil
}

// CanPersist reports whether the last write reached durable storage.
func (s *CollectionStore) CanPersist() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canPersist
}

// Subscribe registers an in-process listener invoked after every observed
// change, local or remote. Returns an unsubscribe action.
func (s *CollectionStore) Subscribe(fn func()) func() {
	return s.listeners.add(fn)
}

func toggle(previous []models.MovieSummary, movie models.CatalogMovie) (next []models.MovieSummary, changed bool) {
	if movie.ID == 0 {
		return previous, false
	}
	for i, item := range previous {
		if item.ID == movie.ID {
			next = make([]models.MovieSummary, 0, len(previous)-1)
			next = append(next, previous[:i]...)
			return append(next, previous[i+1:]...), true
		}
	}
	summary, ok := models.Summarize(movie)
	if !ok {
		return previous, false
	}
	next = make([]models.MovieSummary, 0, len(previous)+1)
	next = append(next, summary)
	return append(next, previous...), true
}

func (s *CollectionStore) read(ctx context.Context, requester fields.Account) map[fields.Account][]models.MovieSummary {
	const op = "stores.CollectionStore.read"
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if storage.IsUnavailable(err) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return cloneCollections(s.cache)
		}
		return make(map[fields.Account][]models.MovieSummary)
	}
	collections := decodeCollections(data, requester)
	if collections == nil {
		s.log.With("op", op, "collection", s.name).Debug("corrupt collection blob, treating as empty")
		collections = make(map[fields.Account][]models.MovieSummary)
	}
	s.mu.Lock()
	s.cache = cloneCollections(collections)
	s.mu.Unlock()
	return collections
}

func (s *CollectionStore) write(ctx context.Context, collections map[fields.Account][]models.MovieSummary) error {
	data, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}

	s.mu.Lock()
	s.cache = cloneCollections(collections)
	s.mu.Unlock()

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.setCanPersist(false)
		s.listeners.notify()
		return err
	}
	s.setCanPersist(true)
	s.listeners.notify()

	if err := s.bus.Publish(ctx, s.key, data); err != nil {
		s.log.Debug("collection broadcast failed", "collection", s.name, "errMsg", err.Error())
	}
	return nil
}

func (s *CollectionStore) onRemoteChange(payload []byte) {
	collections := decodeCollections(payload, fields.Null)
	if collections == nil {
		return
	}
	s.mu.Lock()
	s.cache = collections
	s.mu.Unlock()
	s.listeners.notify()
}

func (s *CollectionStore) setCanPersist(ok bool) {
	s.mu.Lock()
	s.canPersist = ok
	s.mu.Unlock()
}

// decodeCollections parses the per-account map variant, deduplicating each
// list by id and dropping entries without one. A legacy bare-array blob (the
// old single global list) is adopted by the requesting account; it gets
// re-encoded in the map layout on the next write.
func decodeCollections(data []byte, requester fields.Account) map[fields.Account][]models.MovieSummary {
	var raw map[string][]models.MovieSummary
	if err := json.Unmarshal(data, &raw); err == nil {
		collections := make(map[fields.Account][]models.MovieSummary, len(raw))
		for account, list := range raw {
			normalized := fields.NormalizeAddress(account)
			if normalized.IsNull() {
				continue
			}
			collections[normalized] = dedupe(list)
		}
		return collections
	}

	var legacy []models.MovieSummary
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil
	}
	collections := make(map[fields.Account][]models.MovieSummary, 1)
	if !requester.IsNull() && len(legacy) > 0 {
		collections[requester] = dedupe(legacy)
	}
	return collections
}

func dedupe(list []models.MovieSummary) []models.MovieSummary {
	seen := make(map[int64]bool, len(list))
	unique := make([]models.MovieSummary, 0, len(list))
	for _, item := range list {
		if item.ID == 0 || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		unique = append(unique, item)
	}
	return unique
}

func cloneCollections(src map[fields.Account][]models.MovieSummary) map[fields.Account][]models.MovieSummary {
	dst := make(map[fields.Account][]models.MovieSummary, len(src))
	for account, list := range src {
		copied := make([]models.MovieSummary, len(list))
		copy(copied, list)
		dst[account] = copied
	}
	return dst
}

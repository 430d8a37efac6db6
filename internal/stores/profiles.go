package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/domain/models"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage"
)

// ProfileStore maps normalized accounts to display-name profiles inside one
// JSON blob. An empty or whitespace-only display name is equivalent to "no
// profile" and removes the entry instead of storing an empty string.
type ProfileStore struct {
	log *slog.Logger
	kv  storage.KeyValueStore
	bus pubsub.Broadcaster

	mu         sync.Mutex
	cache      map[fields.Account]models.Profile
	canPersist bool

	listeners *listenerSet
	unsub     func()
}

func NewProfileStore(log *slog.Logger, kv storage.KeyValueStore, bus pubsub.Broadcaster) *ProfileStore {
	s := &ProfileStore{
		log:        log,
		kv:         kv,
		bus:        bus,
		cache:      make(map[fields.Account]models.Profile),
		canPersist: true,
		listeners:  newListenerSet(),
	}
	s.unsub = bus.Subscribe(ProfilesKey, s.onRemoteChange)
	return s
}

// Close detaches the store from the cross-context channel.
func (s *ProfileStore) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// Load reads the profile for account, freshly from storage. Absent entries,
// corrupt data and unreadable storage all resolve to nil, never an error.
func (s *ProfileStore) Load(ctx context.Context, account fields.Account) *models.Profile {
	if account.IsNull() {
		return nil
	}
	profiles := s.read(ctx)
	profile, ok := profiles[account]
	if !ok {
		return nil
	}
	displayName := strings.TrimSpace(profile.DisplayName)
	if displayName == "" {
		return nil
	}
	return &models.Profile{DisplayName: displayName}
}

// Save stores the profile for account, or deletes it when the display name
// trims to empty. A storage.ErrUnavailable result means the in-memory state
// was updated but not persisted; callers surface a non-fatal warning.
func (s *ProfileStore) Save(ctx context.Context, account fields.Account, displayName string) error {
	const op = "stores.ProfileStore.Save"
	if account.IsNull() {
		return ErrAccountRequired
	}

	profiles := s.read(ctx)
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		if _, ok := profiles[account]; !ok {
			return nil
		}
		delete(profiles, account)
	} else {
		profiles[account] = models.Profile{DisplayName: displayName}
	}

	if err := s.write(ctx, profiles); err != nil {
		s.log.With("op", op).Warn("profile kept in memory only", "account", account.Label(), "errMsg", err.Error())
		return err
	}
	return nil
}

// CanPersist reports whether the last write reached durable storage.
func (s *ProfileStore) CanPersist() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canPersist
}

// Subscribe registers an in-process listener invoked after every observed
// change, local or remote. Returns an unsubscribe action.
func (s *ProfileStore) Subscribe(fn func()) func() {
	return s.listeners.add(fn)
}

func (s *ProfileStore) read(ctx context.Context) map[fields.Account]models.Profile {
	const op = "stores.ProfileStore.read"
	data, err := s.kv.Get(ctx, ProfilesKey)
	if err != nil {
		if storage.IsUnavailable(err) {
			// Serve the last known state while the medium is unreadable.
			s.mu.Lock()
			defer s.mu.Unlock()
			return cloneProfiles(s.cache)
		}
		return make(map[fields.Account]models.Profile)
	}
	profiles := decodeProfiles(data)
	if profiles == nil {
		s.log.With("op", op).Debug("corrupt profile blob, treating as empty")
		profiles = make(map[fields.Account]models.Profile)
	}
	s.mu.Lock()
	s.cache = cloneProfiles(profiles)
	s.mu.Unlock()
	return profiles
}

func (s *ProfileStore) write(ctx context.Context, profiles map[fields.Account]models.Profile) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	s.mu.Lock()
	s.cache = cloneProfiles(profiles)
	s.mu.Unlock()

	if err := s.kv.Set(ctx, ProfilesKey, data); err != nil {
		s.setCanPersist(false)
		s.listeners.notify()
		return err
	}
	s.setCanPersist(true)
	s.listeners.notify()

	if err := s.bus.Publish(ctx, ProfilesKey, data); err != nil {
		// Cross-context fan-out is best effort; other contexts re-read on
		// their next access.
		s.log.Debug("profile broadcast failed", "errMsg", err.Error())
	}
	return nil
}

func (s *ProfileStore) onRemoteChange(payload []byte) {
	profiles := decodeProfiles(payload)
	if profiles == nil {
		return
	}
	s.mu.Lock()
	s.cache = profiles
	s.mu.Unlock()
	s.listeners.notify()
}

func (s *ProfileStore) setCanPersist(ok bool) {
	s.mu.Lock()
	s.canPersist = ok
	s.mu.Unlock()
}

func decodeProfiles(data []byte) map[fields.Account]models.Profile {
	var raw map[string]models.Profile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	profiles := make(map[fields.Account]models.Profile, len(raw))
	for account, profile := range raw {
		normalized := fields.NormalizeAddress(account)
		if normalized.IsNull() {
			continue
		}
		profiles[normalized] = profile
	}
	return profiles
}

func cloneProfiles(src map[fields.Account]models.Profile) map[fields.Account]models.Profile {
	dst := make(map[fields.Account]models.Profile, len(src))
	for account, profile := range src {
		dst[account] = profile
	}
	return dst
}

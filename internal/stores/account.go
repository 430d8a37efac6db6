package stores

import (
	"context"
	"errors"
	"log/slog"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/storage"
)

// AccountStore persists the last known account as a single value. Both
// operations degrade gracefully when the medium is unavailable: Load reports
// the null identity and Save becomes a no-op.
type AccountStore struct {
	log *slog.Logger
	kv  storage.KeyValueStore
}

func NewAccountStore(log *slog.Logger, kv storage.KeyValueStore) *AccountStore {
	return &AccountStore{log: log, kv: kv}
}

// Load returns the persisted account, normalized, or the null identity.
func (s *AccountStore) Load(ctx context.Context) fields.Account {
	const op = "stores.AccountStore.Load"
	value, err := s.kv.Get(ctx, AccountKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.With("op", op).Warn("account read failed, treating as absent", "errMsg", err.Error())
		}
		return fields.Null
	}
	return fields.NormalizeAddress(string(value))
}

// Save writes the account, or removes the stored value when account is null.
func (s *AccountStore) Save(ctx context.Context, account fields.Account) {
	const op = "stores.AccountStore.Save"
	var err error
	if account.IsNull() {
		err = s.kv.Delete(ctx, AccountKey)
	} else {
		err = s.kv.Set(ctx, AccountKey, []byte(account))
	}
	if err != nil {
		s.log.With("op", op).Warn("account write failed, continuing without persistence", "errMsg", err.Error())
	}
}

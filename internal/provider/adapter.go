package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/stores"
)

// State tracks the adapter's position in its connection lifecycle.
type State int32

const (
	StateNoProvider State = iota
	StateIdle
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNoProvider:
		return "no_provider"
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Adapter sits between the raw wallet capability and the session layer: it
// normalizes accounts, persists every resolution as the last known account,
// classifies provider failures, and serializes connection prompts so at most
// one is in flight regardless of how many callers ask.
type Adapter struct {
	log      *slog.Logger
	provider WalletProvider
	accounts *stores.AccountStore
	group    singleflight.Group
	state    atomic.Int32
}

// New creates an adapter. A nil provider means no wallet is injected in this
// execution context; every operation then reports absence instead of failing.
func New(log *slog.Logger, walletProvider WalletProvider, accounts *stores.AccountStore) *Adapter {
	a := &Adapter{
		log:      log,
		provider: walletProvider,
		accounts: accounts,
	}
	if walletProvider != nil {
		a.state.Store(int32(StateIdle))
	}
	return a
}

// Detect reports whether a wallet provider is present. Side-effect free.
func (a *Adapter) Detect() bool {
	return a.provider != nil
}

func (a *Adapter) State() State {
	return State(a.state.Load())
}

// ConnectedAccount asks the provider for already-authorized accounts without
// prompting, persisting the result. A null account with a nil error means
// nothing is authorized (or no provider exists).
func (a *Adapter) ConnectedAccount(ctx context.Context) (fields.Account, error) {
	const op = "provider.Adapter.ConnectedAccount"
	if a.provider == nil {
		return fields.Null, nil
	}
	raw, err := a.provider.Request(ctx, MethodAccounts)
	if err != nil {
		a.log.With("op", op).Warn("passive account query failed", "errMsg", err.Error())
		return fields.Null, fmt.Errorf("%w: %s", ErrProvider, err.Error())
	}
	account := primaryAccount(raw)
	a.accounts.Save(ctx, account)
	if !account.IsNull() {
		a.state.Store(int32(StateConnected))
	}
	return account, nil
}

// RequestConnection prompts the user to connect. Concurrent callers share the
// outcome of a single underlying prompt; the provider rejects overlapping
// prompts, so a second prompt is never issued while one is pending.
func (a *Adapter) RequestConnection(ctx context.Context) (fields.Account, error) {
	const op = "provider.Adapter.RequestConnection"
	log := a.log.With("op", op)
	if a.provider == nil {
		return fields.Null, ErrProviderUnavailable
	}

	a.state.Store(int32(StateConnecting))
	result, err, shared := a.group.Do("connect", func() (any, error) {
		raw, err := a.provider.Request(ctx, MethodRequestAccounts)
		if err != nil {
			return fields.Null, classify(err)
		}
		account := primaryAccount(raw)
		if account.IsNull() {
			return fields.Null, ErrNoAccounts
		}
		a.accounts.Save(ctx, account)
		return account, nil
	})
	if shared {
		log.Debug("joined in-flight connection request")
	}
	if err != nil {
		a.state.Store(int32(StateFailed))
		log.Warn("connection request failed", "errMsg", err.Error())
		return fields.Null, err
	}
	account := result.(fields.Account)
	a.state.Store(int32(StateConnected))
	log.Info("wallet connected", "account", account.Label())
	return account, nil
}

// Subscribe registers a listener for account changes. Each notification is
// normalized and persisted before onChange runs. The returned unsubscribe
// action is a no-op once the provider is gone, never an error.
func (a *Adapter) Subscribe(onChange func(fields.Account)) func() {
	if a.provider == nil {
		return func() {}
	}
	return a.provider.OnAccountsChanged(func(raw []string) {
		account := primaryAccount(raw)
		a.accounts.Save(context.Background(), account)
		if account.IsNull() {
			a.state.Store(int32(StateIdle))
		} else {
			a.state.Store(int32(StateConnected))
		}
		onChange(account)
	})
}

func classify(err error) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeRequestPending {
		return ErrRequestConflict
	}
	return fmt.Errorf("%w: %s", ErrProvider, err.Error())
}

func primaryAccount(raw []string) fields.Account {
	if len(raw) == 0 {
		return fields.Null
	}
	return fields.NormalizeAddress(raw[0])
}

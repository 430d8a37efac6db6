package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"reelpass/proj/internal/provider"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage/memory"
	"reelpass/proj/internal/stores"
)

type stubProvider struct {
	mu       sync.Mutex
	accounts []string
	err      error
	handlers []func([]string)
}

func (p *stubProvider) Request(ctx context.Context, method string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.accounts, nil
}

func (p *stubProvider) OnAccountsChanged(fn func(accounts []string)) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, fn)
	return func() {}
}

func (p *stubProvider) emit(accounts []string) {
	p.mu.Lock()
	p.accounts = accounts
	handlers := make([]func([]string), len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()
	for _, fn := range handlers {
		fn(accounts)
	}
}

type harness struct {
	controller *Controller
	accounts   *stores.AccountStore
	profiles   *stores.ProfileStore
	kv         *memory.Store
}

func newHarness(t *testing.T, stub provider.WalletProvider) *harness {
	t.Helper()
	log := slog.Default()
	kv := memory.New()
	accounts := stores.NewAccountStore(log, kv)
	profiles := stores.NewProfileStore(log, kv, pubsub.Noop{})
	t.Cleanup(profiles.Close)
	adapter := provider.New(log, stub, accounts)
	controller := New(log, adapter, accounts, profiles)
	t.Cleanup(controller.Close)
	return &harness{controller: controller, accounts: accounts, profiles: profiles, kv: kv}
}

func TestInitWithoutProvider(t *testing.T) {
	h := newHarness(t, nil)
	h.controller.Init(context.Background())

	state := h.controller.Snapshot()
	assert.True(t, state.Ready)
	assert.False(t, state.HasProvider)
	assert.False(t, state.Authenticated())
}

func TestInitPicksUpAuthorizedAccount(t *testing.T) {
	stub := &stubProvider{accounts: []string{"0xABCdef1234567890ABCdef1234567890ABCdef12"}}
	h := newHarness(t, stub)
	h.controller.Init(context.Background())

	state := h.controller.Snapshot()
	assert.True(t, state.Ready)
	assert.True(t, state.HasProvider)
	assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", state.Account.String())
	assert.Equal(t, state.Account, h.accounts.Load(context.Background()))
}

func TestInitSwallowsPassiveCheckFailure(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{err: errors.New("provider hiccup")}
	h := newHarness(t, stub)
	h.accounts.Save(ctx, "0xabc123abc123abc123abc123abc123abc123abcd")

	h.controller.Init(ctx)
	state := h.controller.Snapshot()
	assert.True(t, state.Ready)
	assert.Empty(t, state.Error)
	// The persisted account stays applied optimistically.
	assert.Equal(t, "0xabc123abc123abc123abc123abc123abc123abcd", state.Account.String())
}

func TestConnect(t *testing.T) {
	t.Run("applies account and profile", func(t *testing.T) {
		ctx := context.Background()
		stub := &stubProvider{}
		h := newHarness(t, stub)
		h.profiles.Save(ctx, "0xabc123abc123abc123abc123abc123abc123abcd", "Movie Fan")
		h.controller.Init(ctx)

		stub.mu.Lock()
		stub.accounts = []string{"0xABC123abc123abc123abc123abc123abc123abcd"}
		stub.mu.Unlock()

		account, err := h.controller.Connect(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "0xabc123abc123abc123abc123abc123abc123abcd", account.String())

		state := h.controller.Snapshot()
		assert.False(t, state.Connecting)
		assert.NotNil(t, state.Profile)
		assert.Equal(t, "Movie Fan", state.Profile.DisplayName)
	})
	t.Run("records the classified error", func(t *testing.T) {
		ctx := context.Background()
		stub := &stubProvider{err: &provider.RPCError{Code: provider.CodeRequestPending, Message: "busy"}}
		h := newHarness(t, stub)
		h.controller.Init(ctx)

		_, err := h.controller.Connect(ctx)
		assert.ErrorIs(t, err, provider.ErrRequestConflict)

		state := h.controller.Snapshot()
		assert.False(t, state.Connecting)
		assert.NotEmpty(t, state.Error)
		assert.False(t, state.Authenticated())
	})
	t.Run("a new attempt clears the previous error", func(t *testing.T) {
		ctx := context.Background()
		stub := &stubProvider{err: errors.New("rejected")}
		h := newHarness(t, stub)
		h.controller.Init(ctx)
		h.controller.Connect(ctx)

		stub.mu.Lock()
		stub.err = nil
		stub.accounts = []string{"0xabc123abc123abc123abc123abc123abc123abcd"}
		stub.mu.Unlock()

		_, err := h.controller.Connect(ctx)
		assert.NoError(t, err)
		assert.Empty(t, h.controller.Snapshot().Error)
	})
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{accounts: []string{"0xabc123abc123abc123abc123abc123abc123abcd"}}
	h := newHarness(t, stub)
	h.controller.Init(ctx)
	assert.True(t, h.controller.Snapshot().Authenticated())

	h.controller.Disconnect(ctx)
	state := h.controller.Snapshot()
	assert.False(t, state.Authenticated())
	assert.Nil(t, state.Profile)
	assert.True(t, h.accounts.Load(ctx).IsNull())
}

func TestAccountsChangedNotification(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{accounts: []string{"0xaaaa111111111111111111111111111111111111"}}
	h := newHarness(t, stub)
	h.profiles.Save(ctx, "0xbbbb222222222222222222222222222222222222", "Second Account")
	h.controller.Init(ctx)

	notified := 0
	unsub := h.controller.Subscribe(func() { notified++ })
	defer unsub()

	stub.emit([]string{"0xBBBB222222222222222222222222222222222222"})

	state := h.controller.Snapshot()
	assert.Equal(t, "0xbbbb222222222222222222222222222222222222", state.Account.String())
	assert.Equal(t, "Second Account", state.Profile.DisplayName)
	assert.Greater(t, notified, 0)

	stub.emit(nil)
	assert.False(t, h.controller.Snapshot().Authenticated())
}

func TestSnapshotAggregatesCanPersist(t *testing.T) {
	ctx := context.Background()
	stub := &stubProvider{accounts: []string{"0xabc123abc123abc123abc123abc123abc123abcd"}}
	h := newHarness(t, stub)
	h.controller.Init(ctx)
	assert.True(t, h.controller.Snapshot().CanPersist)

	h.kv.SetFailing(true)
	h.profiles.Save(ctx, h.controller.Snapshot().Account, "Memory Only")
	assert.False(t, h.controller.Snapshot().CanPersist)

	h.kv.SetFailing(false)
	h.profiles.Save(ctx, h.controller.Snapshot().Account, "Durable Again")
	assert.True(t, h.controller.Snapshot().CanPersist)
}

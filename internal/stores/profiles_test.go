package stores

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage/memory"
)

const wallet = fields.Account("0xabcdef1234567890abcdef1234567890abcdef12")
const otherWallet = fields.Account("0x1111111111111111111111111111111111111111")

func newProfileStore(t *testing.T) (*ProfileStore, *memory.Store) {
	t.Helper()
	kv := memory.New()
	store := NewProfileStore(slog.Default(), kv, pubsub.Noop{})
	t.Cleanup(store.Close)
	return store, kv
}

func TestProfileSaveAndLoad(t *testing.T) {
	store, _ := newProfileStore(t)
	ctx := context.Background()

	assert.Nil(t, store.Load(ctx, wallet))
	assert.NoError(t, store.Save(ctx, wallet, "  Movie Fan  "))

	profile := store.Load(ctx, wallet)
	assert.NotNil(t, profile)
	assert.Equal(t, "Movie Fan", profile.DisplayName)

	assert.Nil(t, store.Load(ctx, otherWallet))
}

func TestProfileEmptyNameRemovesEntry(t *testing.T) {
	store, kv := newProfileStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Save(ctx, wallet, "Movie Fan"))
	assert.NoError(t, store.Save(ctx, wallet, "   "))
	assert.Nil(t, store.Load(ctx, wallet))

	value, err := kv.Get(ctx, ProfilesKey)
	assert.NoError(t, err)
	assert.JSONEq(t, `{}`, string(value))
}

func TestProfileClearAbsentIsNoop(t *testing.T) {
	store, _ := newProfileStore(t)
	assert.NoError(t, store.Save(context.Background(), wallet, ""))
}

func TestProfileNullAccountRejected(t *testing.T) {
	store, _ := newProfileStore(t)
	assert.ErrorIs(t, store.Save(context.Background(), fields.Null, "x"), ErrAccountRequired)
	assert.Nil(t, store.Load(context.Background(), fields.Null))
}

func TestProfileCorruptBlobTreatedAsEmpty(t *testing.T) {
	store, kv := newProfileStore(t)
	ctx := context.Background()
	assert.NoError(t, kv.Set(ctx, ProfilesKey, []byte("{not json")))

	assert.Nil(t, store.Load(ctx, wallet))
	assert.NoError(t, store.Save(ctx, wallet, "Movie Fan"))
	assert.Equal(t, "Movie Fan", store.Load(ctx, wallet).DisplayName)
}

func TestProfileQuotaFailureRecovery(t *testing.T) {
	store, kv := newProfileStore(t)
	ctx := context.Background()
	kv.SetFailing(true)

	err := store.Save(ctx, wallet, "Movie Fan")
	assert.Error(t, err)
	assert.False(t, store.CanPersist())

	kv.SetFailing(false)
	assert.NoError(t, store.Save(ctx, wallet, "Movie Fan"))
	assert.True(t, store.CanPersist())
	assert.Equal(t, "Movie Fan", store.Load(ctx, wallet).DisplayName)
}

func TestProfileCrossContextNotification(t *testing.T) {
	hub := pubsub.NewLocalHub()
	kv := memory.New()
	a := NewProfileStore(slog.Default(), kv, hub.Context())
	defer a.Close()
	b := NewProfileStore(slog.Default(), kv, hub.Context())
	defer b.Close()

	notified := 0
	unsub := b.Subscribe(func() { notified++ })
	defer unsub()

	ctx := context.Background()
	assert.NoError(t, a.Save(ctx, wallet, "Movie Fan"))
	assert.Equal(t, 1, notified)
	assert.Equal(t, "Movie Fan", b.Load(ctx, wallet).DisplayName)
}

func TestProfileAccountKeysNormalizedOnDecode(t *testing.T) {
	store, kv := newProfileStore(t)
	ctx := context.Background()
	blob := `{"0xABCDEF1234567890abcdef1234567890abcdef12":{"displayName":"Mixed Case"}}`
	assert.NoError(t, kv.Set(ctx, ProfilesKey, []byte(blob)))

	profile := store.Load(ctx, wallet)
	assert.NotNil(t, profile)
	assert.Equal(t, "Mixed Case", profile.DisplayName)
}

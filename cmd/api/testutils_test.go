package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"reelpass/proj/internal/config"
	"reelpass/proj/internal/provider"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage/memory"
)

type fakeProvider struct {
	mu         sync.Mutex
	accounts   []string
	requestErr error
	handlers   []func([]string)
}

func (p *fakeProvider) Request(ctx context.Context, method string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return p.accounts, nil
}

func (p *fakeProvider) OnAccountsChanged(fn func(accounts []string)) (remove func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, fn)
	return func() {}
}

func (p *fakeProvider) emit(accounts []string) {
	p.mu.Lock()
	p.accounts = accounts
	handlers := make([]func([]string), len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()
	for _, fn := range handlers {
		fn(accounts)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Debug:     false,
		AppSecret: "test-secret",
		Limiter:   config.Limiter{Enabled: false},
		Storage:   config.Storage{Driver: "memory"},
		Session: config.Session{
			CookieTTL:     time.Hour,
			RedirectDelay: 100 * time.Millisecond,
		},
		Catalog: config.Catalog{
			ImageBaseURL: "https://image.example/t/p",
			Language:     "en-US",
			Timeout:      time.Second,
		},
		Tasks: config.Tasks{MaxWorkers: 1, MaxQueueSize: 8},
	}
}

// NewTestApplication wires an application over in-memory storage. Pass a nil
// walletProvider to simulate a provider-less context.
func NewTestApplication(walletProvider provider.WalletProvider, t *testing.T) (*Application, *memory.Store) {
	t.Helper()
	kv := memory.New()
	app := NewApplication(testConfig(), slog.Default(), kv, pubsub.Noop{}, walletProvider)
	app.bgTasks.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		app.bgTasks.Shutdown(ctx)
	})
	t.Cleanup(app.Close)
	app.session.Init(context.Background())
	return app, kv
}

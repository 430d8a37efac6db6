package session

import (
	"context"
	"log/slog"
	"sync"

	"reelpass/proj/internal/domain/fields"
	"reelpass/proj/internal/domain/models"
	"reelpass/proj/internal/provider"
	"reelpass/proj/internal/stores"
)

// persistenceReporter is implemented by every store that can fall back to
// in-memory-only operation.
type persistenceReporter interface {
	CanPersist() bool
}

// Controller orchestrates the provider adapter and the persisted stores into
// one reactive identity: current account, its profile, readiness and
// connection state. Construct once per execution context, run Init once, and
// Close on teardown.
type Controller struct {
	log       *slog.Logger
	adapter   *provider.Adapter
	accounts  *stores.AccountStore
	profiles  *stores.ProfileStore
	reporters []persistenceReporter

	mu        sync.Mutex
	state     models.SessionState
	cancelled bool

	listenerID int
	listeners  map[int]func()
	unsubs     []func()
}

func New(
	log *slog.Logger,
	adapter *provider.Adapter,
	accounts *stores.AccountStore,
	profiles *stores.ProfileStore,
	reporters ...persistenceReporter,
) *Controller {
	return &Controller{
		log:       log,
		adapter:   adapter,
		accounts:  accounts,
		profiles:  profiles,
		reporters: append([]persistenceReporter{profiles}, reporters...),
		listeners: make(map[int]func()),
	}
}

// Init runs the account-discovery sequence once: without a provider the
// session is immediately ready and anonymous; otherwise the last persisted
// account is applied optimistically, the provider is asked for the authorized
// account (errors swallowed, this is a passive check), and account-change
// notifications are subscribed for the remaining lifetime.
func (c *Controller) Init(ctx context.Context) {
	const op = "session.Controller.Init"
	log := c.log.With("op", op)

	hasProvider := c.adapter.Detect()
	c.mu.Lock()
	c.state.HasProvider = hasProvider
	c.mu.Unlock()

	if !hasProvider {
		log.Info("no wallet provider, session ready as anonymous")
		c.markReady()
		return
	}

	if persisted := c.accounts.Load(ctx); !persisted.IsNull() {
		log.Debug("applying persisted account optimistically", "account", persisted.Label())
		c.applyAccount(ctx, persisted)
	}

	current, err := c.adapter.ConnectedAccount(ctx)
	if c.isCancelled() {
		return
	}
	if err != nil {
		// Passive check: readiness proceeds, the error is not surfaced.
		log.Debug("passive account check failed", "errMsg", err.Error())
	} else if !current.IsNull() {
		c.applyAccount(ctx, current)
	}
	c.markReady()

	unsubAccounts := c.adapter.Subscribe(func(account fields.Account) {
		if c.isCancelled() {
			return
		}
		log.Info("account change notification", "account", account.Label())
		c.applyAccount(context.Background(), account)
	})
	unsubProfiles := c.profiles.Subscribe(func() {
		if c.isCancelled() {
			return
		}
		c.refreshProfile(context.Background())
	})

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsubAccounts, unsubProfiles)
	c.mu.Unlock()
}

// Connect requests a wallet connection and applies the resulting account. The
// classified error is recorded on the session and returned to the caller.
func (c *Controller) Connect(ctx context.Context) (fields.Account, error) {
	c.mu.Lock()
	c.state.Error = ""
	c.state.Connecting = true
	c.mu.Unlock()
	c.notify()

	account, err := c.adapter.RequestConnection(ctx)
	if err != nil {
		c.mu.Lock()
		c.state.Error = err.Error()
		c.state.Connecting = false
		c.mu.Unlock()
		c.notify()
		return fields.Null, err
	}

	c.applyAccount(ctx, account)
	c.mu.Lock()
	c.state.Connecting = false
	c.mu.Unlock()
	c.notify()
	return account, nil
}

// Disconnect clears the persisted and in-memory identity. It does not revoke
// the provider's authorization; that is outside this system's control.
func (c *Controller) Disconnect(ctx context.Context) {
	c.accounts.Save(ctx, fields.Null)
	c.mu.Lock()
	c.state.Account = fields.Null
	c.state.Profile = nil
	c.state.Error = ""
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() models.SessionState {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	state.CanPersist = true
	for _, reporter := range c.reporters {
		if !reporter.CanPersist() {
			state.CanPersist = false
			break
		}
	}
	return state
}

// Subscribe registers a listener invoked after every state change. Returns an
// unsubscribe action.
func (c *Controller) Subscribe(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.listenerID
	c.listenerID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Close tears the controller down; any in-flight discovery completion is
// ignored rather than applied to a stale context.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelled = true
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// applyAccount sets the account and re-derives its profile with a fresh load.
// Each notification is fully applied before the next is processed.
func (c *Controller) applyAccount(ctx context.Context, account fields.Account) {
	var profile *models.Profile
	if !account.IsNull() {
		profile = c.profiles.Load(ctx, account)
	}
	c.mu.Lock()
	c.state.Account = account
	c.state.Profile = profile
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) refreshProfile(ctx context.Context) {
	c.mu.Lock()
	account := c.state.Account
	c.mu.Unlock()
	if account.IsNull() {
		return
	}
	profile := c.profiles.Load(ctx, account)
	c.mu.Lock()
	c.state.Profile = profile
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) markReady() {
	c.mu.Lock()
	c.state.Ready = true
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *Controller) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

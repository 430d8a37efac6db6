package pubsub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// Handler receives the raw payload of a change notification.
type Handler func(payload []byte)

// Broadcaster is the cross-context change-notification channel. Each instance
// belongs to one execution context: Publish fans a notification out to every
// other context observing the same key, never back to the publisher, which
// already holds the updated value and notifies its in-process subscribers
// directly.
type Broadcaster interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Subscribe(key string, fn Handler) (unsubscribe func())
}

// Noop is the broadcaster for single-context deployments: nothing to fan out
// to, nothing to observe.
type Noop struct{}

func (Noop) Publish(ctx context.Context, key string, payload []byte) error { return nil }

func (Noop) Subscribe(key string, fn Handler) func() { return func() {} }

func newOrigin() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "origin"
	}
	return hex.EncodeToString(buf)
}

// LocalHub connects multiple in-process contexts, mimicking the storage-event
// fan-out between browser tabs. Used by tests and embedded multi-consumer
// setups.
type LocalHub struct {
	mu   sync.RWMutex
	subs map[string][]*localSub
}

type localSub struct {
	owner *LocalContext
	fn    Handler
}

func NewLocalHub() *LocalHub {
	return &LocalHub{subs: make(map[string][]*localSub)}
}

// Context returns a Broadcaster bound to a new execution context on this hub.
func (h *LocalHub) Context() *LocalContext {
	return &LocalContext{hub: h}
}

type LocalContext struct {
	hub *LocalHub
}

func (c *LocalContext) Publish(ctx context.Context, key string, payload []byte) error {
	c.hub.mu.RLock()
	subs := make([]*localSub, 0, len(c.hub.subs[key]))
	for _, sub := range c.hub.subs[key] {
		if sub.owner != c {
			subs = append(subs, sub)
		}
	}
	c.hub.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(payload)
	}
	return nil
}

func (c *LocalContext) Subscribe(key string, fn Handler) func() {
	sub := &localSub{owner: c, fn: fn}
	c.hub.mu.Lock()
	c.hub.subs[key] = append(c.hub.subs[key], sub)
	c.hub.mu.Unlock()

	return func() {
		c.hub.mu.Lock()
		defer c.hub.mu.Unlock()
		current := c.hub.subs[key]
		for i, candidate := range current {
			if candidate == sub {
				c.hub.subs[key] = append(current[:i], current[i+1:]...)
				break
			}
		}
	}
}

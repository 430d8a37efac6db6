// Package stores maps per-account personalization data onto the durable
// KeyValueStore capability. Every store keeps serving from memory when the
// medium rejects a write, flags the condition through CanPersist, and recovers
// on the next successful write.
package stores

import (
	"errors"
	"sync"
)

// Durable storage keys, one logical store each.
const (
	AccountKey  = "metamask:primaryAccount"
	ProfilesKey = "metamask:userProfiles"
	WatchKey    = "watchlist.v1"
	LikedKey    = "liked.v1"
)

var ErrAccountRequired = errors.New("account is required")

// listenerSet is the in-process subscriber list shared by the keyed stores.
type listenerSet struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func()
}

func newListenerSet() *listenerSet {
	return &listenerSet{fns: make(map[int]func())}
}

func (l *listenerSet) add(fn func()) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

func (l *listenerSet) notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

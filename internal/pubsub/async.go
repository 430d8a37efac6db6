package pubsub

import "context"

// Async defers publishes to a submit function (typically a background worker
// pool) so store writes never block on the fan-out channel. Subscriptions pass
// through unchanged.
type Async struct {
	inner  Broadcaster
	submit func(task func())
}

func NewAsync(inner Broadcaster, submit func(task func())) *Async {
	return &Async{inner: inner, submit: submit}
}

func (b *Async) Publish(ctx context.Context, key string, payload []byte) error {
	b.submit(func() {
		// Detached from the request context; the fan-out outlives the request.
		b.inner.Publish(context.Background(), key, payload)
	})
	return nil
}

func (b *Async) Subscribe(key string, fn Handler) func() {
	return b.inner.Subscribe(key, fn)
}

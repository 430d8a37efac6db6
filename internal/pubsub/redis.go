package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroadcaster fans change notifications out across processes sharing the
// same storage medium. Messages are tagged with the publishing context's
// origin so a context never reacts to its own writes.
type RedisBroadcaster struct {
	log    *slog.Logger
	client *redis.Client
	prefix string
	origin string
}

func NewRedis(log *slog.Logger, addr, prefix string) (*RedisBroadcaster, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisBroadcaster{
		log:    log,
		client: client,
		prefix: prefix,
		origin: newOrigin(),
	}, nil
}

func (b *RedisBroadcaster) Close() error {
	return b.client.Close()
}

func (b *RedisBroadcaster) Publish(ctx context.Context, key string, payload []byte) error {
	const op = "pubsub.RedisBroadcaster.Publish"
	data, err := json.Marshal(envelope{Origin: b.origin, Payload: payload})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.prefix+key, data).Err(); err != nil {
		b.log.With("op", op).Error("publish failed", "key", key, "errMsg", err.Error())
		return err
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(key string, fn Handler) func() {
	const op = "pubsub.RedisBroadcaster.Subscribe"
	log := b.log.With("op", op, "key", key)
	sub := b.client.Subscribe(context.Background(), b.prefix+key)
	go func() {
		for msg := range sub.Channel() {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn("dropping malformed notification", "errMsg", err.Error())
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			fn(env.Payload)
		}
	}()
	return func() {
		if err := sub.Close(); err != nil {
			log.Warn("unsubscribe failed", "errMsg", err.Error())
		}
	}
}

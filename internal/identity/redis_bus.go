package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus publishes session events on a Redis pub/sub channel so every
// server instance sees sign-ins and sign-outs.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus connects to the server at url and verifies it with a PING.
func NewRedisBus(ctx context.Context, url, channel string) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("session events via redis", "addr", opts.Addr, "channel", channel)
	return &RedisBus{client: client, channel: channel}, nil
}

func (b *RedisBus) Publish(ctx context.Context, event SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe returns once the subscription is confirmed by the server.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan SessionEvent, func()) {
	out := make(chan SessionEvent, subscriberBuffer)
	pubsub := b.client.Subscribe(ctx, b.channel)

	_, err := pubsub.Receive(ctx)
	if err != nil {
		slog.Error("redis subscribe failed", "error", err, "channel", b.channel)
		_ = pubsub.Close()
		close(out)
		return out, func() {}
	}

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
		})
	}

	go func() {
		defer close(out)
		defer func() {
			closeErr := pubsub.Close()
			if closeErr != nil {
				slog.Warn("redis pubsub close failed", "error", closeErr)
			}
		}()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var event SessionEvent
				err := json.Unmarshal([]byte(msg.Payload), &event)
				if err != nil {
					slog.Warn("malformed session event", "error", err, "channel", msg.Channel)
					continue
				}

				select {
				case out <- event:
				default:
					slog.Warn("session event dropped", "kind", event.Kind, "user_id", event.UserID)
				}
			}
		}
	}()

	return out, cancel
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

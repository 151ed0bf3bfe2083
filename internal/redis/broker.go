package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Broker relays bus envelopes over a Redis pub/sub channel.
type Broker struct {
	client  *redis.Client
	channel string

	mu      sync.Mutex
	pubsubs []*redis.PubSub
}

func NewBroker(client *redis.Client, channel string) *Broker {
	return &Broker{client: client, channel: channel}
}

func (b *Broker) Name() string { return "redis" }

func (b *Broker) Publish(ctx context.Context, data []byte) error {
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.channel, err)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, handler func(data []byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	// Receive blocks until the server confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}

	b.mu.Lock()
	b.pubsubs = append(b.pubsubs, sub)
	b.mu.Unlock()

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	for _, sub := range b.pubsubs {
		_ = sub.Close()
	}
	b.pubsubs = nil
	b.mu.Unlock()
	return b.client.Close()
}

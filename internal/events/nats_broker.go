package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBroker relays envelopes over a single NATS subject.
type NATSBroker struct {
	conn    *nats.Conn
	subject string

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewNATSBroker connects with automatic reconnection. Extra options are
// appended to the defaults.
func NewNATSBroker(url, subject string, opts ...nats.Option) (*NATSBroker, error) {
	defaults := []nats.Option{
		nats.Name("chitchat"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSBroker{conn: nc, subject: subject}, nil
}

func (b *NATSBroker) Name() string { return "nats" }

func (b *NATSBroker) Publish(ctx context.Context, data []byte) error {
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.subject, err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(ctx context.Context, handler func(data []byte)) error {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.subject, err)
	}
	// Flush so the subscription is registered on the server before returning.
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flushing subscription: %w", err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	context.AfterFunc(ctx, func() { _ = sub.Unsubscribe() })
	return nil
}

// Flush waits until everything published so far reached the server.
func (b *NATSBroker) Flush() error {
	return b.conn.Flush()
}

func (b *NATSBroker) Close() error {
	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	b.mu.Unlock()
	b.conn.Close()
	return nil
}

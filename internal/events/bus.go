package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chitchat/internal/metrics"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Policy decides what happens when a subscriber's buffer is full.
type Policy string

const (
	DropOldest Policy = "drop-oldest"
	DropNewest Policy = "drop-newest"
	Disconnect Policy = "disconnect"
)

const DefaultBufferSize = 64

// Publisher is what mutation code depends on. *Bus and *Relay implement it.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, routingKey string, payload any) error
}

type Options struct {
	BufferSize int
	Policy     Policy
	Logger     *zap.Logger
	Clock      func() time.Time
}

type topicState struct {
	// publishMu serializes publishes so every subscriber sees the same order.
	publishMu sync.Mutex

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// Bus is an in-process publish/subscribe hub. Topics are fixed at construction.
type Bus struct {
	opts   Options
	log    *zap.Logger
	topics map[Topic]*topicState
}

func NewBus(opts Options, topics ...Topic) *Bus {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	switch opts.Policy {
	case DropOldest, DropNewest, Disconnect:
	default:
		opts.Policy = DropOldest
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	b := &Bus{
		opts:   opts,
		log:    opts.Logger.With(zap.String("component", "event_bus")),
		topics: make(map[Topic]*topicState, len(topics)),
	}
	for _, t := range topics {
		b.topics[t] = &topicState{subs: make(map[*Subscription]struct{})}
	}
	return b
}

func (b *Bus) HasTopic(topic Topic) bool {
	_, ok := b.topics[topic]
	return ok
}

// Topics returns the registered topics in lexical order.
func (b *Bus) Topics() []Topic {
	out := make([]Topic, 0, len(b.topics))
	for t := range b.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *Bus) SubscriberCount(topic Topic) int {
	ts, ok := b.topics[topic]
	if !ok {
		return 0
	}
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.subs)
}

// Publish hands an envelope to every subscription currently registered on
// topic. It never waits on a slow subscriber.
func (b *Bus) Publish(ctx context.Context, topic Topic, routingKey string, payload any) error {
	_, err := b.publish(ctx, topic, routingKey, payload)
	return err
}

func (b *Bus) publish(ctx context.Context, topic Topic, routingKey string, payload any) (Envelope, error) {
	env := Envelope{
		ID:          uuid.New(),
		Topic:       topic,
		RoutingKey:  routingKey,
		Payload:     payload,
		PublishedAt: b.opts.Clock().UTC(),
	}
	if err := b.dispatch(ctx, env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// dispatch delivers an already built envelope. The relay uses it for
// envelopes that arrive from other nodes.
func (b *Bus) dispatch(ctx context.Context, env Envelope) error {
	ts, ok := b.topics[env.Topic]
	if !ok {
		return fmt.Errorf("%w: %s", chitchat_errors.ErrTopicNotRegistered, env.Topic)
	}

	ts.publishMu.Lock()
	defer ts.publishMu.Unlock()

	ts.mu.RLock()
	subs := make([]*Subscription, 0, len(ts.subs))
	for s := range ts.subs {
		subs = append(subs, s)
	}
	ts.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(env.Topic)).Inc()
	if len(subs) == 0 {
		return nil
	}

	for _, s := range subs {
		b.deliver(s, env)
	}
	return nil
}

func (b *Bus) deliver(s *Subscription, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			metrics.DeliveryFailures.WithLabelValues(string(env.Topic)).Inc()
			err := &chitchat_errors.DeliveryError{
				Topic:        string(env.Topic),
				SubscriberID: s.id,
				Err:          fmt.Errorf("panic: %v", r),
			}
			b.log.Error("delivery failed", zap.Error(err), zap.String("event_id", env.ID.String()))
		}
	}()

	switch s.offer(env, b.opts.Policy) {
	case offerDropped:
		metrics.EventsDropped.WithLabelValues(string(env.Topic), string(b.opts.Policy)).Inc()
		b.log.Debug("subscriber buffer full, dropped envelope",
			zap.String("subscription_id", s.id),
			zap.String("topic", string(env.Topic)),
			zap.String("policy", string(b.opts.Policy)),
		)
	case offerOverflow:
		metrics.SlowConsumerDisconnects.WithLabelValues(string(env.Topic)).Inc()
		b.log.Warn("disconnecting slow subscriber",
			zap.String("subscription_id", s.id),
			zap.String("topic", string(env.Topic)),
		)
		s.shutdown(chitchat_errors.ErrSlowConsumer)
	}
}

// Subscribe registers a new subscription on topic. It starts with an empty
// backlog and is closed when ctx ends or Close is called.
func (b *Bus) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	ts, ok := b.topics[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", chitchat_errors.ErrTopicNotRegistered, topic)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Subscription{
		id:    uuid.NewString(),
		topic: topic,
		bus:   b,
		ch:    make(chan Envelope, b.opts.BufferSize),
	}

	ts.mu.Lock()
	ts.subs[s] = struct{}{}
	ts.mu.Unlock()
	metrics.ActiveSubscriptions.WithLabelValues(string(topic)).Inc()

	stop := context.AfterFunc(ctx, func() { s.shutdown(ctx.Err()) })
	s.mu.Lock()
	s.stopCtx = stop
	s.mu.Unlock()

	b.log.Debug("subscribed", zap.String("subscription_id", s.id), zap.String("topic", string(topic)))
	return s, nil
}

func (b *Bus) remove(s *Subscription) {
	ts := b.topics[s.topic]
	ts.mu.Lock()
	_, ok := ts.subs[s]
	delete(ts.subs, s)
	ts.mu.Unlock()
	if ok {
		metrics.ActiveSubscriptions.WithLabelValues(string(s.topic)).Dec()
	}
}

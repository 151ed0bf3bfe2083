package events

import (
	"context"

	"chitchat/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broker carries encoded envelopes between nodes.
type Broker interface {
	Name() string
	Publish(ctx context.Context, data []byte) error
	// Subscribe delivers every message published on the broker to handler
	// until ctx ends. It returns once the subscription is established.
	Subscribe(ctx context.Context, handler func(data []byte)) error
	Close() error
}

// Relay publishes locally and forwards to a broker, and replays envelopes
// from other nodes onto the local bus. Broker failures are logged, never
// returned: local delivery has already happened.
type Relay struct {
	bus    *Bus
	broker Broker
	nodeID string
	log    *zap.Logger
}

func NewRelay(bus *Bus, broker Broker, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		bus:    bus,
		broker: broker,
		nodeID: uuid.NewString(),
		log:    logger.With(zap.String("component", "event_relay"), zap.String("broker", broker.Name())),
	}
}

func (r *Relay) NodeID() string { return r.nodeID }

func (r *Relay) Start(ctx context.Context) error {
	return r.broker.Subscribe(ctx, func(data []byte) { r.receive(ctx, data) })
}

func (r *Relay) Publish(ctx context.Context, topic Topic, routingKey string, payload any) error {
	env, err := r.bus.publish(ctx, topic, routingKey, payload)
	if err != nil {
		return err
	}

	data, err := encodeWire(r.nodeID, env)
	if err != nil {
		metrics.RelayErrors.WithLabelValues(r.broker.Name(), "out").Inc()
		r.log.Error("failed to encode envelope", zap.Error(err), zap.String("topic", string(topic)))
		return nil
	}
	if err := r.broker.Publish(ctx, data); err != nil {
		metrics.RelayErrors.WithLabelValues(r.broker.Name(), "out").Inc()
		r.log.Warn("failed to forward envelope", zap.Error(err), zap.String("topic", string(topic)))
	}
	return nil
}

func (r *Relay) receive(ctx context.Context, data []byte) {
	origin, env, err := decodeWire(data)
	if err != nil {
		metrics.RelayErrors.WithLabelValues(r.broker.Name(), "in").Inc()
		r.log.Warn("dropping malformed envelope", zap.Error(err))
		return
	}
	if origin == r.nodeID {
		return
	}
	if err := r.bus.dispatch(ctx, env); err != nil {
		metrics.RelayErrors.WithLabelValues(r.broker.Name(), "in").Inc()
		r.log.Warn("dropping relayed envelope", zap.Error(err), zap.String("topic", string(env.Topic)))
	}
}

func (r *Relay) Close() error {
	return r.broker.Close()
}

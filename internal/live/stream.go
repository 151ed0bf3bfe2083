package live

import (
	"context"
	"fmt"

	"chitchat/internal/events"
	"chitchat/internal/metrics"
	chitchat_errors "chitchat/pkg/errors"

	"go.uber.org/zap"
)

// Subscriber is the part of the bus a stream needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topic events.Topic) (*events.Subscription, error)
}

// View is one envelope rendered for one subscriber.
type View struct {
	Kind    Kind         `json:"channel"`
	EventID string       `json:"event_id"`
	Topic   events.Topic `json:"topic"`
	Data    any          `json:"data"`
}

// Stream filters and renders a bus subscription for one subscriber.
type Stream struct {
	sub     *events.Subscription
	channel Channel
	sc      SubscriberContext
	log     *zap.Logger
}

// Open subscribes to the channel's topic. The stream ends when ctx ends or
// Close is called. Delivery failures are logged to logger.
func Open(ctx context.Context, bus Subscriber, channel Channel, sc SubscriberContext, logger *zap.Logger) (*Stream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sub, err := bus.Subscribe(ctx, channel.Topic())
	if err != nil {
		return nil, err
	}
	return &Stream{
		sub:     sub,
		channel: channel,
		sc:      sc,
		log: logger.With(
			zap.String("component", "live_stream"),
			zap.String("channel", string(channel.Kind())),
			zap.String("subscription_id", sub.ID()),
			zap.String("user_id", sc.UserID.String()),
		),
	}, nil
}

func (s *Stream) Channel() Channel { return s.channel }

// Next blocks until an envelope for this subscriber arrives. Envelopes that
// do not match are skipped, as are envelopes whose rendering fails.
func (s *Stream) Next(ctx context.Context) (View, error) {
	for {
		select {
		case <-ctx.Done():
			return View{}, ctx.Err()
		case env, ok := <-s.sub.C():
			if !ok {
				if err := s.sub.Err(); err != nil {
					return View{}, err
				}
				return View{}, chitchat_errors.ErrSubscriptionClosed
			}
			if view, ok := s.apply(env); ok {
				return view, nil
			}
		}
	}
}

func (s *Stream) apply(env events.Envelope) (view View, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(env, fmt.Errorf("panic: %v", r))
			view, ok = View{}, false
		}
	}()

	if !s.channel.Match(env, s.sc) {
		return View{}, false
	}
	data, err := s.channel.Render(env, s.sc)
	if err != nil {
		s.fail(env, err)
		return View{}, false
	}
	return View{
		Kind:    s.channel.Kind(),
		EventID: env.ID.String(),
		Topic:   env.Topic,
		Data:    data,
	}, true
}

func (s *Stream) fail(env events.Envelope, err error) {
	metrics.DeliveryFailures.WithLabelValues(string(env.Topic)).Inc()
	s.log.Error("skipping envelope", zap.Error(&chitchat_errors.DeliveryError{
		Topic:        string(env.Topic),
		SubscriberID: s.sub.ID(),
		Err:          err,
	}))
}

func (s *Stream) Close() {
	s.sub.Close()
}

package services

import (
	"context"

	"chitchat/internal/events"
	"chitchat/internal/push"

	"go.uber.org/zap"
)

// Pusher queues outbound push notifications.
type Pusher interface {
	Enqueue(n push.Notification) error
}

// notifier publishes after a committed mutation and hands off push
// notifications. Neither step fails the mutation.
type notifier struct {
	publisher events.Publisher
	pusher    Pusher
	log       *zap.Logger
}

func newNotifier(publisher events.Publisher, pusher Pusher, logger *zap.Logger, component string) notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return notifier{
		publisher: publisher,
		pusher:    pusher,
		log:       logger.With(zap.String("component", component)),
	}
}

func (n notifier) publish(ctx context.Context, topic events.Topic, routingKey string, payload any) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, topic, routingKey, payload); err != nil {
		n.log.Error("failed to publish event",
			zap.String("topic", string(topic)),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func (n notifier) push(p push.Notification) {
	if n.pusher == nil || len(p.Tokens) == 0 {
		return
	}
	if err := n.pusher.Enqueue(p); err != nil {
		n.log.Warn("failed to queue push notification", zap.String("body", p.Body), zap.Error(err))
	}
}

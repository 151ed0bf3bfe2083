package push

import (
	"context"
	"sync"

	"chitchat/internal/metrics"
	chitchat_errors "chitchat/pkg/errors"

	"go.uber.org/zap"
)

// Sender delivers a notification to the push provider.
type Sender interface {
	Send(ctx context.Context, n Notification) error
	Close() error
}

// Dispatcher hands notifications to a fixed pool of workers through a
// bounded queue. Enqueue never blocks the caller.
type Dispatcher struct {
	sender  Sender
	workers int
	log     *zap.Logger

	mu     sync.RWMutex
	queue  chan Notification
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sender:  sender,
		workers: workers,
		log:     logger.With(zap.String("component", "push")),
		queue:   make(chan Notification, queueSize),
	}
}

// Start launches the workers. They drain the queue until Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for n := range d.queue {
		if err := d.sender.Send(ctx, n); err != nil {
			metrics.PushErrors.Inc()
			d.log.Warn("push send failed", zap.Error(err), zap.Int("tokens", len(n.Tokens)))
			continue
		}
		metrics.PushSent.Inc()
	}
}

// Enqueue queues n for delivery. Notifications without tokens are ignored.
func (d *Dispatcher) Enqueue(n Notification) error {
	if len(n.Tokens) == 0 {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return chitchat_errors.ErrServiceUnavailable
	}

	select {
	case d.queue <- n:
		return nil
	default:
		metrics.PushDropped.Inc()
		return chitchat_errors.ErrQueueFull
	}
}

// Stop closes the queue, waits for the workers to finish what is queued
// and closes the sender.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return d.sender.Close()
}

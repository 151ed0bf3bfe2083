package events

import "sync"

type offerResult int

const (
	offerDelivered offerResult = iota
	offerDropped
	offerOverflow
	offerClosed
)

// Subscription is one subscriber's registration on a topic.
type Subscription struct {
	id    string
	topic Topic
	bus   *Bus
	once  sync.Once

	mu      sync.Mutex
	ch      chan Envelope
	closed  bool
	err     error
	stopCtx func() bool
}

func (s *Subscription) ID() string   { return s.id }
func (s *Subscription) Topic() Topic { return s.topic }

// C returns the envelope stream. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Envelope {
	return s.ch
}

// Err reports why the subscription ended: nil after Close, the context
// error after cancellation, or ErrSlowConsumer under the disconnect policy.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes. It is safe to call more than once and from any goroutine.
func (s *Subscription) Close() {
	s.shutdown(nil)
}

func (s *Subscription) shutdown(err error) {
	s.once.Do(func() {
		s.bus.remove(s)

		s.mu.Lock()
		s.closed = true
		s.err = err
		close(s.ch)
		stop := s.stopCtx
		s.mu.Unlock()

		if stop != nil {
			stop()
		}
	})
}

// offer never blocks. The caller holds the topic's publish lock, so it is
// the only sender on s.ch.
func (s *Subscription) offer(env Envelope, policy Policy) offerResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return offerClosed
	}

	select {
	case s.ch <- env:
		return offerDelivered
	default:
	}

	switch policy {
	case DropNewest:
		return offerDropped
	case Disconnect:
		return offerOverflow
	default:
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- env:
		default:
		}
		return offerDropped
	}
}

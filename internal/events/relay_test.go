package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"chitchat/internal/domain"

	"github.com/google/uuid"
)

// memoryBroker fans every publish out to all handlers, including the
// publisher's own, the same way a real pub/sub channel does.
type memoryBroker struct {
	mu       sync.Mutex
	handlers []func([]byte)
	closed   bool
}

func (m *memoryBroker) Name() string { return "memory" }

func (m *memoryBroker) Publish(_ context.Context, data []byte) error {
	m.mu.Lock()
	hs := append([]func([]byte){}, m.handlers...)
	m.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
	return nil
}

func (m *memoryBroker) Subscribe(_ context.Context, handler func([]byte)) error {
	m.mu.Lock()
	m.handlers = append(m.handlers, handler)
	m.mu.Unlock()
	return nil
}

func (m *memoryBroker) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func TestRelayForwardsBetweenNodes(t *testing.T) {
	ctx := context.Background()
	broker := &memoryBroker{}

	busA := newTestBus(t, 8, DropOldest)
	busB := newTestBus(t, 8, DropOldest)
	relayA := NewRelay(busA, broker, nil)
	relayB := NewRelay(busB, broker, nil)
	if err := relayA.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := relayB.Start(ctx); err != nil {
		t.Fatal(err)
	}

	subA, _ := busA.Subscribe(ctx, TopicChatMessages)
	subB, _ := busB.Subscribe(ctx, TopicChatMessages)
	defer subA.Close()
	defer subB.Close()

	chatID := uuid.New()
	sender := domain.UserRef{ID: uuid.New(), Name: "ann"}
	payload := MessagePosted{MessageID: uuid.New(), ChatID: chatID, Sender: sender, Text: "hello"}
	if err := relayA.Publish(ctx, TopicChatMessages, chatID.String(), payload); err != nil {
		t.Fatal(err)
	}

	local := drain(subA)
	if len(local) != 1 {
		t.Fatalf("origin node got %d envelopes, want exactly 1", len(local))
	}
	remote := receive(t, subB)
	if remote.ID != local[0].ID {
		t.Errorf("remote envelope id %s, want %s", remote.ID, local[0].ID)
	}
	got, ok := remote.Payload.(MessagePosted)
	if !ok {
		t.Fatalf("remote payload type %T", remote.Payload)
	}
	if got.Text != "hello" || got.Sender.ID != sender.ID || got.ChatID != chatID {
		t.Errorf("remote payload = %+v", got)
	}
}

func TestRelayDropsMalformedEnvelopes(t *testing.T) {
	ctx := context.Background()
	broker := &memoryBroker{}
	bus := newTestBus(t, 4, DropOldest)
	relay := NewRelay(bus, broker, nil)
	if err := relay.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sub, _ := bus.Subscribe(ctx, TopicPostLikes)
	defer sub.Close()

	_ = broker.Publish(ctx, []byte("not json"))
	_ = broker.Publish(ctx, []byte(`{"origin":"x","topic":"unknown.topic","payload":{}}`))

	select {
	case env := <-sub.C():
		t.Fatalf("unexpected envelope %+v", env)
	case <-time.After(50 * time.Millisecond):
	}
	if err := relay.Close(); err != nil || !broker.closed {
		t.Errorf("Close() = %v, broker closed = %v", err, broker.closed)
	}
}

func TestDecodePayloadUnknownTopic(t *testing.T) {
	if _, err := DecodePayload("nope", []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown topic")
	}
}

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	chitchat_errors "chitchat/pkg/errors"
)

func newTestBus(t *testing.T, size int, policy Policy) *Bus {
	t.Helper()
	return NewBus(Options{BufferSize: size, Policy: policy}, DefaultTopics()...)
}

func receive(t *testing.T, s *Subscription) Envelope {
	t.Helper()
	select {
	case env, ok := <-s.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return Envelope{}
}

func drain(s *Subscription) []Envelope {
	var out []Envelope
	for {
		select {
		case env, ok := <-s.C():
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := newTestBus(t, 4, DropOldest)
	if err := bus.Publish(context.Background(), TopicPostLikes, "p1", LikeAdded{}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestPublishUnknownTopic(t *testing.T) {
	bus := NewBus(Options{}, TopicChatMessages)
	err := bus.Publish(context.Background(), TopicUserFollows, "u1", FollowAdded{})
	if !errors.Is(err, chitchat_errors.ErrTopicNotRegistered) {
		t.Fatalf("Publish() error = %v, want ErrTopicNotRegistered", err)
	}
	if _, err := bus.Subscribe(context.Background(), TopicUserFollows); !errors.Is(err, chitchat_errors.ErrTopicNotRegistered) {
		t.Fatalf("Subscribe() error = %v, want ErrTopicNotRegistered", err)
	}
}

func TestEnvelopeFields(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := NewBus(Options{Clock: func() time.Time { return fixed }}, TopicPostComments)
	sub, err := bus.Subscribe(context.Background(), TopicPostComments)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	payload := CommentAdded{Text: "hi"}
	if err := bus.Publish(context.Background(), TopicPostComments, "post-1", payload); err != nil {
		t.Fatal(err)
	}

	env := receive(t, sub)
	if env.Topic != TopicPostComments || env.RoutingKey != "post-1" {
		t.Errorf("got topic=%s key=%s", env.Topic, env.RoutingKey)
	}
	if !env.PublishedAt.Equal(fixed) {
		t.Errorf("PublishedAt = %v, want %v", env.PublishedAt, fixed)
	}
	if got, ok := env.Payload.(CommentAdded); !ok || got.Text != "hi" {
		t.Errorf("Payload = %#v", env.Payload)
	}
}

func TestSubscriberStartsWithEmptyBacklog(t *testing.T) {
	bus := newTestBus(t, 4, DropOldest)
	ctx := context.Background()

	_ = bus.Publish(ctx, TopicPostLikes, "p1", LikeAdded{})
	sub, err := bus.Subscribe(ctx, TopicPostLikes)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	if got := drain(sub); len(got) != 0 {
		t.Fatalf("new subscription received %d old envelopes", len(got))
	}
}

func TestFanOutToEverySubscriber(t *testing.T) {
	bus := newTestBus(t, 8, DropOldest)
	ctx := context.Background()

	var subs []*Subscription
	for i := 0; i < 3; i++ {
		s, err := bus.Subscribe(ctx, TopicChatMessages)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(s.Close)
		subs = append(subs, s)
	}
	if n := bus.SubscriberCount(TopicChatMessages); n != 3 {
		t.Fatalf("SubscriberCount = %d, want 3", n)
	}

	for i := 0; i < 5; i++ {
		if err := bus.Publish(ctx, TopicChatMessages, "c1", MessagePosted{}); err != nil {
			t.Fatal(err)
		}
	}
	for i, s := range subs {
		if got := len(drain(s)); got != 5 {
			t.Errorf("subscriber %d got %d envelopes, want 5", i, got)
		}
	}
}

func TestOrderingAcrossConcurrentPublishers(t *testing.T) {
	bus := newTestBus(t, 1000, DropNewest)
	ctx := context.Background()

	a, _ := bus.Subscribe(ctx, TopicPostComments)
	b, _ := bus.Subscribe(ctx, TopicPostComments)
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = bus.Publish(ctx, TopicPostComments, "p", CommentAdded{})
			}
		}()
	}
	wg.Wait()

	got1, got2 := drain(a), drain(b)
	if len(got1) != 200 || len(got2) != 200 {
		t.Fatalf("got %d and %d envelopes, want 200 each", len(got1), len(got2))
	}
	for i := range got1 {
		if got1[i].ID != got2[i].ID {
			t.Fatalf("subscribers disagree on order at %d", i)
		}
	}
}

func TestUnsubscribeIsTerminal(t *testing.T) {
	bus := newTestBus(t, 4, DropOldest)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TopicUserFollows)
	if err != nil {
		t.Fatal(err)
	}
	sub.Close()
	sub.Close()

	for i := 0; i < 3; i++ {
		if err := bus.Publish(ctx, TopicUserFollows, "u1", FollowAdded{}); err != nil {
			t.Fatal(err)
		}
	}
	if _, ok := <-sub.C(); ok {
		t.Fatal("received envelope after Close")
	}
	if sub.Err() != nil {
		t.Errorf("Err() = %v, want nil after Close", sub.Err())
	}
	if n := bus.SubscriberCount(TopicUserFollows); n != 0 {
		t.Errorf("SubscriberCount = %d after Close", n)
	}
}

func TestContextCancelUnsubscribes(t *testing.T) {
	bus := newTestBus(t, 4, DropOldest)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, TopicPostLikes)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("unexpected envelope")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	if !errors.Is(sub.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", sub.Err())
	}
	if n := bus.SubscriberCount(TopicPostLikes); n != 0 {
		t.Errorf("SubscriberCount = %d after cancel", n)
	}
}

func TestSlowConsumerPolicies(t *testing.T) {
	ctx := context.Background()
	publish := func(bus *Bus, keys ...string) {
		for _, k := range keys {
			if err := bus.Publish(ctx, TopicPostLikes, k, LikeAdded{}); err != nil {
				t.Fatal(err)
			}
		}
	}
	keys := func(envs []Envelope) []string {
		out := make([]string, len(envs))
		for i, e := range envs {
			out[i] = e.RoutingKey
		}
		return out
	}

	t.Run("drop-oldest", func(t *testing.T) {
		bus := newTestBus(t, 2, DropOldest)
		sub, _ := bus.Subscribe(ctx, TopicPostLikes)
		defer sub.Close()
		publish(bus, "1", "2", "3")
		if got := keys(drain(sub)); len(got) != 2 || got[0] != "2" || got[1] != "3" {
			t.Errorf("got %v, want [2 3]", got)
		}
	})

	t.Run("drop-newest", func(t *testing.T) {
		bus := newTestBus(t, 2, DropNewest)
		sub, _ := bus.Subscribe(ctx, TopicPostLikes)
		defer sub.Close()
		publish(bus, "1", "2", "3")
		if got := keys(drain(sub)); len(got) != 2 || got[0] != "1" || got[1] != "2" {
			t.Errorf("got %v, want [1 2]", got)
		}
	})

	t.Run("disconnect", func(t *testing.T) {
		bus := newTestBus(t, 2, Disconnect)
		slow, _ := bus.Subscribe(ctx, TopicPostLikes)
		other, _ := bus.Subscribe(ctx, TopicPostLikes)
		defer other.Close()

		publish(bus, "1", "2")
		_ = drain(other)
		publish(bus, "3")

		if got := keys(drain(slow)); len(got) != 2 {
			t.Errorf("slow subscriber kept %v, want the first two", got)
		}
		if !errors.Is(slow.Err(), chitchat_errors.ErrSlowConsumer) {
			t.Errorf("Err() = %v, want ErrSlowConsumer", slow.Err())
		}
		if got := keys(drain(other)); len(got) != 1 || got[0] != "3" {
			t.Errorf("other subscriber got %v, want [3]", got)
		}
		if n := bus.SubscriberCount(TopicPostLikes); n != 1 {
			t.Errorf("SubscriberCount = %d, want 1", n)
		}
	})
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	bus := newTestBus(t, 4, DropOldest)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = bus.Publish(ctx, TopicChatMessages, "c", MessagePosted{})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s, err := bus.Subscribe(ctx, TopicChatMessages)
				if err != nil {
					t.Error(err)
					return
				}
				_ = drain(s)
				s.Close()
			}
		}()
	}
	wg.Wait()

	if n := bus.SubscriberCount(TopicChatMessages); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

func TestTopicsSorted(t *testing.T) {
	bus := newTestBus(t, 1, DropOldest)
	got := bus.Topics()
	want := []Topic{TopicChatMessages, TopicPostComments, TopicPostLikes, TopicUserFollows}
	if len(got) != len(want) {
		t.Fatalf("Topics() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Topics()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if bus.HasTopic("nope") {
		t.Error("HasTopic(nope) = true")
	}
}

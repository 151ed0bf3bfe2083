package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSBrokerRelaysBetweenBuses(t *testing.T) {
	url := startTestNATS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newNode := func() (*Bus, *Relay) {
		broker, err := NewNATSBroker(url, "chitchat.test")
		if err != nil {
			t.Fatalf("creating broker: %v", err)
		}
		bus := newTestBus(t, 8, DropOldest)
		relay := NewRelay(bus, broker, nil)
		t.Cleanup(func() { _ = relay.Close() })
		if err := relay.Start(ctx); err != nil {
			t.Fatalf("starting relay: %v", err)
		}
		return bus, relay
	}

	_, relayA := newNode()
	busB, _ := newNode()

	sub, err := busB.Subscribe(ctx, TopicUserFollows)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	target := uuid.New()
	if err := relayA.Publish(ctx, TopicUserFollows, target.String(), FollowAdded{FollowingID: target}); err != nil {
		t.Fatal(err)
	}

	env := receive(t, sub)
	if env.RoutingKey != target.String() {
		t.Errorf("RoutingKey = %s, want %s", env.RoutingKey, target)
	}
	if p, ok := env.Payload.(FollowAdded); !ok || p.FollowingID != target {
		t.Errorf("Payload = %#v", env.Payload)
	}
}

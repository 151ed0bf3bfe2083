package redis

import (
	"testing"

	"chitchat/internal/events"
)

func TestBrokerImplementsEventsBroker(t *testing.T) {
	var _ events.Broker = (*Broker)(nil)
	if got := (&Broker{}).Name(); got != "redis" {
		t.Errorf("Name() = %q, want redis", got)
	}
}

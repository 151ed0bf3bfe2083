package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic names a logical event stream on the bus.
type Topic string

const (
	TopicChatMessages Topic = "chat.messages"
	TopicPostComments Topic = "post.comments"
	TopicPostLikes    Topic = "post.likes"
	TopicUserFollows  Topic = "user.follows"
)

// DefaultTopics is the topic set the server registers at startup.
func DefaultTopics() []Topic {
	return []Topic{TopicChatMessages, TopicPostComments, TopicPostLikes, TopicUserFollows}
}

// Envelope is what the bus delivers. It is never modified after Publish
// returns; subscribers that need a different shape copy the payload.
type Envelope struct {
	ID          uuid.UUID `json:"id"`
	Topic       Topic     `json:"topic"`
	RoutingKey  string    `json:"routing_key"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"published_at"`
}

// wireEnvelope is the form envelopes take on a broker.
type wireEnvelope struct {
	ID          uuid.UUID       `json:"id"`
	Origin      string          `json:"origin"`
	Topic       Topic           `json:"topic"`
	RoutingKey  string          `json:"routing_key"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

func encodeWire(origin string, env Envelope) ([]byte, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return json.Marshal(wireEnvelope{
		ID:          env.ID,
		Origin:      origin,
		Topic:       env.Topic,
		RoutingKey:  env.RoutingKey,
		Payload:     payload,
		PublishedAt: env.PublishedAt,
	})
}

func decodeWire(data []byte) (string, Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return "", Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	payload, err := DecodePayload(w.Topic, w.Payload)
	if err != nil {
		return "", Envelope{}, err
	}
	return w.Origin, Envelope{
		ID:          w.ID,
		Topic:       w.Topic,
		RoutingKey:  w.RoutingKey,
		Payload:     payload,
		PublishedAt: w.PublishedAt,
	}, nil
}

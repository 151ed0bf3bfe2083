package events

import (
	"encoding/json"
	"fmt"
	"time"

	"chitchat/internal/domain"

	"github.com/google/uuid"
)

// MessagePosted is published on TopicChatMessages, routed by chat id.
type MessagePosted struct {
	MessageID uuid.UUID      `json:"message_id"`
	ChatID    uuid.UUID      `json:"chat_id"`
	Sender    domain.UserRef `json:"sender"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
}

// CommentAdded is published on TopicPostComments, routed by post id.
type CommentAdded struct {
	CommentID uuid.UUID      `json:"comment_id"`
	PostID    uuid.UUID      `json:"post_id"`
	Actor     domain.UserRef `json:"actor"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
}

// LikeAdded is published on TopicPostLikes, routed by post id.
type LikeAdded struct {
	PostID    uuid.UUID      `json:"post_id"`
	Actor     domain.UserRef `json:"actor"`
	CreatedAt time.Time      `json:"created_at"`
}

// FollowAdded is published on TopicUserFollows, routed by the followed user's id.
type FollowAdded struct {
	Follower    domain.UserRef `json:"follower"`
	FollowingID uuid.UUID      `json:"following_id"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DecodePayload turns a broker payload back into the concrete type
// published for topic.
func DecodePayload(topic Topic, data json.RawMessage) (any, error) {
	switch topic {
	case TopicChatMessages:
		var p MessagePosted
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		return p, nil
	case TopicPostComments:
		var p CommentAdded
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		return p, nil
	case TopicPostLikes:
		var p LikeAdded
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		return p, nil
	case TopicUserFollows:
		var p FollowAdded
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("decode %s: unknown topic", topic)
}

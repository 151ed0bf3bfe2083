package live

import (
	"fmt"
	"strings"
	"time"

	"chitchat/internal/domain"
	"chitchat/internal/events"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
)

// SubscriberContext identifies the connected user. It is fixed when the
// connection is authenticated.
type SubscriberContext struct {
	UserID uuid.UUID
}

type Kind string

const (
	KindMessages Kind = "messages"
	KindComments Kind = "comments"
	KindLikes    Kind = "likes"
	KindFollows  Kind = "follows"
)

// Kinds lists every live channel kind.
func Kinds() []Kind {
	return []Kind{KindMessages, KindComments, KindLikes, KindFollows}
}

// Channel decides which envelopes of one topic a subscriber sees and how
// each one is rendered for that subscriber. Render must not modify the
// envelope or its payload.
type Channel interface {
	Kind() Kind
	Topic() events.Topic
	Match(env events.Envelope, sc SubscriberContext) bool
	Render(env events.Envelope, sc SubscriberContext) (any, error)
}

// NewChannel builds the channel for kind. Messages, comments and likes need
// a target id; follows always watches the subscriber's own id.
func NewChannel(kind Kind, targetID uuid.UUID, sc SubscriberContext) (Channel, error) {
	switch kind {
	case KindMessages:
		if targetID == uuid.Nil {
			return nil, fmt.Errorf("%w: messages channel needs a chat id", chitchat_errors.ErrInvalidInput)
		}
		return MessagesChannel{ChatID: targetID}, nil
	case KindComments:
		if targetID == uuid.Nil {
			return nil, fmt.Errorf("%w: comments channel needs a post id", chitchat_errors.ErrInvalidInput)
		}
		return CommentsChannel{PostID: targetID}, nil
	case KindLikes:
		if targetID == uuid.Nil {
			return nil, fmt.Errorf("%w: likes channel needs a post id", chitchat_errors.ErrInvalidInput)
		}
		return LikesChannel{PostID: targetID}, nil
	case KindFollows:
		if targetID != uuid.Nil && targetID != sc.UserID {
			return nil, fmt.Errorf("%w: follows channel is only available for your own account", chitchat_errors.ErrForbidden)
		}
		return FollowsChannel{}, nil
	}
	return nil, fmt.Errorf("%w: unknown channel %q", chitchat_errors.ErrInvalidInput, kind)
}

// TopicRegistry is the part of the bus CheckTopics needs.
type TopicRegistry interface {
	HasTopic(topic events.Topic) bool
}

// RequiredTopics returns the topics the channel kinds read from.
func RequiredTopics() []events.Topic {
	return []events.Topic{
		MessagesChannel{}.Topic(),
		CommentsChannel{}.Topic(),
		LikesChannel{}.Topic(),
		FollowsChannel{}.Topic(),
	}
}

// CheckTopics fails with a *ConfigurationError when the bus is missing a
// topic any channel kind depends on.
func CheckTopics(bus TopicRegistry) error {
	var missing []string
	for _, t := range RequiredTopics() {
		if !bus.HasTopic(t) {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return &chitchat_errors.ConfigurationError{Missing: missing}
	}
	return nil
}

// MessageView is a chat message as one member sees it.
type MessageView struct {
	ID        uuid.UUID      `json:"id"`
	ChatID    uuid.UUID      `json:"chat_id"`
	Sender    domain.UserRef `json:"sender"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
	Me        bool           `json:"me"`
}

// RenderMessage computes the per-viewer message view. History reads use it
// too so live and stored messages look the same.
func RenderMessage(m events.MessagePosted, viewer uuid.UUID) MessageView {
	return MessageView{
		ID:        m.MessageID,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
		Me:        m.Sender.ID == viewer,
	}
}

type MessagesChannel struct {
	ChatID uuid.UUID
}

func (MessagesChannel) Kind() Kind          { return KindMessages }
func (MessagesChannel) Topic() events.Topic { return events.TopicChatMessages }

func (c MessagesChannel) Match(env events.Envelope, _ SubscriberContext) bool {
	return keyEquals(env.RoutingKey, c.ChatID)
}

func (c MessagesChannel) Render(env events.Envelope, sc SubscriberContext) (any, error) {
	m, ok := env.Payload.(events.MessagePosted)
	if !ok {
		return nil, fmt.Errorf("messages channel: unexpected payload %T", env.Payload)
	}
	return RenderMessage(m, sc.UserID), nil
}

type CommentsChannel struct {
	PostID uuid.UUID
}

func (CommentsChannel) Kind() Kind          { return KindComments }
func (CommentsChannel) Topic() events.Topic { return events.TopicPostComments }

func (c CommentsChannel) Match(env events.Envelope, _ SubscriberContext) bool {
	return keyEquals(env.RoutingKey, c.PostID)
}

func (CommentsChannel) Render(env events.Envelope, _ SubscriberContext) (any, error) {
	return env.Payload, nil
}

type LikesChannel struct {
	PostID uuid.UUID
}

func (LikesChannel) Kind() Kind          { return KindLikes }
func (LikesChannel) Topic() events.Topic { return events.TopicPostLikes }

func (c LikesChannel) Match(env events.Envelope, _ SubscriberContext) bool {
	return keyEquals(env.RoutingKey, c.PostID)
}

func (LikesChannel) Render(env events.Envelope, _ SubscriberContext) (any, error) {
	return env.Payload, nil
}

// FollowsChannel delivers follow events whose target is the subscriber.
type FollowsChannel struct{}

func (FollowsChannel) Kind() Kind          { return KindFollows }
func (FollowsChannel) Topic() events.Topic { return events.TopicUserFollows }

func (FollowsChannel) Match(env events.Envelope, sc SubscriberContext) bool {
	return keyEquals(env.RoutingKey, sc.UserID)
}

func (FollowsChannel) Render(env events.Envelope, _ SubscriberContext) (any, error) {
	return env.Payload, nil
}

func keyEquals(key string, id uuid.UUID) bool {
	return id != uuid.Nil && strings.EqualFold(key, id.String())
}

package websocket

import (
	"context"

	"chitchat/internal/live"
	"chitchat/internal/proxy"

	"github.com/google/uuid"
)

// ChannelAuthorizer decides whether a user may open a live channel.
type ChannelAuthorizer struct {
	access *proxy.AccessControl
}

func NewChannelAuthorizer(access *proxy.AccessControl) *ChannelAuthorizer {
	return &ChannelAuthorizer{access: access}
}

// Authorize builds the channel for the request and checks the caller may see
// its target. Chats need membership, posts only need to exist, and follows
// are limited to the caller's own feed by live.NewChannel.
func (a *ChannelAuthorizer) Authorize(ctx context.Context, userID uuid.UUID, kind live.Kind, targetID uuid.UUID) (live.Channel, error) {
	sc := live.SubscriberContext{UserID: userID}
	channel, err := live.NewChannel(kind, targetID, sc)
	if err != nil {
		return nil, err
	}

	switch kind {
	case live.KindMessages:
		err = a.access.CanViewChat(ctx, userID, targetID)
	case live.KindComments, live.KindLikes:
		err = a.access.CanViewPost(ctx, targetID)
	}
	if err != nil {
		return nil, err
	}
	return channel, nil
}

package push

import (
	"chitchat/internal/domain"

	"github.com/google/uuid"
)

const title = "ChitChat"

// Notification is one push message for a set of device tokens.
type Notification struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func LikeNotification(actor domain.UserRef, postID uuid.UUID, tokens []string) Notification {
	return Notification{
		Tokens: tokens,
		Title:  title,
		Body:   actor.Name + " liked your post",
		Data:   map[string]string{"type": "like", "dataId": postID.String()},
	}
}

func CommentNotification(actor domain.UserRef, postID uuid.UUID, tokens []string) Notification {
	return Notification{
		Tokens: tokens,
		Title:  title,
		Body:   actor.Name + " commented on your post",
		Data:   map[string]string{"type": "comment", "dataId": postID.String()},
	}
}

func FollowNotification(actor domain.UserRef, tokens []string) Notification {
	return Notification{
		Tokens: tokens,
		Title:  title,
		Body:   actor.Name + " started following you",
		Data:   map[string]string{"type": "follow", "dataId": actor.ID.String()},
	}
}

func MessageNotification(sender domain.UserRef, chatID uuid.UUID, tokens []string) Notification {
	return Notification{
		Tokens: tokens,
		Title:  title,
		Body:   sender.Name + " sent a message",
		Data: map[string]string{
			"type":       "message",
			"dataId":     chatID.String(),
			"userId":     sender.ID.String(),
			"userName":   sender.Name,
			"userAvatar": sender.Avatar,
		},
	}
}

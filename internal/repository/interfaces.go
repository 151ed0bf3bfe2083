package repository

import (
	"context"

	"chitchat/internal/domain"

	"github.com/google/uuid"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
}

type PostRepository interface {
	GetPostByID(ctx context.Context, id uuid.UUID) (domain.Post, error)

	// ToggleLike removes an existing like or adds a new one. It reports
	// whether the like now exists.
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (domain.Like, bool, error)
	GetLikes(ctx context.Context, postID uuid.UUID, page, limit int) ([]domain.Like, error)

	CreateComment(ctx context.Context, c *domain.Comment) error
	GetComments(ctx context.Context, postID uuid.UUID, page, limit int) ([]domain.Comment, error)
}

type FollowRepository interface {
	// ToggleFollow removes an existing follow or adds one while the target
	// has fewer than maxFollowers followers.
	ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID, maxFollowers int) (domain.Follow, bool, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.User, error)
	GetFollowings(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.User, error)
}

type ChatRepository interface {
	GetChatByID(ctx context.Context, id uuid.UUID) (domain.Chat, error)
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, chatID uuid.UUID) ([]domain.User, error)

	// CreateMessage stores the message and updates the chat's last message.
	CreateMessage(ctx context.Context, m *domain.Message) error
	GetMessages(ctx context.Context, chatID uuid.UUID, page, limit int) ([]domain.Message, error)
}

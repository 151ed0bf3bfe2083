package proxy

import (
	"context"

	"chitchat/internal/repository"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
)

// AccessControl answers whether a user may read or write a chat or post.
type AccessControl struct {
	chatRepo repository.ChatRepository
	postRepo repository.PostRepository
}

func NewAccessControl(chatRepo repository.ChatRepository, postRepo repository.PostRepository) *AccessControl {
	return &AccessControl{chatRepo: chatRepo, postRepo: postRepo}
}

// CanViewChat requires the chat to exist and the user to be a member.
func (a *AccessControl) CanViewChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, err := a.chatRepo.GetChatByID(ctx, chatID); err != nil {
		return err
	}
	ok, err := a.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return chitchat_errors.ErrForbidden
	}
	return nil
}

// CanSendMessage has the same rule as viewing.
func (a *AccessControl) CanSendMessage(ctx context.Context, userID, chatID uuid.UUID) error {
	return a.CanViewChat(ctx, userID, chatID)
}

// CanViewPost only requires the post to exist; posts are public.
func (a *AccessControl) CanViewPost(ctx context.Context, postID uuid.UUID) error {
	_, err := a.postRepo.GetPostByID(ctx, postID)
	return err
}

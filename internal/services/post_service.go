package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chitchat/internal/domain"
	"chitchat/internal/events"
	"chitchat/internal/push"
	"chitchat/internal/repository"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultListPageSize = 15

type CommentView struct {
	ID        uuid.UUID      `json:"id"`
	PostID    uuid.UUID      `json:"post_id"`
	Author    domain.UserRef `json:"author"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
}

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	notifier
	pageSize int
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, publisher events.Publisher, pusher Pusher, logger *zap.Logger) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		notifier: newNotifier(publisher, pusher, logger, "post_service"),
		pageSize: DefaultListPageSize,
	}
}

// ToggleLike likes the post, or removes the like if it exists. Only a new
// like is published and pushed.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return false, err
	}
	actor, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	like, added, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil || !added {
		return added, err
	}

	s.publish(ctx, events.TopicPostLikes, postID.String(), events.LikeAdded{
		PostID:    postID,
		Actor:     actor.Ref(),
		CreatedAt: like.CreatedAt,
	})
	if post.UserID != userID {
		s.pushToOwner(ctx, post, func(tokens []string) push.Notification {
			return push.LikeNotification(actor.Ref(), postID, tokens)
		})
	}
	return true, nil
}

func (s *PostService) AddComment(ctx context.Context, userID, postID uuid.UUID, text string) (CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return CommentView{}, fmt.Errorf("%w: comment text is required", chitchat_errors.ErrInvalidInput)
	}
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		return CommentView{}, err
	}
	actor, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return CommentView{}, err
	}

	c := domain.Comment{UserID: userID, PostID: postID, Text: text}
	if err := s.postRepo.CreateComment(ctx, &c); err != nil {
		return CommentView{}, err
	}

	s.publish(ctx, events.TopicPostComments, postID.String(), events.CommentAdded{
		CommentID: c.ID,
		PostID:    postID,
		Actor:     actor.Ref(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	})
	if post.UserID != userID {
		s.pushToOwner(ctx, post, func(tokens []string) push.Notification {
			return push.CommentNotification(actor.Ref(), postID, tokens)
		})
	}
	return CommentView{ID: c.ID, PostID: postID, Author: actor.Ref(), Text: c.Text, CreatedAt: c.CreatedAt}, nil
}

func (s *PostService) ListComments(ctx context.Context, postID uuid.UUID, page int) ([]CommentView, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", chitchat_errors.ErrInvalidPage, page)
	}
	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.postRepo.GetComments(ctx, postID, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentView{ID: c.ID, PostID: c.PostID, Author: c.User.Ref(), Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return out, nil
}

// ListLikes returns who liked the post, most recent first.
func (s *PostService) ListLikes(ctx context.Context, postID uuid.UUID, page int) ([]domain.UserRef, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", chitchat_errors.ErrInvalidPage, page)
	}
	if _, err := s.postRepo.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	likes, err := s.postRepo.GetLikes(ctx, postID, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]domain.UserRef, 0, len(likes))
	for _, l := range likes {
		if u, ok := byID[l.UserID]; ok {
			out = append(out, u.Ref())
		}
	}
	return out, nil
}

func (s *PostService) pushToOwner(ctx context.Context, post domain.Post, build func(tokens []string) push.Notification) {
	owner, err := s.userRepo.GetUserByID(ctx, post.UserID)
	if err != nil {
		s.log.Warn("failed to load post owner for push", zap.String("post_id", post.ID.String()), zap.Error(err))
		return
	}
	s.push(build(owner.FCMTokens))
}

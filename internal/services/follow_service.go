package services

import (
	"context"
	"fmt"

	"chitchat/internal/domain"
	"chitchat/internal/events"
	"chitchat/internal/push"
	"chitchat/internal/repository"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultFollowerLimit = 100

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier
	followerLimit int
	pageSize      int
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, publisher events.Publisher, pusher Pusher, followerLimit int, logger *zap.Logger) *FollowService {
	if followerLimit <= 0 {
		followerLimit = DefaultFollowerLimit
	}
	return &FollowService{
		followRepo:    followRepo,
		userRepo:      userRepo,
		notifier:      newNotifier(publisher, pusher, logger, "follow_service"),
		followerLimit: followerLimit,
		pageSize:      DefaultListPageSize,
	}
}

// ToggleFollow follows targetID, or unfollows if already following. A new
// follow is published to the target's follows channel and pushed to them.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	if followerID == targetID {
		return false, fmt.Errorf("%w: cannot follow yourself", chitchat_errors.ErrInvalidInput)
	}
	target, err := s.userRepo.GetUserByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	follower, err := s.userRepo.GetUserByID(ctx, followerID)
	if err != nil {
		return false, err
	}
	follow, added, err := s.followRepo.ToggleFollow(ctx, followerID, targetID, s.followerLimit)
	if err != nil || !added {
		return added, err
	}

	s.publish(ctx, events.TopicUserFollows, targetID.String(), events.FollowAdded{
		Follower:    follower.Ref(),
		FollowingID: targetID,
		CreatedAt:   follow.CreatedAt,
	})
	s.push(push.FollowNotification(follower.Ref(), target.FCMTokens))
	return true, nil
}

func (s *FollowService) Followers(ctx context.Context, userID uuid.UUID, page int) ([]domain.UserRef, error) {
	return s.list(ctx, userID, page, s.followRepo.GetFollowers)
}

func (s *FollowService) Followings(ctx context.Context, userID uuid.UUID, page int) ([]domain.UserRef, error) {
	return s.list(ctx, userID, page, s.followRepo.GetFollowings)
}

func (s *FollowService) list(ctx context.Context, userID uuid.UUID, page int, query func(context.Context, uuid.UUID, int, int) ([]domain.User, error)) ([]domain.UserRef, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", chitchat_errors.ErrInvalidPage, page)
	}
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := query(ctx, userID, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserRef, 0, len(users))
	for _, u := range users {
		out = append(out, u.Ref())
	}
	return out, nil
}

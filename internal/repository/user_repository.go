package repository

import (
	"context"
	"errors"

	"chitchat/internal/domain"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, chitchat_errors.ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type PostgresFollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID, maxFollowers int) (domain.Follow, bool, error) {
	f := domain.Follow{FollowerID: followerID, FollowingID: followingID}
	var added bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&domain.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var followers int64
		if err := tx.Model(&domain.Follow{}).Where("following_id = ?", followingID).Count(&followers).Error; err != nil {
			return err
		}
		if maxFollowers > 0 && followers >= int64(maxFollowers) {
			return chitchat_errors.ErrLimitReached
		}

		if err := tx.Create(&f).Error; err != nil {
			if isUniqueViolation(err) {
				return chitchat_errors.ErrConflict
			}
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return domain.Follow{}, false, err
	}
	return f, added, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowings(ctx context.Context, userID uuid.UUID, page, limit int) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&users).Error
	return users, err
}

package repository

import (
	"context"
	"errors"

	"chitchat/internal/domain"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresPostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uuid.UUID) (domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Post{}, chitchat_errors.ErrNotFound
		}
		return domain.Post{}, err
	}
	return p, nil
}

func (r *PostgresPostRepository) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (domain.Like, bool, error) {
	like := domain.Like{UserID: userID, PostID: postID}
	var added bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Create(&like).Error; err != nil {
			if isUniqueViolation(err) {
				return chitchat_errors.ErrConflict
			}
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return domain.Like{}, false, err
	}
	return like, added, nil
}

func (r *PostgresPostRepository) GetLikes(ctx context.Context, postID uuid.UUID, page, limit int) ([]domain.Like, error) {
	var likes []domain.Like
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&likes).Error
	return likes, err
}

func (r *PostgresPostRepository) CreateComment(ctx context.Context, c *domain.Comment) error {
	return r.db.WithContext(ctx).Omit("User").Create(c).Error
}

func (r *PostgresPostRepository) GetComments(ctx context.Context, postID uuid.UUID, page, limit int) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("updated_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

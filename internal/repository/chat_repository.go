package repository

import (
	"context"
	"errors"

	"chitchat/internal/domain"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) GetChatByID(ctx context.Context, id uuid.UUID) (domain.Chat, error) {
	var c domain.Chat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Chat{}, chitchat_errors.ErrNotFound
		}
		return domain.Chat{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresChatRepository) GetMembers(ctx context.Context, chatID uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_members ON chat_members.user_id = users.id").
		Where("chat_members.chat_id = ?", chatID).
		Find(&users).Error
	return users, err
}

func (r *PostgresChatRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender").Create(m).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.Chat{}).
			Where("id = ?", m.ChatID).
			Updates(map[string]interface{}{"last_message": m.Text, "updated_at": gorm.Expr("CURRENT_TIMESTAMP")})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return chitchat_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresChatRepository) GetMessages(ctx context.Context, chatID uuid.UUID, page, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("updated_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

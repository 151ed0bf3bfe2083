package services

import (
	"context"
	"fmt"
	"strings"

	"chitchat/internal/domain"
	"chitchat/internal/events"
	"chitchat/internal/live"
	"chitchat/internal/proxy"
	"chitchat/internal/push"
	"chitchat/internal/repository"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMessagePageSize = 30

type MessageService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	access   *proxy.AccessControl
	notifier
	pageSize int
}

func NewMessageService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, access *proxy.AccessControl, publisher events.Publisher, pusher Pusher, pageSize int, logger *zap.Logger) *MessageService {
	if pageSize <= 0 {
		pageSize = DefaultMessagePageSize
	}
	return &MessageService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		access:   access,
		notifier: newNotifier(publisher, pusher, logger, "message_service"),
		pageSize: pageSize,
	}
}

// Send stores a message, publishes it to the chat's live channel and
// pushes to the other members.
func (s *MessageService) Send(ctx context.Context, senderID, chatID uuid.UUID, text string) (live.MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return live.MessageView{}, fmt.Errorf("%w: message text is required", chitchat_errors.ErrInvalidInput)
	}
	if err := s.access.CanSendMessage(ctx, senderID, chatID); err != nil {
		return live.MessageView{}, err
	}
	sender, err := s.userRepo.GetUserByID(ctx, senderID)
	if err != nil {
		return live.MessageView{}, err
	}

	msg := domain.Message{ChatID: chatID, SenderID: senderID, Text: text}
	if err := s.chatRepo.CreateMessage(ctx, &msg); err != nil {
		return live.MessageView{}, err
	}

	posted := events.MessagePosted{
		MessageID: msg.ID,
		ChatID:    chatID,
		Sender:    sender.Ref(),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	s.publish(ctx, events.TopicChatMessages, chatID.String(), posted)

	members, err := s.chatRepo.GetMembers(ctx, chatID)
	if err != nil {
		s.log.Warn("failed to load chat members for push", zap.String("chat_id", chatID.String()), zap.Error(err))
	} else {
		var tokens []string
		for _, m := range members {
			if m.ID != senderID {
				tokens = append(tokens, m.FCMTokens...)
			}
		}
		s.push(push.MessageNotification(sender.Ref(), chatID, tokens))
	}

	return live.RenderMessage(posted, senderID), nil
}

// List returns a page of the chat's history, newest first, rendered for viewerID.
func (s *MessageService) List(ctx context.Context, viewerID, chatID uuid.UUID, page int) ([]live.MessageView, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", chitchat_errors.ErrInvalidPage, page)
	}
	if err := s.access.CanViewChat(ctx, viewerID, chatID); err != nil {
		return nil, err
	}

	msgs, err := s.chatRepo.GetMessages(ctx, chatID, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	views := make([]live.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, live.RenderMessage(events.MessagePosted{
			MessageID: m.ID,
			ChatID:    m.ChatID,
			Sender:    m.Sender.Ref(),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}, viewerID))
	}
	return views, nil
}

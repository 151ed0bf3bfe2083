package database

import (
	"context"
	"fmt"
	"log"

	"chitchat/internal/domain"

	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	UserCount    int
	PostsPerUser int
	ChatName     string
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		UserCount:    5,
		PostsPerUser: 2,
		ChatName:     "General",
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	Users    []domain.User
	Posts    []domain.Post
	Chat     domain.Chat
	Messages []domain.Message
}

// Seed fills an empty database with users who post, like, comment,
// follow each other and share one chat.
func Seed(ctx context.Context, db *gorm.DB, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	if cfg.UserCount < 2 {
		return nil, fmt.Errorf("seed needs at least 2 users, got %d", cfg.UserCount)
	}

	result := &SeedResult{}
	log.Println("Starting database seeding...")

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 1; i <= cfg.UserCount; i++ {
			u := domain.User{
				Name:   fmt.Sprintf("user%d", i),
				Email:  fmt.Sprintf("user%d@chitchat.local", i),
				Avatar: fmt.Sprintf("https://avatars.chitchat.local/%d.png", i),
			}
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("failed to seed user: %w", err)
			}
			result.Users = append(result.Users, u)
		}

		for _, u := range result.Users {
			for j := 1; j <= cfg.PostsPerUser; j++ {
				p := domain.Post{
					UserID:  u.ID,
					Caption: fmt.Sprintf("%s's post #%d", u.Name, j),
					URL:     fmt.Sprintf("https://media.chitchat.local/%s/%d.jpg", u.ID, j),
				}
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("failed to seed post: %w", err)
				}
				result.Posts = append(result.Posts, p)
			}
		}

		// Everyone follows the next user, likes and comments on their first post.
		n := len(result.Users)
		for i, u := range result.Users {
			next := result.Users[(i+1)%n]
			if err := tx.Create(&domain.Follow{FollowerID: u.ID, FollowingID: next.ID}).Error; err != nil {
				return fmt.Errorf("failed to seed follow: %w", err)
			}
			if cfg.PostsPerUser == 0 {
				continue
			}
			post := result.Posts[((i+1)%n)*cfg.PostsPerUser]
			if err := tx.Create(&domain.Like{UserID: u.ID, PostID: post.ID}).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			comment := domain.Comment{UserID: u.ID, PostID: post.ID, Text: "Nice one!"}
			if err := tx.Omit("User").Create(&comment).Error; err != nil {
				return fmt.Errorf("failed to seed comment: %w", err)
			}
		}

		result.Chat = domain.Chat{Name: cfg.ChatName, Members: result.Users}
		if err := tx.Create(&result.Chat).Error; err != nil {
			return fmt.Errorf("failed to seed chat: %w", err)
		}
		for _, u := range result.Users {
			m := domain.Message{ChatID: result.Chat.ID, SenderID: u.ID, Text: fmt.Sprintf("Hi, I'm %s", u.Name)}
			if err := tx.Omit("Sender").Create(&m).Error; err != nil {
				return fmt.Errorf("failed to seed message: %w", err)
			}
			result.Messages = append(result.Messages, m)
		}
		last := result.Messages[len(result.Messages)-1].Text
		return tx.Model(&result.Chat).Update("last_message", last).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Database seeding completed: %d users, %d posts, chat %s", len(result.Users), len(result.Posts), result.Chat.ID)
	return result, nil
}

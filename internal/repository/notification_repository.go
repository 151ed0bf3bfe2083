package repository

import (
	"context"
	"fmt"

	"chitchat/internal/domain"

	"github.com/google/uuid"
)

// NotificationRepository reads the activity behind a user's notification
// feed. Every query excludes the recipient's own actions and returns rows
// newest first.
type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) PostIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM posts WHERE user_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *NotificationRepository) RecentLikes(ctx context.Context, recipientID uuid.UUID, postIDs []uuid.UUID, offset, limit int) ([]domain.LikeActivity, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	n := len(postIDs)
	query := fmt.Sprintf(`
		SELECT u.id, u.name, COALESCE(u.avatar, ''), p.id, COALESCE(p.url, ''), l.created_at
		FROM likes l
		JOIN users u ON u.id = l.user_id
		JOIN posts p ON p.id = l.post_id
		WHERE l.user_id <> $1 AND l.post_id IN (%s)
		ORDER BY l.created_at DESC
		LIMIT $%d OFFSET $%d`, buildPlaceholders(2, n), n+2, n+3)

	args := append([]interface{}{recipientID}, uuidArgs(postIDs)...)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var out []domain.LikeActivity
	for rows.Next() {
		var a domain.LikeActivity
		if err := rows.Scan(&a.Actor.ID, &a.Actor.Name, &a.Actor.Avatar, &a.Post.ID, &a.Post.URL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) RecentComments(ctx context.Context, recipientID uuid.UUID, postIDs []uuid.UUID, offset, limit int) ([]domain.CommentActivity, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	n := len(postIDs)
	query := fmt.Sprintf(`
		SELECT c.id, u.id, u.name, COALESCE(u.avatar, ''), p.id, COALESCE(p.url, ''), c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		JOIN posts p ON p.id = c.post_id
		WHERE c.user_id <> $1 AND c.post_id IN (%s)
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d`, buildPlaceholders(2, n), n+2, n+3)

	args := append([]interface{}{recipientID}, uuidArgs(postIDs)...)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []domain.CommentActivity
	for rows.Next() {
		var a domain.CommentActivity
		if err := rows.Scan(&a.CommentID, &a.Actor.ID, &a.Actor.Name, &a.Actor.Avatar, &a.Post.ID, &a.Post.URL, &a.Text, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) RecentFollows(ctx context.Context, recipientID uuid.UUID, offset, limit int) ([]domain.FollowActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, COALESCE(u.avatar, ''), f.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1 AND f.follower_id <> $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3`, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	var out []domain.FollowActivity
	for rows.Next() {
		var a domain.FollowActivity
		if err := rows.Scan(&a.Actor.ID, &a.Actor.Name, &a.Actor.Avatar, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

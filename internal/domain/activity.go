package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity rows are what the notification queries return, already joined
// with the acting user and (for post activity) the post.

type LikeActivity struct {
	Actor     UserRef
	Post      PostRef
	CreatedAt time.Time
}

type CommentActivity struct {
	CommentID uuid.UUID
	Actor     UserRef
	Post      PostRef
	Text      string
	CreatedAt time.Time
}

type FollowActivity struct {
	Actor     UserRef
	CreatedAt time.Time
}

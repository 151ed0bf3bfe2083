package notifications

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"chitchat/internal/domain"
	"chitchat/internal/metrics"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 15
	DefaultMaxPage  = 1000
)

type Kind string

const (
	KindLike    Kind = "like"
	KindComment Kind = "comment"
	KindFollow  Kind = "follow"
)

// Record is one entry of a user's notification feed. Subject is nil for follows.
type Record struct {
	Kind       Kind            `json:"kind"`
	Actor      domain.UserRef  `json:"actor"`
	Subject    *domain.PostRef `json:"subject,omitempty"`
	Text       string          `json:"text,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Source reads the activity the feed is built from. Every Recent* query
// must exclude rows where the actor is the recipient and return rows
// newest first.
type Source interface {
	PostIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	RecentLikes(ctx context.Context, recipientID uuid.UUID, postIDs []uuid.UUID, offset, limit int) ([]domain.LikeActivity, error)
	RecentComments(ctx context.Context, recipientID uuid.UUID, postIDs []uuid.UUID, offset, limit int) ([]domain.CommentActivity, error)
	RecentFollows(ctx context.Context, recipientID uuid.UUID, offset, limit int) ([]domain.FollowActivity, error)
}

type Aggregator struct {
	source   Source
	pageSize int
	maxPage  int
	log      *zap.Logger
}

func NewAggregator(source Source, pageSize int, logger *zap.Logger) *Aggregator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		source:   source,
		pageSize: pageSize,
		maxPage:  DefaultMaxPage,
		log:      logger.With(zap.String("component", "notifications")),
	}
}

// WithMaxPage sets the deepest page that is read from the sources. Pages past
// it are answered with an empty list.
func (a *Aggregator) WithMaxPage(maxPage int) *Aggregator {
	if maxPage > 0 {
		a.maxPage = maxPage
	}
	return a
}

// lastPage is maxPage clamped so lastPage*pageSize cannot overflow.
func (a *Aggregator) lastPage() int {
	if limit := math.MaxInt / a.pageSize; a.maxPage > limit {
		return limit
	}
	return a.maxPage
}

func (a *Aggregator) PageSize() int { return a.pageSize }

// GetNotifications returns page (1-based) of the recipient's likes, comments
// and follows, newest first. Each source is read from the top up to
// page*pageSize rows so the merged ranking is exact for every page.
func (a *Aggregator) GetNotifications(ctx context.Context, recipientID uuid.UUID, page int) ([]Record, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", chitchat_errors.ErrInvalidPage, page)
	}
	if page > a.lastPage() {
		return []Record{}, nil
	}
	start := time.Now()
	defer func() { metrics.AggregationDuration.Observe(time.Since(start).Seconds()) }()

	postIDs, err := a.source.PostIDsByOwner(ctx, recipientID)
	if err != nil {
		return nil, a.sourceFailed("posts", err)
	}

	limit := page * a.pageSize
	var (
		likes    []domain.LikeActivity
		comments []domain.CommentActivity
		follows  []domain.FollowActivity
	)

	g, gctx := errgroup.WithContext(ctx)
	if len(postIDs) > 0 {
		g.Go(func() error {
			rows, err := a.source.RecentLikes(gctx, recipientID, postIDs, 0, limit)
			if err != nil {
				return a.sourceFailed("likes", err)
			}
			likes = rows
			return nil
		})
		g.Go(func() error {
			rows, err := a.source.RecentComments(gctx, recipientID, postIDs, 0, limit)
			if err != nil {
				return a.sourceFailed("comments", err)
			}
			comments = rows
			return nil
		})
	}
	g.Go(func() error {
		rows, err := a.source.RecentFollows(gctx, recipientID, 0, limit)
		if err != nil {
			return a.sourceFailed("follows", err)
		}
		follows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(likes)+len(comments)+len(follows))
	for _, l := range likes {
		post := l.Post
		records = append(records, Record{Kind: KindLike, Actor: l.Actor, Subject: &post, OccurredAt: l.CreatedAt})
	}
	for _, c := range comments {
		post := c.Post
		records = append(records, Record{Kind: KindComment, Actor: c.Actor, Subject: &post, Text: c.Text, OccurredAt: c.CreatedAt})
	}
	for _, f := range follows {
		records = append(records, Record{Kind: KindFollow, Actor: f.Actor, OccurredAt: f.CreatedAt})
	}

	return paginate(withoutSelf(records, recipientID), page, a.pageSize), nil
}

func (a *Aggregator) sourceFailed(source string, err error) error {
	metrics.AggregationErrors.WithLabelValues(source).Inc()
	a.log.Error("notification source failed", zap.String("source", source), zap.Error(err))
	return &chitchat_errors.AggregationError{Source: source, Err: err}
}

func withoutSelf(records []Record, recipientID uuid.UUID) []Record {
	out := records[:0]
	for _, r := range records {
		if r.Actor.ID != recipientID {
			out = append(out, r)
		}
	}
	return out
}

// paginate sorts newest first and returns the requested window. Ties are
// broken by kind and then actor id so repeated reads agree.
func paginate(records []Record, page, pageSize int) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return bytes.Compare(a.Actor.ID[:], b.Actor.ID[:]) < 0
	})

	if page-1 >= (len(records)+pageSize-1)/pageSize {
		return []Record{}
	}
	from := (page - 1) * pageSize
	if from >= len(records) {
		return []Record{}
	}
	to := from + pageSize
	if to > len(records) {
		to = len(records)
	}
	return records[from:to]
}

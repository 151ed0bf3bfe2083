package services

import (
	"context"
	"sync"
	"time"

	"chitchat/internal/domain"
	"chitchat/internal/push"
	chitchat_errors "chitchat/pkg/errors"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	posts    map[uuid.UUID]domain.Post
	likes    map[[2]uuid.UUID]domain.Like
	comments []domain.Comment
	follows  map[[2]uuid.UUID]domain.Follow
	chats    map[uuid.UUID]domain.Chat
	members  map[uuid.UUID][]uuid.UUID
	messages []domain.Message

	userErrs map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[uuid.UUID]domain.User{},
		posts:    map[uuid.UUID]domain.Post{},
		likes:    map[[2]uuid.UUID]domain.Like{},
		follows:  map[[2]uuid.UUID]domain.Follow{},
		chats:    map[uuid.UUID]domain.Chat{},
		members:  map[uuid.UUID][]uuid.UUID{},
		userErrs: map[uuid.UUID]error{},
	}
}

func (f *fakeStore) addUser(name string, tokens ...string) domain.User {
	u := domain.User{ID: uuid.New(), Name: name, Email: name + "@example.com", FCMTokens: tokens}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addPost(owner uuid.UUID) domain.Post {
	p := domain.Post{ID: uuid.New(), UserID: owner, URL: "https://cdn.example.com/p.jpg"}
	f.posts[p.ID] = p
	return p
}

func (f *fakeStore) addChat(members ...uuid.UUID) domain.Chat {
	c := domain.Chat{ID: uuid.New(), Name: "chat"}
	f.chats[c.ID] = c
	f.members[c.ID] = members
	return c
}

func (f *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.userErrs[id]; err != nil {
		return domain.User{}, err
	}
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, chitchat_errors.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeStore) GetPostByID(_ context.Context, id uuid.UUID) (domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return domain.Post{}, chitchat_errors.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ToggleLike(_ context.Context, userID, postID uuid.UUID) (domain.Like, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{userID, postID}
	if l, ok := f.likes[key]; ok {
		delete(f.likes, key)
		return l, false, nil
	}
	l := domain.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}
	f.likes[key] = l
	return l, true, nil
}

func (f *fakeStore) GetLikes(_ context.Context, postID uuid.UUID, _, _ int) ([]domain.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Like
	for _, l := range f.likes {
		if l.PostID == postID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateComment(_ context.Context, c *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.User = f.users[c.UserID]
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeStore) GetComments(_ context.Context, postID uuid.UUID, _, _ int) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ToggleFollow(_ context.Context, followerID, followingID uuid.UUID, maxFollowers int) (domain.Follow, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uuid.UUID{followerID, followingID}
	if fl, ok := f.follows[key]; ok {
		delete(f.follows, key)
		return fl, false, nil
	}
	count := 0
	for k := range f.follows {
		if k[1] == followingID {
			count++
		}
	}
	if count >= maxFollowers {
		return domain.Follow{}, false, chitchat_errors.ErrLimitReached
	}
	fl := domain.Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: time.Now()}
	f.follows[key] = fl
	return fl, true, nil
}

func (f *fakeStore) GetFollowers(_ context.Context, userID uuid.UUID, _, _ int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for k := range f.follows {
		if k[1] == userID {
			out = append(out, f.users[k[0]])
		}
	}
	return out, nil
}

func (f *fakeStore) GetFollowings(_ context.Context, userID uuid.UUID, _, _ int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for k := range f.follows {
		if k[0] == userID {
			out = append(out, f.users[k[1]])
		}
	}
	return out, nil
}

func (f *fakeStore) GetChatByID(_ context.Context, id uuid.UUID) (domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[id]
	if !ok {
		return domain.Chat{}, chitchat_errors.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) IsMember(_ context.Context, chatID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[chatID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetMembers(_ context.Context, chatID uuid.UUID) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, m := range f.members[chatID] {
		out = append(out, f.users[m])
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, m *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	m.Sender = f.users[m.SenderID]
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeStore) GetMessages(_ context.Context, chatID uuid.UUID, _, _ int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ChatID == chatID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []push.Notification
}

func (r *recordingPusher) Enqueue(n push.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingPusher) notifications() []push.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]push.Notification(nil), r.sent...)
}

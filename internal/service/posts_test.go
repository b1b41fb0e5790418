package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pubsub"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

func TestCreatePost_OK_Publishes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	owner := &models.User{ID: 2, Username: "bob"}

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.bus.Subscribe(subCtx, pubsub.EventNewPost)

	f.st.EXPECT().UserByID(gomock.Any(), int64(2)).Return(owner, nil)
	f.st.EXPECT().SavePost(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *models.Post) error {
		p.ID = 10
		return nil
	})

	post, err := f.svc.CreatePost(withIdentity(2, "bob"), "hello", "world")
	require.NoError(t, err)
	require.Equal(t, int64(10), post.ID)
	require.Equal(t, int64(2), post.UserID)
	require.Same(t, owner, post.User)

	select {
	case ev := <-events:
		require.Same(t, post, ev)
	case <-time.After(time.Second):
		t.Fatal("new_post was not published")
	}
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})

	_, err := f.svc.CreatePost(context.Background(), "t", "b")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreatePost_UserGone(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.st.EXPECT().UserByID(gomock.Any(), int64(2)).Return(nil, storage.ErrNotFound)

	_, err := f.svc.CreatePost(withIdentity(2, "bob"), "t", "b")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePost_TooLong(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	ctx := withIdentity(2, "bob")

	_, err := f.svc.CreatePost(ctx, strings.Repeat("я", 51), "b")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreatePost(ctx, "t", strings.Repeat("x", 256))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreatePost_StorageError_NotPublished(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.bus.Subscribe(subCtx, pubsub.EventNewPost)

	boom := errors.New("db down")
	f.st.EXPECT().UserByID(gomock.Any(), int64(2)).Return(&models.User{ID: 2}, nil)
	f.st.EXPECT().SavePost(gomock.Any(), gomock.Any()).Return(boom)

	_, err := f.svc.CreatePost(withIdentity(2, "bob"), "t", "b")
	require.ErrorIs(t, err, boom)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUsersAndPosts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.st.EXPECT().Users(gomock.Any()).Return([]*models.User{{ID: 1}}, nil)
	f.st.EXPECT().Posts(gomock.Any()).Return([]*models.Post{{ID: 1}, {ID: 2}}, nil)

	users, err := f.svc.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)

	posts, err := f.svc.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
}

func TestUserByID_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Options{})
	f.st.EXPECT().UserByID(gomock.Any(), int64(9)).Return(nil, storage.ErrNotFound)

	_, err := f.svc.UserByID(context.Background(), 9)
	require.ErrorIs(t, err, ErrUserNotFound)
}

package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

// Тесты хранилища SQLite работают на временном файле и не требуют окружения.

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	st, err := New(context.Background(), filepath.Join(t.TempDir(), "posts.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	return st
}

func newUser(name string) *models.User {
	return &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		TokenID:      uuid.New(),
	}
}

func TestSaveUser_And_Lookups(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, st.SaveUser(ctx, u))
	require.Equal(t, int64(1), u.ID)
	require.WithinDuration(t, time.Now(), u.CreatedAt, 5*time.Second)

	byName, err := st.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)
	require.Equal(t, u.TokenID, byName.TokenID)
	require.Equal(t, "alice@example.com", byName.Email)
	require.Equal(t, "hash", byName.PasswordHash)
	require.WithinDuration(t, u.CreatedAt, byName.CreatedAt, time.Second)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)
}

func TestSaveUser_DuplicateUsername(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, st.SaveUser(ctx, newUser("bob")))

	err := st.SaveUser(ctx, newUser("bob"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	users, err := st.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestUserLookups_NotFound(t *testing.T) {
	st := newTestStorage(t)

	_, err := st.UserByUsername(context.Background(), "absent")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(context.Background(), 42)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUsers_OrderedByID(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	users, err := st.Users(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, st.SaveUser(ctx, newUser(name)))
	}

	users, err = st.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, []string{"c", "a", "b"}, []string{users[0].Username, users[1].Username, users[2].Username})
}

func TestUpdateTokenID(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	u := newUser("carol")
	require.NoError(t, st.SaveUser(ctx, u))

	next := uuid.New()
	require.NoError(t, st.UpdateTokenID(ctx, u.ID, next))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, next, got.TokenID)

	require.ErrorIs(t, st.UpdateTokenID(ctx, 999, uuid.New()), storage.ErrNotFound)
}

func TestSavePost_And_Posts(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	u := newUser("dave")
	require.NoError(t, st.SaveUser(ctx, u))

	first := &models.Post{Title: "first", Body: "one", UserID: u.ID}
	second := &models.Post{Title: "second", Body: "two", UserID: u.ID}
	require.NoError(t, st.SavePost(ctx, first))
	require.NoError(t, st.SavePost(ctx, second))
	require.Less(t, first.ID, second.ID)

	posts, err := st.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "first", posts[0].Title)
	require.Equal(t, "two", posts[1].Body)
	require.Equal(t, u.ID, posts[1].UserID)
	require.Nil(t, posts[0].User)
}

func TestSavePost_UnknownUser(t *testing.T) {
	st := newTestStorage(t)

	err := st.SavePost(context.Background(), &models.Post{Title: "t", Body: "b", UserID: 77})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")
	ctx := context.Background()

	st, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, st.SaveUser(ctx, newUser("erin")))
	st.Close()

	st, err = New(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.UserByUsername(ctx, "erin")
	require.NoError(t, err)
}

func TestQueries_ContextCanceled(t *testing.T) {
	st := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByUsername(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.Posts(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveUser_Concurrent(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.SaveUser(ctx, newUser("same"))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, storage.ErrAlreadyExists)
			dup++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 7, dup)
}

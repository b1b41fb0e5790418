package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pubsub"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

// Ограничения колонок posts.title / posts.body.
const (
	maxTitleLen = 50
	maxBodyLen  = 255
)

// CreatePost сохраняет публикацию от имени текущего пользователя и
// рассылает событие new_post подписчикам.
func (s *Service) CreatePost(ctx context.Context, title, body string) (*models.Post, error) {
	const op = "service.posts.CreatePost"

	id := reqctx.Identity(ctx)
	if id == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, fmt.Errorf("%s: %w", op, invalid("title is longer than %d characters", maxTitleLen))
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return nil, fmt.Errorf("%s: %w", op, invalid("body is longer than %d characters", maxBodyLen))
	}

	user, err := s.storage.UserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post := &models.Post{Title: title, Body: body, UserID: user.ID}
	if err := s.storage.SavePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}
	post.User = user

	delivered := s.bus.Publish(pubsub.EventNewPost, post)

	reqctx.Logger(ctx).Info("post_created",
		slog.Int64("post_id", post.ID),
		slog.Int64("user_id", user.ID),
		slog.Int("delivered", delivered),
	)

	return post, nil
}

// Users возвращает всех пользователей.
func (s *Service) Users(ctx context.Context) ([]*models.User, error) {
	const op = "service.posts.Users"

	users, err := s.storage.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// Posts возвращает все публикации.
func (s *Service) Posts(ctx context.Context) ([]*models.Post, error) {
	const op = "service.posts.Posts"

	posts, err := s.storage.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

// UserByID загружает владельца публикации.
func (s *Service) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "service.posts.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт пользователя и проставляет user.ID/CreatedAt.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByUsername находит пользователя по имени.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// Users возвращает всех пользователей в порядке ID.
	Users(ctx context.Context) ([]*models.User, error)
	// UpdateTokenID атомарно заменяет маркер отзыва пользователя.
	UpdateTokenID(ctx context.Context, id int64, tokenID uuid.UUID) error
}

// PostStorage выполняет операции над публикациями.
type PostStorage interface {
	// SavePost создаёт публикацию и проставляет post.ID/CreatedAt.
	SavePost(ctx context.Context, post *models.Post) error
	// Posts возвращает все публикации в порядке ID.
	Posts(ctx context.Context) ([]*models.Post, error)
}

// Storage задает контракт работы с БД.
//
//go:generate mockgen -destination=../../mocks/storage.go -package=mocks github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage Storage
type Storage interface {
	UserStorage
	PostStorage
	Close()
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

// SavePost сохраняет публикацию. Отсутствующий владелец -> storage.ErrNotFound.
func (s *Storage) SavePost(ctx context.Context, post *models.Post) error {
	const op = "storage.sqlite.SavePost"

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts(title, body, user_id, created_at) VALUES (?, ?, ?, ?)`,
		post.Title, post.Body, post.UserID, createdAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	post.ID = id
	post.CreatedAt = createdAt
	return nil
}

// Posts возвращает все публикации.
func (s *Storage) Posts(ctx context.Context) ([]*models.Post, error) {
	const op = "storage.sqlite.Posts"

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, body, user_id, created_at FROM posts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

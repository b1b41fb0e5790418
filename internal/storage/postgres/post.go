package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

// SavePost сохраняет публикацию. Отсутствующий владелец -> storage.ErrNotFound.
func (s *Storage) SavePost(ctx context.Context, post *models.Post) error {
	const op = "storage.postgres.SavePost"

	query := `
		INSERT INTO posts(title, body, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, query, post.Title, post.Body, post.UserID).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Posts возвращает все публикации.
func (s *Storage) Posts(ctx context.Context) ([]*models.Post, error) {
	const op = "storage.postgres.Posts"

	rows, err := s.db.Query(ctx, `SELECT id, title, body, user_id, created_at FROM posts ORDER BY id`)
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

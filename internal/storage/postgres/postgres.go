package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

// ErrSchemaMissing — в базе нет таблиц users/posts: миграции не применены.
var ErrSchemaMissing = errors.New("schema is not applied (migrations/1_init.up.sql)")

// Options — настройки пула; нулевые значения оставляют значения pgxpool.
type Options struct {
	MaxConns        int
	MinConns        int
	MaxConnIdleTime time.Duration
}

type Storage struct {
	db *pgxpool.Pool
}

// New открывает пул соединений к PostgreSQL и проверяет, что схема применена.
func New(ctx context.Context, dbURL string, opts Options) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	applyOptions(config, opts)

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := checkSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func applyOptions(config *pgxpool.Config, opts Options) {
	if opts.MaxConns > 0 {
		config.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		config.MinConns = int32(opts.MinConns)
	}
	if config.MinConns > config.MaxConns {
		config.MinConns = config.MaxConns
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}
}

func checkSchema(ctx context.Context, db *pgxpool.Pool) error {
	var ok bool
	err := db.QueryRow(ctx,
		`SELECT to_regclass('users') IS NOT NULL AND to_regclass('posts') IS NOT NULL`,
	).Scan(&ok)
	if err != nil {
		return err
	}

	if !ok {
		return ErrSchemaMissing
	}

	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.db.Close()
}

var _ storage.Storage = (*Storage)(nil)

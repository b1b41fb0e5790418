package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionEntry описывает данные, которые мы храним в Redis по ID пользователя:
// текущий маркер отзыва и имя для Identity.
type SessionEntry struct {
	TokenID  uuid.UUID
	Username string
}

// RevocationCache — минимальный контракт кэша маркеров отзыва.
//
//go:generate mockgen -destination=../../mocks/cache.go -package=mocks github.com/pribylovaa/go-news-aggregator/posts-service/internal/cache RevocationCache
type RevocationCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	Get(ctx context.Context, userID int64) (*SessionEntry, bool, error)
	// Set сохраняет запись с TTL, перезаписывая текущую (logout пишет новый token_id).
	Set(ctx context.Context, userID int64, e *SessionEntry, ttl time.Duration) error
	// SetIfAbsent сохраняет запись, только если её ещё нет; возвращает признак записи.
	// Заполнение по промаху не должно затирать значение, записанное logout.
	SetIfAbsent(ctx context.Context, userID int64, e *SessionEntry, ttl time.Duration) (bool, error)
	// Delete удаляет запись (после ротации token_id).
	Delete(ctx context.Context, userID int64) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "posts:tid:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (RevocationCache, error) {
	const op = "cache.NewRedisCache"

	if prefix == "" {
		prefix = "posts:tid:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(userID int64) string {
	return c.prefix + strconv.FormatInt(userID, 10)
}

// Запись хранится одной строкой "<tid>|<name>", чтобы SET NX был атомарным.
func encode(e *SessionEntry) string {
	return e.TokenID.String() + "|" + e.Username
}

func decode(v string) (*SessionEntry, error) {
	raw, name, ok := strings.Cut(v, "|")
	if !ok {
		return nil, errors.New("cache: malformed entry")
	}

	tid, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}

	return &SessionEntry{TokenID: tid, Username: name}, nil
}

func (c *redisCache) Get(ctx context.Context, userID int64) (*SessionEntry, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	e, err := decode(v)
	if err != nil {
		return nil, false, err
	}

	return e, true, nil
}

func (c *redisCache) Set(ctx context.Context, userID int64, e *SessionEntry, ttl time.Duration) error {
	if e == nil {
		return errors.New("cache: nil entry")
	}

	return c.rdb.Set(ctx, c.key(userID), encode(e), ttl).Err()
}

func (c *redisCache) SetIfAbsent(ctx context.Context, userID int64, e *SessionEntry, ttl time.Duration) (bool, error) {
	if e == nil {
		return false, errors.New("cache: nil entry")
	}

	return c.rdb.SetNX(ctx, c.key(userID), encode(e), ttl).Result()
}

func (c *redisCache) Delete(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

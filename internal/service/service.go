// service содержит бизнес-логику posts-сервиса:
// регистрацию и вход пользователей, отзыв сессий, создание публикаций
// и потоки данных для GraphQL-подписок.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; личность вызывающего берётся из
//     контекста (reqctx.Identity), куда её кладёт мидлвар аутентификации.
//   - Экземпляр безопасен для конкурентного использования при условии, что
//     хранилище и кэш потокобезопасны.
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP 401 или на
//     payload-статусы GraphQL (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/cache"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/credentials"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pubsub"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
)

var (
	// ErrInvalidToken — токен не прошёл проверку подписи/структуры.
	// Транспорт: HTTP 401 "invalid token".
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnknownUser — токен валиден, но пользователя с таким id нет.
	// Транспорт: HTTP 401 "Invalid User, log in with a valid user".
	ErrUnknownUser = errors.New("unknown user")

	// ErrTokenRevoked — token_id токена не совпадает с текущим (был logout).
	// Транспорт: HTTP 401 "Please log in again".
	ErrTokenRevoked = errors.New("token revoked")

	// ErrUsernameTaken — имя пользователя уже занято.
	// Транспорт: payload FAILED "User name is already in use".
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials — пользователь не найден или пароль неверен.
	// Транспорт: payload FAILED "unable to log in".
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated — операция требует входа, а запрос анонимный.
	// Транспорт: payload AUTHERROR "Please log in" (для logout: false).
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserNotFound — личность из токена больше не соответствует пользователю.
	// Транспорт: payload FAILED "unable to create post, user does not exist".
	ErrUserNotFound = errors.New("user does not exist")

	// ErrInvalidInput — аргументы не прошли валидацию.
	// Транспорт: payload FAILED с текстом ошибки.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError — конкретная причина ErrInvalidInput; текст уходит клиенту.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Reason }

// Is позволяет проверять errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

const defaultCountInterval = time.Second

// Options — необязательные зависимости и параметры Service.
type Options struct {
	// Cache — кэш маркеров отзыва; nil, если Redis не сконфигурирован.
	Cache    cache.RevocationCache
	CacheTTL time.Duration
	// CountInterval — шаг подписки count (по умолчанию 1s).
	CountInterval time.Duration
}

// Service описывает бизнес-логику posts-сервиса.
type Service struct {
	storage       storage.Storage
	creds         *credentials.Credentials
	bus           *pubsub.Bus
	rcache        cache.RevocationCache // может быть nil
	cacheTTL      time.Duration
	countInterval time.Duration
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, creds *credentials.Credentials, bus *pubsub.Bus, opts Options) *Service {
	if opts.CountInterval <= 0 {
		opts.CountInterval = defaultCountInterval
	}

	return &Service{
		storage:       st,
		creds:         creds,
		bus:           bus,
		rcache:        opts.Cache,
		cacheTTL:      opts.CacheTTL,
		countInterval: opts.CountInterval,
	}
}

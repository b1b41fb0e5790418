// reqctx хранит request-scoped значения в context.Context:
// обогащённый логгер, request id и аутентифицированную личность.
//
// Значения кладутся HTTP-мидлварами и читаются глубже по стеку
// (резолверы GraphQL, сервисный слой), не протаскиваясь через сигнатуры.
package reqctx

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
	identityKey  struct{}
)

// WithLogger кладёт логгер в контекст.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Logger достаёт логгер из контекста (или возвращает slog.Default()).
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}

// WithRequestID кладёт идентификатор запроса в контекст.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID возвращает идентификатор запроса или пустую строку.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithIdentity кладёт личность в контекст. nil не сохраняется.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	if id == nil {
		return ctx
	}

	return context.WithValue(ctx, identityKey{}, id)
}

// Identity возвращает личность из контекста или nil, если запрос анонимный.
func Identity(ctx context.Context) *models.Identity {
	if id, ok := ctx.Value(identityKey{}).(*models.Identity); ok {
		return id
	}

	return nil
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/metrics"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/service"
	apierrors "github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/errors"
)

// Authenticator проверяет токен сессии и возвращает личность.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*models.Identity, error)
}

// BearerToken разбирает значение Authorization вида "<scheme> <token>".
// Схема сравнивается без учёта регистра; всё, кроме bearer с непустым токеном, -> false.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}

	return token, true
}

// Authenticate проверяет Bearer-токен и кладёт личность в контекст.
//   - нет заголовка или он не "<bearer> <token>" -> запрос анонимный, идём дальше;
//   - токен не прошёл проверку -> 401 с унифицированным телом.
func Authenticate(auth Authenticator, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				reason := FailureReason(err)
				m.AuthFailure(reason)
				reqctx.Logger(r.Context()).Info("auth_rejected",
					slog.String("reason", reason),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := reqctx.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FailureReason — метка причины отказа для метрик и логов.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, service.ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, service.ErrTokenRevoked):
		return "revoked"
	default:
		return "internal"
	}
}

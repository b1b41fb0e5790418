package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/metrics"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Auth    middleware.Authenticator
	Metrics *metrics.Metrics
	// Timeout — дедлайн POST-запросов; WebSocket-сессии живут без него.
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	r.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
		middleware.Authenticate(opts.Auth, opts.Metrics),
	)

	post := r.With(middleware.Timeout(opts.Timeout))

	for _, path := range []string{"/graphql", "/graphql/"} {
		post.Post(path, h.GraphQLPost)
		r.Get(path, h.GraphQLGet)
	}

	return r
}

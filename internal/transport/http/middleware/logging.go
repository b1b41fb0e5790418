package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
)

// Logging кладёт request-scoped логгер в контекст и пишет запись "http"
// по завершении запроса.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := reqctx.RequestID(r.Context()); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			ctx := reqctx.WithLogger(r.Context(), reqLogger)
			r = r.WithContext(ctx)

			sw := newStatusWriter(w)
			start := time.Now()

			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
			}

			reqLogger.LogAttrs(r.Context(), slog.LevelInfo, "http", attrs...)
		})
	}
}

// ws обслуживает GraphQL поверх WebSocket (подписки newPost/count, а также
// одноразовые query/mutation) по протоколам graphql-transport-ws и graphql-ws.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/graphql-go/graphql"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/metrics"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/middleware"
)

const (
	defaultInitTimeout  = 10 * time.Second
	defaultKeepAlive    = 15 * time.Second
	defaultWriteTimeout = 5 * time.Second
	maxMessageBytes     = 1 << 20
)

// Executor исполняет операции графа.
type Executor interface {
	Do(ctx context.Context, req graph.Request) *graphql.Result
	Subscribe(ctx context.Context, req graph.Request) <-chan *graphql.Result
}

type Options struct {
	// Auth проверяет токен из payload connection_init; nil — payload игнорируется.
	Auth middleware.Authenticator
	// OriginPatterns — дополнительные разрешённые Origin (см. websocket.AcceptOptions).
	OriginPatterns []string
	InitTimeout    time.Duration
	KeepAlive      time.Duration
	WriteTimeout   time.Duration
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Handler принимает WebSocket-соединения и ведёт сессии.
type Handler struct {
	exec Executor
	opts Options

	base   context.Context
	cancel context.CancelFunc
}

func New(exec Executor, opts Options) *Handler {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = defaultInitTimeout
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	base, cancel := context.WithCancel(context.Background())

	return &Handler{exec: exec, opts: opts, base: base, cancel: cancel}
}

// Shutdown закрывает все открытые сессии кодом 1001.
// http.Server.Shutdown не ждёт hijacked-соединения, поэтому main вызывает его отдельно.
func (h *Handler) Shutdown() {
	h.cancel()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := reqctx.Logger(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{ProtocolTransportWS, ProtocolLegacyWS},
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		log.Info("ws_accept_failed", slog.String("err", err.Error()))
		return
	}
	conn.SetReadLimit(maxMessageBytes)

	proto := protocolFor(conn.Subprotocol())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stop := context.AfterFunc(h.base, func() {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	})
	defer stop()

	h.opts.Metrics.WSSessionOpened(proto.name)
	defer h.opts.Metrics.WSSessionClosed(proto.name)

	log.Info("ws_session_started", slog.String("protocol", proto.name))

	// Заголовок уже проверен мидлваром аутентификации; токен храним для перепроверки.
	token, _ := middleware.BearerToken(r.Header.Get("Authorization"))

	s := newSession(ctx, cancel, h, conn, proto, reqctx.Identity(r.Context()), token)
	s.run()

	log.Info("ws_session_finished", slog.String("protocol", proto.name))
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
)

// maxBodyBytes ограничивает размер тела GraphQL-запроса.
const maxBodyBytes = 1 << 20

// Executor исполняет query/mutation.
type Executor interface {
	Do(ctx context.Context, req graph.Request) *graphql.Result
}

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	exec Executor
	// ws обслуживает GET /graphql с Upgrade: websocket; может быть nil.
	ws http.Handler
}

func New(exec Executor, ws http.Handler) *Handlers {
	return &Handlers{exec: exec, ws: ws}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

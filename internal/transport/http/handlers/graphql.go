package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
	apierrors "github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/errors"
)

const (
	msgSubscriptionOverHTTP = "subscriptions are only available over websocket"
	msgMutationOverGET      = "mutations must be sent with POST"
	msgMissingQuery         = "query is required"
)

// GraphQLPost обслуживает POST /graphql: {query, variables, operationName} -> результат.
func (h *Handlers) GraphQLPost(w http.ResponseWriter, r *http.Request) {
	var req graph.Request

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("decode graphql request: %w", apierrors.ErrInvalidArgument))
		return
	}

	h.execute(w, r, req, false)
}

// GraphQLGet обслуживает GET /graphql: апгрейд до WebSocket либо query из параметров URL.
func (h *Handlers) GraphQLGet(w http.ResponseWriter, r *http.Request) {
	if h.ws != nil && isWebSocketUpgrade(r) {
		h.ws.ServeHTTP(w, r)
		return
	}

	q := r.URL.Query()
	req := graph.Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}

	if raw := q.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			apierrors.WriteError(w, r, fmt.Errorf("decode variables: %w", apierrors.ErrInvalidArgument))
			return
		}
	}

	h.execute(w, r, req, true)
}

func (h *Handlers) execute(w http.ResponseWriter, r *http.Request, req graph.Request, readOnly bool) {
	if strings.TrimSpace(req.Query) == "" {
		writeGraphQLError(w, msgMissingQuery)
		return
	}

	// Ошибки разбора вернёт сам graphql.Do в поле errors.
	switch opType, _ := graph.OperationType(req); {
	case opType == graph.OperationSubscription:
		writeGraphQLError(w, msgSubscriptionOverHTTP)
		return
	case readOnly && opType == graph.OperationMutation:
		writeGraphQLError(w, msgMutationOverGET)
		return
	}

	res := h.exec.Do(r.Context(), req)

	if err := r.Context().Err(); err != nil && len(res.Errors) > 0 {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func writeGraphQLError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, &graphql.Result{
		Errors: []gqlerrors.FormattedError{{Message: msg}},
	})
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		headerContainsToken(r.Header.Get("Connection"), "upgrade")
}

func headerContainsToken(v, token string) bool {
	for _, part := range strings.Split(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

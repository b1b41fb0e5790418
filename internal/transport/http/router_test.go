package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/service"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/handlers"
)

type fakeAuth struct{}

func (fakeAuth) Authenticate(_ context.Context, token string) (*models.Identity, error) {
	if token == "good" {
		return &models.Identity{UserID: 1, Username: "alice"}, nil
	}
	return nil, service.ErrTokenRevoked
}

// recordingExec запоминает личность и наличие дедлайна у последнего запроса.
type recordingExec struct {
	identity    *models.Identity
	hasDeadline bool
}

func (e *recordingExec) Do(ctx context.Context, _ graph.Request) *graphql.Result {
	e.identity = reqctx.Identity(ctx)
	_, e.hasDeadline = ctx.Deadline()
	return &graphql.Result{Data: map[string]any{"ok": true}}
}

type recordingWS struct {
	called      bool
	hasDeadline bool
}

func (h *recordingWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	_, h.hasDeadline = r.Context().Deadline()
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func newRouter(exec *recordingExec, ws *recordingWS) http.Handler {
	return NewRouter(handlers.New(exec, ws), Options{Auth: fakeAuth{}, Timeout: time.Second})
}

func postQuery(path, auth string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"query":"{ users { id } }"}`))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func TestRouter_PostGraphQL_WithAndWithoutTrailingSlash(t *testing.T) {
	for _, path := range []string{"/graphql", "/graphql/"} {
		exec := &recordingExec{}
		rr := httptest.NewRecorder()
		newRouter(exec, &recordingWS{}).ServeHTTP(rr, postQuery(path, ""))

		require.Equal(t, http.StatusOK, rr.Code, path)
		require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
		require.Nil(t, exec.identity)
		require.True(t, exec.hasDeadline)
	}
}

func TestRouter_BearerIdentityReachesResolvers(t *testing.T) {
	exec := &recordingExec{}
	rr := httptest.NewRecorder()
	newRouter(exec, &recordingWS{}).ServeHTTP(rr, postQuery("/graphql", "bearer good"))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "alice", exec.identity.Username)
}

func TestRouter_RevokedTokenIs401Envelope(t *testing.T) {
	exec := &recordingExec{}
	rr := httptest.NewRecorder()
	newRouter(exec, &recordingWS{}).ServeHTTP(rr, postQuery("/graphql", "Bearer stale"))

	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "unauthenticated", body.Error.Code)
	require.Equal(t, "Please log in again", body.Error.Message)
	require.NotEmpty(t, body.Error.RequestID)
	require.Nil(t, exec.identity)
}

func TestRouter_UpgradeGoesToWebSocketWithoutDeadline(t *testing.T) {
	ws := &recordingWS{}
	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "keep-alive, Upgrade")

	rr := httptest.NewRecorder()
	newRouter(&recordingExec{}, ws).ServeHTTP(rr, req)

	require.True(t, ws.called)
	require.False(t, ws.hasDeadline)
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(&recordingExec{}, &recordingWS{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

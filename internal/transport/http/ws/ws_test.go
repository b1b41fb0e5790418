package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/credentials"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pubsub"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/service"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage/sqlite"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/middleware"
)

// Сквозные тесты: httptest-сервер с ws.Handler поверх настоящей схемы,
// сервиса и SQLite-хранилища; клиент — websocket.Dial с нужным подпротоколом.

type env struct {
	srv *httptest.Server
	h   *Handler
	svc *service.Service
	bus *pubsub.Bus
}

func newEnv(t *testing.T, opts Options) env {
	t.Helper()

	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	bus := pubsub.New(pubsub.Options{})
	t.Cleanup(bus.Close)

	creds := credentials.New(credentials.Config{Secret: "ws-secret", BcryptCost: 4})
	svc := service.New(st, creds, bus, service.Options{CountInterval: 5 * time.Millisecond})

	exec, err := graph.New(svc, graph.Options{})
	require.NoError(t, err)

	opts.Auth = svc
	h := New(exec, opts)

	srv := httptest.NewServer(middleware.Authenticate(svc, nil)(h))
	t.Cleanup(srv.Close)
	t.Cleanup(h.Shutdown)

	return env{srv: srv, h: h, svc: svc, bus: bus}
}

// login регистрирует пользователя и возвращает его токен.
func (e env) login(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()

	_, err := e.svc.CreateUser(ctx, username, username+"@example.com", "pw")
	require.NoError(t, err)

	token, err := e.svc.Login(ctx, username, "pw")
	require.NoError(t, err)
	return token
}

func (e env) dial(t *testing.T, proto string, header http.Header) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := &websocket.DialOptions{HTTPHeader: header}
	if proto != "" {
		opts.Subprotocols = []string{proto}
	}

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(e.srv.URL, "http"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func send(t *testing.T, c *websocket.Conn, msg message) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c, msg))
}

func subscribe(t *testing.T, c *websocket.Conn, typ, id, query string) {
	t.Helper()

	payload, err := json.Marshal(graph.Request{Query: query})
	require.NoError(t, err)
	send(t, c, message{ID: id, Type: typ, Payload: payload})
}

// recv читает следующее сообщение, пропуская keep-alive.
func recv(t *testing.T, c *websocket.Conn) message {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		var msg message
		require.NoError(t, wsjson.Read(ctx, c, &msg))
		if msg.Type != msgKeepAlive {
			return msg
		}
	}
}

func expectClose(t *testing.T, c *websocket.Conn, code websocket.StatusCode) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		_, _, err := c.Read(ctx)
		if err != nil {
			require.Equal(t, code, websocket.CloseStatus(err), "err: %v", err)
			return
		}
	}
}

func initConn(t *testing.T, c *websocket.Conn, payload string) {
	t.Helper()

	msg := message{Type: msgConnectionInit}
	if payload != "" {
		msg.Payload = json.RawMessage(payload)
	}
	send(t, c, msg)
	require.Equal(t, msgConnectionAck, recv(t, c).Type)
}

func data(t *testing.T, msg message) map[string]any {
	t.Helper()

	var res struct {
		Data   map[string]any `json:"data"`
		Errors []any          `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &res))
	require.Empty(t, res.Errors)
	return res.Data
}

func TestTransportWS_Count(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolTransportWS, nil)
	require.Equal(t, ProtocolTransportWS, c.Subprotocol())

	initConn(t, c, "")
	subscribe(t, c, "subscribe", "1", `subscription { count(limit: 3) }`)

	for want := 1; want <= 3; want++ {
		msg := recv(t, c)
		require.Equal(t, "next", msg.Type)
		require.Equal(t, "1", msg.ID)
		require.EqualValues(t, want, data(t, msg)["count"])
	}

	msg := recv(t, c)
	require.Equal(t, msgComplete, msg.Type)
	require.Equal(t, "1", msg.ID)
}

func TestTransportWS_NoSubprotocolDefaultsToTransportWS(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, "", nil)

	initConn(t, c, "")
	send(t, c, message{Type: msgPing})
	require.Equal(t, msgPong, recv(t, c).Type)
}

func TestTransportWS_NewPost_TwoSubscribers(t *testing.T) {
	e := newEnv(t, Options{})
	token := e.login(t, "alice")

	const q = `subscription { newPost { title user { username } } }`
	a := e.dial(t, ProtocolTransportWS, nil)
	b := e.dial(t, ProtocolTransportWS, nil)
	for _, c := range []*websocket.Conn{a, b} {
		initConn(t, c, "")
		subscribe(t, c, "subscribe", "p", q)
	}
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 2 }, 2*time.Second, 5*time.Millisecond)

	id, err := e.svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	_, err = e.svc.CreatePost(reqctx.WithIdentity(context.Background(), id), "hello", "world")
	require.NoError(t, err)

	for _, c := range []*websocket.Conn{a, b} {
		msg := recv(t, c)
		require.Equal(t, "next", msg.Type)

		post := data(t, msg)["newPost"].(map[string]any)
		require.Equal(t, "hello", post["title"])
		require.Equal(t, "alice", post["user"].(map[string]any)["username"])
	}
}

func TestTransportWS_ClientCompleteStopsSubscription(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolTransportWS, nil)

	initConn(t, c, "")
	subscribe(t, c, "subscribe", "s", `subscription { newPost { id } }`)
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 1 }, 2*time.Second, 5*time.Millisecond)

	send(t, c, message{ID: "s", Type: msgComplete})
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 0 }, 2*time.Second, 5*time.Millisecond)

	// id снова свободен.
	subscribe(t, c, "subscribe", "s", `subscription { count(limit: 1) }`)
	msg := recv(t, c)
	require.Equal(t, "next", msg.Type)
	require.Equal(t, "s", msg.ID)
}

func TestTransportWS_QueryAndMutationOverSocket(t *testing.T) {
	e := newEnv(t, Options{})
	token := e.login(t, "bob")
	c := e.dial(t, ProtocolTransportWS, nil)

	initConn(t, c, `{"Authorization":"Bearer `+token+`"}`)

	subscribe(t, c, "subscribe", "m", `mutation { createPost(title: "t", body: "b") { status post { user { username } } } }`)
	msg := recv(t, c)
	require.Equal(t, "next", msg.Type)
	payload := data(t, msg)["createPost"].(map[string]any)
	require.Equal(t, "SUCCESSFUL", payload["status"])
	require.Equal(t, msgComplete, recv(t, c).Type)

	subscribe(t, c, "subscribe", "q", `{ posts { title } }`)
	msg = recv(t, c)
	require.Equal(t, "next", msg.Type)
	require.Len(t, data(t, msg)["posts"], 1)
	require.Equal(t, msgComplete, recv(t, c).Type)
}

func TestTransportWS_IdentityFromUpgradeHeader(t *testing.T) {
	e := newEnv(t, Options{})
	token := e.login(t, "carol")

	c := e.dial(t, ProtocolTransportWS, http.Header{"Authorization": []string{"Bearer " + token}})
	initConn(t, c, "")

	subscribe(t, c, "subscribe", "m", `mutation { createPost(title: "t", body: "b") { status } }`)
	require.Equal(t, "SUCCESSFUL", data(t, recv(t, c))["createPost"].(map[string]any)["status"])
}

func TestTransportWS_LogoutRevokesOpenSession(t *testing.T) {
	tests := []struct {
		name   string
		header bool
	}{
		{name: "init_payload"},
		{name: "upgrade_header", header: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, Options{})
			token := e.login(t, "dora")

			var c *websocket.Conn
			if tc.header {
				c = e.dial(t, ProtocolTransportWS, http.Header{"Authorization": []string{"Bearer " + token}})
				initConn(t, c, "")
			} else {
				c = e.dial(t, ProtocolTransportWS, nil)
				initConn(t, c, `{"Authorization":"Bearer `+token+`"}`)
			}

			subscribe(t, c, "subscribe", "1", `mutation { createPost(title: "t", body: "b") { status } }`)
			require.Equal(t, "SUCCESSFUL", data(t, recv(t, c))["createPost"].(map[string]any)["status"])
			require.Equal(t, msgComplete, recv(t, c).Type)

			id, err := e.svc.Authenticate(context.Background(), token)
			require.NoError(t, err)
			require.NoError(t, e.svc.Logout(reqctx.WithIdentity(context.Background(), id)))

			subscribe(t, c, "subscribe", "2", `mutation { createPost(title: "t", body: "b") { status } }`)
			expectClose(t, c, closeForbidden)
		})
	}
}

func TestTransportWS_AnonymousMutationIsAuthError(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolTransportWS, nil)
	initConn(t, c, "")

	subscribe(t, c, "subscribe", "m", `mutation { createPost(title: "t", body: "b") { status } }`)
	require.Equal(t, "AUTHERROR", data(t, recv(t, c))["createPost"].(map[string]any)["status"])
}

func TestTransportWS_InvalidQueryIsError(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolTransportWS, nil)
	initConn(t, c, "")

	subscribe(t, c, "subscribe", "x", `subscription { nope }`)
	msg := recv(t, c)
	require.Equal(t, msgError, msg.Type)
	require.Equal(t, "x", msg.ID)

	var errs []map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &errs))
	require.NotEmpty(t, errs)

	// после error complete не приходит, соединение живо.
	send(t, c, message{Type: msgPing})
	require.Equal(t, msgPong, recv(t, c).Type)
}

func TestTransportWS_InitWithBadTokenIsForbidden(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolTransportWS, nil)

	send(t, c, message{Type: msgConnectionInit, Payload: json.RawMessage(`{"Authorization":"Bearer garbage"}`)})
	expectClose(t, c, closeForbidden)
}

func TestTransportWS_ProtocolViolations(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, c *websocket.Conn)
		code websocket.StatusCode
	}{
		{
			name: "subscribe_before_init",
			run: func(t *testing.T, c *websocket.Conn) {
				subscribe(t, c, "subscribe", "1", `subscription { count(limit: 1) }`)
			},
			code: closeUnauthorized,
		},
		{
			name: "duplicate_init",
			run: func(t *testing.T, c *websocket.Conn) {
				initConn(t, c, "")
				send(t, c, message{Type: msgConnectionInit})
			},
			code: closeTooManyInits,
		},
		{
			name: "duplicate_id",
			run: func(t *testing.T, c *websocket.Conn) {
				initConn(t, c, "")
				subscribe(t, c, "subscribe", "1", `subscription { newPost { id } }`)
				subscribe(t, c, "subscribe", "1", `subscription { newPost { id } }`)
			},
			code: closeDuplicateID,
		},
		{
			name: "invalid_json",
			run: func(t *testing.T, c *websocket.Conn) {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{not json")))
			},
			code: closeBadRequest,
		},
		{
			name: "unknown_type",
			run: func(t *testing.T, c *websocket.Conn) {
				send(t, c, message{Type: "bogus"})
			},
			code: closeBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, Options{})
			c := e.dial(t, ProtocolTransportWS, nil)

			tc.run(t, c)
			expectClose(t, c, tc.code)
		})
	}
}

func TestTransportWS_InitTimeout(t *testing.T) {
	e := newEnv(t, Options{InitTimeout: 50 * time.Millisecond})
	c := e.dial(t, ProtocolTransportWS, nil)

	expectClose(t, c, closeInitTimeout)
}

func TestLegacyWS_StartDataStop(t *testing.T) {
	e := newEnv(t, Options{KeepAlive: 10 * time.Millisecond})
	c := e.dial(t, ProtocolLegacyWS, nil)
	require.Equal(t, ProtocolLegacyWS, c.Subprotocol())

	initConn(t, c, "")
	subscribe(t, c, "start", "1", `subscription { count(limit: 2) }`)

	for want := 1; want <= 2; want++ {
		msg := recv(t, c)
		require.Equal(t, "data", msg.Type)
		require.EqualValues(t, want, data(t, msg)["count"])
	}
	require.Equal(t, msgComplete, recv(t, c).Type)

	subscribe(t, c, "start", "2", `subscription { newPost { id } }`)
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 1 }, 2*time.Second, 5*time.Millisecond)
	send(t, c, message{ID: "2", Type: "stop"})
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 0 }, 2*time.Second, 5*time.Millisecond)

	send(t, c, message{Type: msgConnectionTerminate})
	expectClose(t, c, websocket.StatusNormalClosure)
}

func TestLegacyWS_ErrorPayloadIsObject(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolLegacyWS, nil)
	initConn(t, c, "")

	subscribe(t, c, "start", "1", `subscription { nope }`)
	msg := recv(t, c)
	require.Equal(t, msgError, msg.Type)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &obj))
	require.NotEmpty(t, obj["message"])
}

func TestShutdown_ClosesSessions(t *testing.T) {
	e := newEnv(t, Options{})
	c := e.dial(t, ProtocolTransportWS, nil)
	initConn(t, c, "")
	subscribe(t, c, "subscribe", "s", `subscription { newPost { id } }`)
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 1 }, 2*time.Second, 5*time.Millisecond)

	e.h.Shutdown()

	expectClose(t, c, websocket.StatusGoingAway)
	require.Eventually(t, func() bool { return e.bus.Subscribers(pubsub.EventNewPost) == 0 }, 2*time.Second, 5*time.Millisecond)
}

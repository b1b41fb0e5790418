package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/middleware"
)

var (
	// errClosed — сессия завершена сервером (код закрытия уже отправлен).
	errClosed     = errors.New("session closed")
	errBadMessage = errors.New("bad message")
)

// operation — запущенная операция; указатель служит токеном владения записью в ops.
type operation struct {
	cancel context.CancelFunc
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	h      *Handler
	conn   *websocket.Conn
	proto  protocol
	log    *slog.Logger

	mu       sync.Mutex
	identity *models.Identity
	// token — Bearer-токен сессии; перепроверяется перед каждой операцией.
	token string
	inited   bool
	acked    bool
	ops      map[string]*operation

	wg sync.WaitGroup
}

func newSession(ctx context.Context, cancel context.CancelFunc, h *Handler, conn *websocket.Conn, proto protocol, id *models.Identity, token string) *session {
	return &session{
		ctx:      ctx,
		cancel:   cancel,
		h:        h,
		conn:     conn,
		proto:    proto,
		log:      reqctx.Logger(ctx),
		identity: id,
		token:    token,
		ops:      make(map[string]*operation),
	}
}

func (s *session) run() {
	initTimer := time.AfterFunc(s.h.opts.InitTimeout, func() {
		s.mu.Lock()
		acked := s.acked
		s.mu.Unlock()

		if !acked {
			s.close(closeInitTimeout, "Connection initialisation timeout")
		}
	})
	defer initTimer.Stop()

	for {
		msg, err := s.read()
		if err != nil {
			if errors.Is(err, errBadMessage) {
				s.close(closeBadRequest, "Invalid message received")
			}
			break
		}

		if err := s.handle(msg); err != nil {
			break
		}
	}

	s.cancel()
	s.wg.Wait()
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *session) read() (message, error) {
	mt, data, err := s.conn.Read(s.ctx)
	if err != nil {
		return message{}, err
	}
	if mt != websocket.MessageText {
		return message{}, errBadMessage
	}

	var msg message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return message{}, errBadMessage
	}

	return msg, nil
}

func (s *session) handle(msg message) error {
	switch msg.Type {
	case msgConnectionInit:
		return s.onInit(msg)

	case msgPing:
		return s.write(message{Type: msgPong, Payload: msg.Payload})

	case msgPong:
		return nil

	case msgConnectionTerminate:
		return errClosed

	case s.proto.start:
		return s.onStart(msg)

	case s.proto.stop:
		s.stopOperation(msg.ID)
		return nil

	default:
		s.close(closeBadRequest, fmt.Sprintf("Invalid message type %q", msg.Type))
		return errClosed
	}
}

func (s *session) onInit(msg message) error {
	s.mu.Lock()
	if s.inited {
		s.mu.Unlock()
		s.close(closeTooManyInits, "Too many initialisation requests")
		return errClosed
	}
	s.inited = true
	s.mu.Unlock()

	if token, ok := initToken(msg.Payload); ok {
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()

		if err := s.authenticate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.acked = true
	s.mu.Unlock()

	if err := s.write(message{Type: msgConnectionAck}); err != nil {
		return err
	}

	if s.proto.keepAlive {
		if err := s.write(message{Type: msgKeepAlive}); err != nil {
			return err
		}
		s.wg.Add(1)
		go s.keepAlive()
	}

	return nil
}

// authenticate проверяет токен сессии и обновляет identity.
// Без токена (анонимная сессия) ничего не делает; отказ закрывает сокет кодом 4403.
func (s *session) authenticate() error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" || s.h.opts.Auth == nil {
		return nil
	}

	id, err := s.h.opts.Auth.Authenticate(s.ctx, token)
	if err != nil {
		reason := middleware.FailureReason(err)
		s.h.opts.Metrics.AuthFailure(reason)
		s.log.Info("ws_auth_rejected", slog.String("reason", reason))
		s.close(closeForbidden, "Forbidden")
		return errClosed
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()

	return nil
}

// initToken достаёт Bearer-токен из payload connection_init: {"Authorization": "Bearer ..."}.
func initToken(payload json.RawMessage) (string, bool) {
	if len(payload) == 0 {
		return "", false
	}

	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", false
	}

	for _, key := range []string{"Authorization", "authorization"} {
		if v, ok := m[key].(string); ok {
			return middleware.BearerToken(v)
		}
	}

	return "", false
}

func (s *session) keepAlive() {
	defer s.wg.Done()

	t := time.NewTicker(s.h.opts.KeepAlive)
	defer t.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			if err := s.write(message{Type: msgKeepAlive}); err != nil {
				return
			}
		}
	}
}

func (s *session) onStart(msg message) error {
	s.mu.Lock()
	acked := s.acked
	s.mu.Unlock()

	if !acked {
		s.close(closeUnauthorized, "Unauthorized")
		return errClosed
	}

	if msg.ID == "" {
		s.close(closeBadRequest, "Operation id is required")
		return errClosed
	}

	var req graph.Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		s.close(closeBadRequest, "Invalid subscribe payload")
		return errClosed
	}

	// После logout старый токен сессии не должен исполнять операции.
	if err := s.authenticate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.ops[msg.ID]; exists {
		s.mu.Unlock()
		s.close(closeDuplicateID, fmt.Sprintf("Subscriber for %s already exists", msg.ID))
		return errClosed
	}

	opCtx, cancel := context.WithCancel(reqctx.WithIdentity(s.ctx, s.identity))
	op := &operation{cancel: cancel}
	s.ops[msg.ID] = op
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(opCtx, msg.ID, op, req)

	return nil
}

// execute исполняет операцию и шлёт результаты. По завершении (если клиент
// не остановил операцию сам) отправляет complete.
func (s *session) execute(ctx context.Context, id string, op *operation, req graph.Request) {
	defer s.wg.Done()

	failed := false
	opType, _ := graph.OperationType(req)

	if opType != graph.OperationSubscription {
		failed = s.sendResult(ctx, id, s.h.exec.Do(ctx, req))
	} else {
		s.log.Debug("ws_subscribe", slog.String("id", id), slog.String("operation_name", req.OperationName))

		first := true
		// Канал нужно вычитать до конца, даже после отмены.
		for res := range s.h.exec.Subscribe(ctx, req) {
			if ctx.Err() != nil || failed {
				continue
			}
			if s.sendResultOrError(ctx, id, res, first) {
				failed = true
				op.cancel()
			}
			first = false
		}
	}

	if !s.release(id, op) {
		return
	}
	op.cancel()

	if !failed {
		_ = s.write(message{ID: id, Type: msgComplete})
	}
}

// sendResult: результат без data с ошибками уходит как error; возвращает true в этом случае.
func (s *session) sendResult(ctx context.Context, id string, res *graphql.Result) bool {
	return s.sendResultOrError(ctx, id, res, true)
}

func (s *session) sendResultOrError(ctx context.Context, id string, res *graphql.Result, first bool) bool {
	if ctx.Err() != nil {
		return false
	}

	if first && res.Data == nil && len(res.Errors) > 0 {
		_ = s.write(message{ID: id, Type: msgError, Payload: s.errorPayload(res.Errors)})
		return true
	}

	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Error("ws_marshal_failed", slog.String("err", err.Error()))
		return false
	}

	_ = s.write(message{ID: id, Type: s.proto.data, Payload: payload})
	return false
}

// errorPayload: graphql-transport-ws ждёт массив ошибок, legacy — объект {message}.
func (s *session) errorPayload(errs []gqlerrors.FormattedError) json.RawMessage {
	var v any = errs
	if s.proto.name == ProtocolLegacyWS {
		v = map[string]string{"message": errs[0].Message}
	}

	b, _ := json.Marshal(v)
	return b
}

// stopOperation — клиент остановил операцию; complete в ответ не шлётся.
func (s *session) stopOperation(id string) {
	s.mu.Lock()
	op, ok := s.ops[id]
	if ok {
		delete(s.ops, id)
	}
	s.mu.Unlock()

	if ok {
		op.cancel()
	}
}

// release удаляет запись операции, если она всё ещё принадлежит op.
func (s *session) release(id string, op *operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ops[id] != op {
		return false
	}
	delete(s.ops, id)
	return true
}

func (s *session) write(msg message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.h.opts.WriteTimeout)
	defer cancel()

	return s.conn.Write(ctx, websocket.MessageText, b)
}

func (s *session) close(code websocket.StatusCode, reason string) {
	s.log.Info("ws_close", slog.Int("code", int(code)), slog.String("reason", reason))
	_ = s.conn.Close(code, reason)
}

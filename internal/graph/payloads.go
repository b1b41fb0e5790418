package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/service"
)

// Тексты ошибок в payload, которые видит клиент.
const (
	msgUsernameTaken = "User name is already in use"
	msgLoginFailed   = "unable to log in"
	msgPleaseLogIn   = "Please log in"
	msgNoPostOwner   = "unable to create post, user does not exist"
	msgInternal      = "internal server error"
)

// payload — общий результат мутации: status, error и полезное значение
// (user, post или token в зависимости от типа).
type payload struct {
	Status Status
	Error  string
	Value  any
}

func success(v any) *payload {
	return &payload{Status: StatusSuccessful, Value: v}
}

func failed(msg string) *payload {
	return &payload{Status: StatusFailed, Error: msg}
}

func authError(msg string) *payload {
	return &payload{Status: StatusAuthError, Error: msg}
}

// validationMessage возвращает текст ошибки валидации, если err её содержит.
func validationMessage(err error) (string, bool) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Error(), true
	}
	return "", false
}

// internalError логирует исходную ошибку и возвращает клиенту обезличенную.
func (e *Executor) internalError(ctx context.Context, op string, err error) error {
	reqctx.Logger(ctx).Error("graphql_resolver_failed",
		slog.String("op", op),
		slog.String("err", err.Error()),
	)

	if e.debug {
		return errors.New(msgInternal + ": " + err.Error())
	}

	return errors.New(msgInternal)
}

func createUserPayload(err error) (*payload, bool) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return failed(msgUsernameTaken), true
	case errors.Is(err, service.ErrInvalidInput):
		msg, _ := validationMessage(err)
		return failed(msg), true
	}
	return nil, false
}

func loginPayload(err error) (*payload, bool) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		return failed(msgLoginFailed), true
	}
	return nil, false
}

func createPostPayload(err error) (*payload, bool) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return authError(msgPleaseLogIn), true
	case errors.Is(err, service.ErrUserNotFound):
		return failed(msgNoPostOwner), true
	case errors.Is(err, service.ErrInvalidInput):
		msg, _ := validationMessage(err)
		return failed(msg), true
	}
	return nil, false
}

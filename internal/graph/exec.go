package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pkg/reqctx"
)

// Типы операций GraphQL.
const (
	OperationQuery        = ast.OperationTypeQuery
	OperationMutation     = ast.OperationTypeMutation
	OperationSubscription = ast.OperationTypeSubscription
)

var (
	errNoOperation        = errors.New("operation not found in document")
	errAmbiguousOperation = errors.New("operationName is required for documents with several operations")
)

// Request — тело GraphQL-запроса (HTTP POST и payload сообщения subscribe).
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// OperationType разбирает документ и возвращает тип выбранной операции.
func OperationType(req Request) (string, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return "", err
	}

	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		opDef, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}

		if req.OperationName == "" {
			if found != nil {
				return "", errAmbiguousOperation
			}
			found = opDef
			continue
		}

		if opDef.Name != nil && opDef.Name.Value == req.OperationName {
			found = opDef
			break
		}
	}

	if found == nil {
		return "", errNoOperation
	}

	return found.Operation, nil
}

// Do исполняет query или mutation.
func (e *Executor) Do(ctx context.Context, req Request) *graphql.Result {
	opType, _ := OperationType(req)
	start := time.Now()

	res := graphql.Do(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	e.observe(ctx, opType, req, start, res)

	if e.debug {
		attachTracing(res, start, time.Now())
	}

	return res
}

// attachTracing кладёт в extensions тайминги запроса в формате Apollo Tracing
// (без разбивки по резолверам).
func attachTracing(res *graphql.Result, start, end time.Time) {
	if res.Extensions == nil {
		res.Extensions = make(map[string]interface{})
	}

	res.Extensions["tracing"] = map[string]any{
		"version":   1,
		"startTime": start.UTC().Format(time.RFC3339Nano),
		"endTime":   end.UTC().Format(time.RFC3339Nano),
		"duration":  end.Sub(start).Nanoseconds(),
	}
}

// Subscribe запускает подписку. Канал результатов закрывается, когда поток
// событий завершён или ctx отменён; читатель обязан вычитать его до конца.
func (e *Executor) Subscribe(ctx context.Context, req Request) <-chan *graphql.Result {
	if e.debug {
		reqctx.Logger(ctx).Debug("graphql_subscribe",
			slog.String("operation_name", req.OperationName),
			slog.String("query", req.Query),
		)
	}

	return graphql.Subscribe(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func (e *Executor) observe(ctx context.Context, opType string, req Request, start time.Time, res *graphql.Result) {
	if opType == "" {
		opType = "invalid"
	}
	elapsed := time.Since(start)
	e.metrics.ObserveGraphQL(opType, elapsed)

	if !e.debug {
		return
	}

	reqctx.Logger(ctx).Debug("graphql_executed",
		slog.String("operation", opType),
		slog.String("operation_name", req.OperationName),
		slog.String("query", req.Query),
		slog.Int("errors", len(res.Errors)),
		slog.Duration("elapsed", elapsed),
	)
}

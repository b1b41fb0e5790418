// graph описывает GraphQL-схему posts-сервиса (graphql-go, code-first)
// и исполняет запросы, мутации и подписки поверх service.Service.
//
// Бизнес-ошибки мутаций возвращаются данными (payload со status/error);
// инфраструктурные — GraphQL-ошибкой "internal server error".
package graph

import (
	"context"
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/metrics"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
)

// Service — операции бизнес-слоя, которые нужны резолверам.
type Service interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	CreatePost(ctx context.Context, title, body string) (*models.Post, error)
	Users(ctx context.Context) ([]*models.User, error)
	Posts(ctx context.Context) ([]*models.Post, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	NewPosts(ctx context.Context) <-chan *models.Post
	Count(ctx context.Context, limit int) <-chan int
}

type Options struct {
	// Debug добавляет текст исходной ошибки к "internal server error".
	Debug   bool
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Executor держит собранную схему и исполняет операции.
type Executor struct {
	schema  graphql.Schema
	svc     Service
	debug   bool
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New собирает схему поверх svc.
func New(svc Service, opts Options) (*Executor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Executor{
		svc:     svc,
		debug:   opts.Debug,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}

	schema, err := e.buildSchema()
	if err != nil {
		return nil, err
	}
	e.schema = schema

	return e, nil
}

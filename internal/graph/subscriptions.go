package graph

import (
	"github.com/graphql-go/graphql"
)

// graphql-go ожидает от Subscribe канал chan interface{}; каждое значение
// становится p.Source для Resolve поля подписки.

func (e *Executor) subscribeNewPost(p graphql.ResolveParams) (any, error) {
	posts := e.svc.NewPosts(p.Context)
	out := make(chan any)

	go func() {
		defer close(out)

		for post := range posts {
			select {
			case out <- post:
			case <-p.Context.Done():
				return
			}
		}
	}()

	return out, nil
}

func (e *Executor) subscribeCount(p graphql.ResolveParams) (any, error) {
	limit, _ := p.Args["limit"].(int)
	values := e.svc.Count(p.Context, limit)
	out := make(chan any)

	go func() {
		defer close(out)

		for v := range values {
			select {
			case out <- v:
			case <-p.Context.Done():
				return
			}
		}
	}()

	return out, nil
}

func resolveEvent(p graphql.ResolveParams) (any, error) {
	return p.Source, nil
}

package graph

import (
	"errors"
	"strconv"

	"github.com/graphql-go/graphql"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/models"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/service"
)

var errUnexpectedSource = errors.New("unexpected source type")

func userSource(p graphql.ResolveParams) (*models.User, error) {
	u, ok := p.Source.(*models.User)
	if !ok || u == nil {
		return nil, errUnexpectedSource
	}
	return u, nil
}

func postSource(p graphql.ResolveParams) (*models.Post, error) {
	post, ok := p.Source.(*models.Post)
	if !ok || post == nil {
		return nil, errUnexpectedSource
	}
	return post, nil
}

func payloadSource(p graphql.ResolveParams) (*payload, error) {
	pl, ok := p.Source.(*payload)
	if !ok || pl == nil {
		return nil, errUnexpectedSource
	}
	return pl, nil
}

// User

func resolveUserID(p graphql.ResolveParams) (any, error) {
	u, err := userSource(p)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(u.ID, 10), nil
}

func resolveUserUsername(p graphql.ResolveParams) (any, error) {
	u, err := userSource(p)
	if err != nil {
		return nil, err
	}
	return u.Username, nil
}

func resolveUserEmail(p graphql.ResolveParams) (any, error) {
	u, err := userSource(p)
	if err != nil {
		return nil, err
	}
	return u.Email, nil
}

// Post

func resolvePostID(p graphql.ResolveParams) (any, error) {
	post, err := postSource(p)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(post.ID, 10), nil
}

func resolvePostTitle(p graphql.ResolveParams) (any, error) {
	post, err := postSource(p)
	if err != nil {
		return nil, err
	}
	return post.Title, nil
}

func resolvePostBody(p graphql.ResolveParams) (any, error) {
	post, err := postSource(p)
	if err != nil {
		return nil, err
	}
	return post.Body, nil
}

// resolvePostUser отдаёт уже загруженного владельца или читает его по user_id.
func (e *Executor) resolvePostUser(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolvePostUser"

	post, err := postSource(p)
	if err != nil {
		return nil, err
	}
	if post.User != nil {
		return post.User, nil
	}

	user, err := e.svc.UserByID(p.Context, post.UserID)
	if err != nil {
		return nil, e.internalError(p.Context, op, err)
	}

	return user, nil
}

// Payload

func resolvePayloadStatus(p graphql.ResolveParams) (any, error) {
	pl, err := payloadSource(p)
	if err != nil {
		return nil, err
	}
	return string(pl.Status), nil
}

func resolvePayloadError(p graphql.ResolveParams) (any, error) {
	pl, err := payloadSource(p)
	if err != nil {
		return nil, err
	}
	if pl.Error == "" {
		return nil, nil
	}
	return pl.Error, nil
}

func resolvePayloadValue(p graphql.ResolveParams) (any, error) {
	pl, err := payloadSource(p)
	if err != nil {
		return nil, err
	}
	return pl.Value, nil
}

// Query

func (e *Executor) resolveUsers(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolveUsers"

	users, err := e.svc.Users(p.Context)
	if err != nil {
		return nil, e.internalError(p.Context, op, err)
	}
	return users, nil
}

func (e *Executor) resolvePosts(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolvePosts"

	posts, err := e.svc.Posts(p.Context)
	if err != nil {
		return nil, e.internalError(p.Context, op, err)
	}
	return posts, nil
}

// Mutation

func (e *Executor) resolveCreateUser(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolveCreateUser"

	username, _ := p.Args["username"].(string)
	email, _ := p.Args["email"].(string)
	password, _ := p.Args["password"].(string)

	user, err := e.svc.CreateUser(p.Context, username, email, password)
	if err != nil {
		if pl, ok := createUserPayload(err); ok {
			return pl, nil
		}
		return nil, e.internalError(p.Context, op, err)
	}

	return success(user), nil
}

func (e *Executor) resolveCreatePost(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolveCreatePost"

	title, _ := p.Args["title"].(string)
	body, _ := p.Args["body"].(string)

	post, err := e.svc.CreatePost(p.Context, title, body)
	if err != nil {
		if pl, ok := createPostPayload(err); ok {
			return pl, nil
		}
		return nil, e.internalError(p.Context, op, err)
	}

	return success(post), nil
}

func (e *Executor) resolveLogin(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolveLogin"

	username, _ := p.Args["username"].(string)
	password, _ := p.Args["password"].(string)

	token, err := e.svc.Login(p.Context, username, password)
	if err != nil {
		if pl, ok := loginPayload(err); ok {
			return pl, nil
		}
		return nil, e.internalError(p.Context, op, err)
	}

	return success(token), nil
}

// resolveLogout: анонимный запрос или исчезнувший пользователь -> false.
func (e *Executor) resolveLogout(p graphql.ResolveParams) (any, error) {
	const op = "graph.resolvers.resolveLogout"

	err := e.svc.Logout(p.Context)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrUserNotFound):
		return false, nil
	default:
		return nil, e.internalError(p.Context, op, err)
	}
}

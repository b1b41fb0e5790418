package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"
)

// Status — результат мутации.
type Status string

const (
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
	StatusAuthError  Status = "AUTHERROR"
)

var statusEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "Status",
	Values: graphql.EnumValueConfigMap{
		string(StatusSuccessful): &graphql.EnumValueConfig{Value: string(StatusSuccessful)},
		string(StatusFailed):     &graphql.EnumValueConfig{Value: string(StatusFailed)},
		string(StatusAuthError):  &graphql.EnumValueConfig{Value: string(StatusAuthError)},
	},
})

func (e *Executor) buildSchema() (graphql.Schema, error) {
	const op = "graph.schema.buildSchema"

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: resolveUserID},
			"username": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolveUserUsername},
			"email":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolveUserEmail},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: resolvePostID},
			"title": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolvePostTitle},
			"body":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: resolvePostBody},
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType), Resolve: e.resolvePostUser},
		},
	})

	createUserPayload := payloadType("CreateUserPayload", "user", userType)
	createPostPayload := payloadType("CreatePostPayload", "post", postType)
	loginPayload := payloadType("LoginPayload", "token", graphql.String)

	nonNullString := graphql.NewNonNull(graphql.String)

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"users": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: e.resolveUsers,
			},
			"posts": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
				Resolve: e.resolvePosts,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type: graphql.NewNonNull(createUserPayload),
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: nonNullString},
					"email":    &graphql.ArgumentConfig{Type: nonNullString},
					"password": &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: e.resolveCreateUser,
			},
			"createPost": &graphql.Field{
				Type: graphql.NewNonNull(createPostPayload),
				Args: graphql.FieldConfigArgument{
					"title": &graphql.ArgumentConfig{Type: nonNullString},
					"body":  &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: e.resolveCreatePost,
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(loginPayload),
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: nonNullString},
					"password": &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: e.resolveLogin,
			},
			"logout": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: e.resolveLogout,
			},
		},
	})

	subscription := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"newPost": &graphql.Field{
				Type:      graphql.NewNonNull(postType),
				Subscribe: e.subscribeNewPost,
				Resolve:   resolveEvent,
			},
			"count": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Subscribe: e.subscribeCount,
				Resolve:   resolveEvent,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:        query,
		Mutation:     mutation,
		Subscription: subscription,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("%s: %w", op, err)
	}

	return schema, nil
}

// payloadType строит тип {status: Status!, error: String, <field>: <fieldType>}.
func payloadType(name, field string, fieldType graphql.Output) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"status": &graphql.Field{Type: graphql.NewNonNull(statusEnum), Resolve: resolvePayloadStatus},
			"error":  &graphql.Field{Type: graphql.String, Resolve: resolvePayloadError},
			field:    &graphql.Field{Type: fieldType, Resolve: resolvePayloadValue},
		},
	})
}

package graph

import (
	"time"

	"bitwise74/blog-api/model"
	"bitwise74/blog-api/pubsub"

	"github.com/graphql-go/graphql"
)

// NewSchema builds the executable schema around a resolver. Field
// resolvers close over r, the schema carries no state of its own
func NewSchema(r *Resolver) (graphql.Schema, error) {
	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"_id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Post).ID.Hex(), nil
				},
			},
			"title": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Post).Title, nil
				},
			},
			"content": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Post).Content, nil
				},
			},
			"imageUrl": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Post).ImageURL, nil
				},
			},
			"createdAt": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Post).CreatedAt.Format(time.RFC3339), nil
				},
			},
			"updatedAt": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.Post).UpdatedAt.Format(time.RFC3339), nil
				},
			},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"_id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.User).ID.Hex(), nil
				},
			},
			"email": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.User).Email, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.User).Name, nil
				},
			},
			"password": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.User).PasswordHash, nil
				},
			},
			"status": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*model.User).Status, nil
				},
			},
		},
	})

	postType.AddFieldConfig("creator", &graphql.Field{
		Type: graphql.NewNonNull(userType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return r.resolveCreator(p.Context, p.Source.(*model.Post))
		},
	})

	userType.AddFieldConfig("posts", &graphql.Field{
		Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return r.resolveOwnedPosts(p.Context, p.Source.(*model.User))
		},
	})

	authDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthData",
		Fields: graphql.Fields{
			"token":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PostData",
		Fields: graphql.Fields{
			"posts":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType)))},
			"totalPosts": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	userInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserInputData",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"name":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postInputType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostInputData",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"imageFile": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(uploadScalar)},
		},
	})

	postUpdateType := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostUpdateData",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			// Leaving the file out keeps the stored image
			"imageFile": &graphql.InputObjectFieldConfig{Type: uploadScalar},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authDataType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.Login(p.Context, strArg(p.Args, "email"), strArg(p.Args, "password"))
				},
			},
			"posts": &graphql.Field{
				Type: graphql.NewNonNull(postDataType),
				Args: graphql.FieldConfigArgument{
					"page": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					page, _ := p.Args["page"].(int)
					return r.PostsPage(p.Context, page)
				},
			},
			"post": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.Post(p.Context, strArg(p.Args, "id"))
				},
			},
			"user": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.User(p.Context)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"userInput": &graphql.ArgumentConfig{Type: userInputType},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := objArg(p.Args, "userInput")
					return r.CreateUser(p.Context, UserInput{
						Email:    strArg(in, "email"),
						Name:     strArg(in, "name"),
						Password: strArg(in, "password"),
					})
				},
			},
			"createPost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"postInput": &graphql.ArgumentConfig{Type: postInputType},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := objArg(p.Args, "postInput")
					return r.CreatePost(p.Context, PostInput{
						Title:   strArg(in, "title"),
						Content: strArg(in, "content"),
						Image:   uploadArg(in, "imageFile"),
					})
				},
			},
			"updatePost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"postInput": &graphql.ArgumentConfig{Type: postUpdateType},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := objArg(p.Args, "postInput")
					return r.UpdatePost(p.Context, strArg(p.Args, "id"), PostInput{
						Title:   strArg(in, "title"),
						Content: strArg(in, "content"),
						Image:   uploadArg(in, "imageFile"),
					})
				},
			},
			"deletePost": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.DeletePost(p.Context, strArg(p.Args, "id"))
				},
			},
			"updateStatus": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"status": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.UpdateStatus(p.Context, strArg(p.Args, "status"))
				},
			},
		},
	})

	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"postCreated": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
				Subscribe: r.subscribeTopic(pubsub.PostCreated),
			},
			"postUpdated": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
				Subscribe: r.subscribeTopic(pubsub.PostUpdated),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})
}

// subscribeTopic bridges a bus subscription into the lazy event stream
// the execution engine consumes. The bridge goroutine exits when the
// client disconnects or the bus shuts down
func (r *Resolver) subscribeTopic(topic pubsub.Topic) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		events, cancel := r.Bus.Subscribe(topic)
		out := make(chan interface{})

		go func() {
			defer cancel()
			defer close(out)

			for {
				select {
				case <-p.Context.Done():
					return
				case post, ok := <-events:
					if !ok {
						return
					}

					select {
					case out <- post:
					case <-p.Context.Done():
						return
					}
				}
			}
		}()

		return out, nil
	}
}

func strArg(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func objArg(m map[string]interface{}, key string) map[string]interface{} {
	o, _ := m[key].(map[string]interface{})
	return o
}

func uploadArg(m map[string]interface{}, key string) *Upload {
	u, _ := m[key].(*Upload)
	return u
}

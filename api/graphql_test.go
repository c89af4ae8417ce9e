package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitwise74/blog-api/graph"
	"bitwise74/blog-api/middleware"
	"bitwise74/blog-api/model"
	"bitwise74/blog-api/pubsub"
	"bitwise74/blog-api/security"
	"bitwise74/blog-api/store/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type discardImages struct{}

func (discardImages) Save(_ context.Context, r io.Reader, originalName string) (string, error) {
	io.Copy(io.Discard, r)
	return "stored-" + originalName, nil
}

func (discardImages) Delete(context.Context, string) {}

type testAPI struct {
	api   *API
	users *mocks.UserStore
	posts *mocks.PostStore
	codec *security.TokenCodec
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ta := &testAPI{
		users: new(mocks.UserStore),
		posts: new(mocks.PostStore),
		codec: security.NewTokenCodec("test-secret"),
	}

	bus := pubsub.New()
	t.Cleanup(bus.Close)

	resolver := &graph.Resolver{
		Users:  ta.users,
		Posts:  ta.posts,
		Hash:   &security.PasswordHash{Cost: 4},
		Tokens: ta.codec,
		Images: discardImages{},
		Bus:    bus,
	}

	schema, err := graph.NewSchema(resolver)
	require.NoError(t, err)

	ta.api = &API{
		Schema:   schema,
		Resolver: resolver,
		Bus:      bus,
		Images:   resolver.Images,
	}

	router := gin.New()
	router.Use(
		middleware.NewRequestIDMiddleware(),
		middleware.NewAuthMiddleware(ta.codec),
	)
	router.POST("/graphql", ta.api.GraphQL)
	router.GET("/graphql", ta.api.Subscriptions)
	ta.api.Router = router

	return ta
}

func (ta *testAPI) do(t *testing.T, body io.Reader, contentType, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/graphql", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ta.api.Router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestGraphQLMalformedBody(t *testing.T) {
	ta := newTestAPI(t)

	w, out := ta.do(t, strings.NewReader("{not json"), "application/json", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", out["error"])
	assert.NotEmpty(t, out["requestID"])
}

func TestGraphQLLoginQuery(t *testing.T) {
	ta := newTestAPI(t)

	hash, err := (&security.PasswordHash{Cost: 4}).GenerateFromPassword("swordfish")
	require.NoError(t, err)

	user := &model.User{ID: primitive.NewObjectID(), Email: "a@b.c", PasswordHash: hash}
	ta.users.On("GetByEmail", mock.Anything, "a@b.c").Return(user, nil)

	body, _ := json.Marshal(gqlRequest{
		Query: `{ login(email: "a@b.c", password: "swordfish") { token userId } }`,
	})

	w, out := ta.do(t, bytes.NewReader(body), "application/json", "")
	assert.Equal(t, http.StatusOK, w.Code)

	login := out["data"].(map[string]interface{})["login"].(map[string]interface{})
	assert.Equal(t, user.ID.Hex(), login["userId"])
	assert.NotEmpty(t, login["token"])
}

func TestGraphQLErrorsCarryExtensions(t *testing.T) {
	ta := newTestAPI(t)

	// Operation failures still come back as HTTP 200, the error plus its
	// code travel inside the GraphQL envelope
	body, _ := json.Marshal(gqlRequest{
		Query: `{ posts { totalPosts } }`,
	})

	w, out := ta.do(t, bytes.NewReader(body), "application/json", "")
	assert.Equal(t, http.StatusOK, w.Code)

	errs := out["errors"].([]interface{})
	require.NotEmpty(t, errs)

	first := errs[0].(map[string]interface{})
	assert.Equal(t, "Not authenticated!", first["message"])

	ext := first["extensions"].(map[string]interface{})
	assert.EqualValues(t, 401, ext["code"])
}

func TestGraphQLValidationErrorsCarryData(t *testing.T) {
	ta := newTestAPI(t)

	body, _ := json.Marshal(gqlRequest{
		Query: `mutation($userInput: UserInputData) { createUser(userInput: $userInput) { _id } }`,
		Variables: map[string]interface{}{
			"userInput": map[string]interface{}{
				"email":    "bad",
				"name":     "someone",
				"password": "ab",
			},
		},
	})

	_, out := ta.do(t, bytes.NewReader(body), "application/json", "")

	errs := out["errors"].([]interface{})
	require.NotEmpty(t, errs)

	ext := errs[0].(map[string]interface{})["extensions"].(map[string]interface{})
	assert.EqualValues(t, 422, ext["code"])

	data := ext["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "E-Mail is invalid.", data[0].(map[string]interface{})["message"])
	assert.Equal(t, "Password too short!", data[1].(map[string]interface{})["message"])
}

func TestGraphQLMultipartCreatePost(t *testing.T) {
	ta := newTestAPI(t)

	owner := &model.User{ID: primitive.NewObjectID(), Email: "a@b.c"}
	ta.users.On("GetByID", mock.Anything, owner.ID).Return(owner, nil)
	ta.users.On("AppendPost", mock.Anything, owner.ID, mock.Anything).Return(nil)
	ta.posts.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Post).ID = primitive.NewObjectID()
	}).Return(nil)

	token, err := ta.codec.Issue(owner.ID.Hex(), owner.Email)
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	operations, _ := json.Marshal(gqlRequest{
		Query: `mutation($postInput: PostInputData) { createPost(postInput: $postInput) { _id title imageUrl } }`,
		Variables: map[string]interface{}{
			"postInput": map[string]interface{}{
				"title":     "First post",
				"content":   "Hello from the blog",
				"imageFile": nil,
			},
		},
	})
	require.NoError(t, mw.WriteField("operations", string(operations)))
	require.NoError(t, mw.WriteField("map", `{"0": ["variables.postInput.imageFile"]}`))

	part, err := mw.CreateFormFile("0", "cat.png")
	require.NoError(t, err)
	part.Write([]byte("png bytes"))
	require.NoError(t, mw.Close())

	w, out := ta.do(t, &buf, mw.FormDataContentType(), token)
	assert.Equal(t, http.StatusOK, w.Code)

	require.Nil(t, out["errors"])
	created := out["data"].(map[string]interface{})["createPost"].(map[string]interface{})
	assert.Equal(t, "First post", created["title"])
	assert.Equal(t, "stored-cat.png", created["imageUrl"])

	ta.posts.AssertExpectations(t)
	ta.users.AssertExpectations(t)
}

func TestParseMultipartTracksFileHandles(t *testing.T) {
	ta := newTestAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	operations, _ := json.Marshal(gqlRequest{
		Query: `mutation($postInput: PostInputData) { createPost(postInput: $postInput) { _id } }`,
		Variables: map[string]interface{}{
			"postInput": map[string]interface{}{"imageFile": nil},
		},
	})
	require.NoError(t, mw.WriteField("operations", string(operations)))
	require.NoError(t, mw.WriteField("map", `{"0": ["variables.postInput.imageFile"]}`))

	part, err := mw.CreateFormFile("0", "cat.png")
	require.NoError(t, err)
	part.Write([]byte("png bytes"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/graphql", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	req, files, err := ta.api.parseMultipart(c)
	require.NoError(t, err)

	// One handle per file part, handed back for the caller to release
	require.Len(t, files, 1)
	for _, f := range files {
		assert.NoError(t, f.Close())
	}

	upload, ok := req.Variables["postInput"].(map[string]interface{})["imageFile"].(*graph.Upload)
	require.True(t, ok)
	assert.Equal(t, "cat.png", upload.Filename)
	assert.EqualValues(t, 9, upload.Size)
}

func TestSetVariable(t *testing.T) {
	upload := &graph.Upload{Filename: "cat.png"}

	vars := map[string]interface{}{
		"postInput": map[string]interface{}{"imageFile": nil},
	}
	setVariable(vars, "variables.postInput.imageFile", upload)
	assert.Same(t, upload, vars["postInput"].(map[string]interface{})["imageFile"])

	// Top level plant
	vars = map[string]interface{}{"file": nil}
	setVariable(vars, "variables.file", upload)
	assert.Same(t, upload, vars["file"])

	// Paths outside the variables root are ignored
	vars = map[string]interface{}{}
	setVariable(vars, "query.file", upload)
	assert.Empty(t, vars)

	// Missing intermediate objects are ignored too
	vars = map[string]interface{}{}
	setVariable(vars, "variables.missing.imageFile", upload)
	assert.Empty(t, vars)
}

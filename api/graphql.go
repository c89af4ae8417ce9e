package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bitwise74/blog-api/graph"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"
)

type gqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQL executes a query or mutation. Servers should return 200 even
// for failed operations, errors travel inside the GraphQL envelope
func (a *API) GraphQL(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var req gqlRequest
	var err error

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var files []io.Closer
		req, files, err = a.parseMultipart(c)

		// Handles may be disk-backed, release them once the operation
		// has consumed what it needs
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()
	} else {
		err = c.ShouldBindJSON(&req)
	}

	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't parse GraphQL request", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         a.Schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        c.Request.Context(),
	})

	c.JSON(http.StatusOK, result)
}

// parseMultipart implements the GraphQL multipart request spec: an
// "operations" JSON field, a "map" field pointing file form parts at
// variable paths, and one form part per file. The returned closers are
// the opened file handles, the caller owns their lifetime
func (a *API) parseMultipart(c *gin.Context) (gqlRequest, []io.Closer, error) {
	var req gqlRequest
	var files []io.Closer

	if err := json.Unmarshal([]byte(c.PostForm("operations")), &req); err != nil {
		return req, files, err
	}

	var fileMap map[string][]string
	if err := json.Unmarshal([]byte(c.PostForm("map")), &fileMap); err != nil {
		return req, files, err
	}

	for part, paths := range fileMap {
		fh, err := c.FormFile(part)
		if err != nil {
			return req, files, err
		}

		f, err := fh.Open()
		if err != nil {
			return req, files, err
		}
		files = append(files, f)

		upload := &graph.Upload{
			File:     f,
			Filename: fh.Filename,
			Size:     fh.Size,
		}

		for _, path := range paths {
			setVariable(req.Variables, path, upload)
		}
	}

	return req, files, nil
}

// setVariable walks a dotted path like "variables.postInput.imageFile"
// and plants the value at its end. Unknown paths are ignored, schema
// validation rejects the operation later
func setVariable(vars map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "variables" {
		return
	}

	cur := vars
	for _, p := range parts[1 : len(parts)-1] {
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			return
		}
		cur = next
	}

	if cur != nil {
		cur[parts[len(parts)-1]] = value
	}
}

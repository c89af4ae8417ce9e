package graph

import (
	"io"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Upload is the runtime value behind the Upload scalar. The transport
// layer injects it into the variables of a multipart request; it never
// appears inline in a query document
type Upload struct {
	File     io.Reader
	Filename string
	Size     int64
}

var uploadScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Upload",
	Description: "A file attached through a multipart request.",
	// Uploads only travel client -> server through variables, so the
	// value is passed through untouched and literals are rejected
	Serialize: func(v interface{}) interface{} {
		return nil
	},
	ParseValue: func(v interface{}) interface{} {
		return v
	},
	ParseLiteral: func(v ast.Value) interface{} {
		return nil
	},
})

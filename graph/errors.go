// Package graph contains the GraphQL schema and its resolvers
package graph

import "net/http"

// FieldError is one entry of the batched validation data attached to a
// 422 response
type FieldError struct {
	Message string `json:"message"`
}

// RequestError is the error type every resolver fails with. The code
// and validation data travel in the GraphQL error extensions next to
// the standard envelope. Anything else that escapes a resolver is
// reported as a plain 500
type RequestError struct {
	Message string
	Code    int
	Data    []FieldError
}

func (e *RequestError) Error() string {
	return e.Message
}

// Extensions implements gqlerrors.ExtendedError
func (e *RequestError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code": e.Code,
	}

	if len(e.Data) > 0 {
		ext["data"] = e.Data
	}

	return ext
}

func errUnauthorized(msg string) *RequestError {
	return &RequestError{Message: msg, Code: http.StatusUnauthorized}
}

func errForbidden(msg string) *RequestError {
	return &RequestError{Message: msg, Code: http.StatusForbidden}
}

func errNotFound(msg string) *RequestError {
	return &RequestError{Message: msg, Code: http.StatusNotFound}
}

func errConflict(msg string) *RequestError {
	return &RequestError{Message: msg, Code: http.StatusConflict}
}

func errValidation(data []FieldError) *RequestError {
	return &RequestError{Message: "Invalid input.", Code: http.StatusUnprocessableEntity, Data: data}
}

func errInternal() *RequestError {
	return &RequestError{Message: "Internal server error", Code: http.StatusInternalServerError}
}

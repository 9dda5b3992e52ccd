// Package http exposes the persistence API for net worth calculations.
//
// This file implements the builder used by every handler to write JSON
// responses with a consistent shape.
package http

import (
	"encoding/json"
	"net/http"

	"networth/internal/core"
)

// Response messages shared with clients.
const (
	MsgInvalidData    = "Invalid data"
	MsgNotFound       = "Net worth calculation not found"
	MsgInternalError  = "Internal server error"
	MsgRateLimited    = "Too many requests"
	MsgRouteNotFound  = "Not found"
	MsgMethodNotAllow = "Method not allowed"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Message string                `json:"message"`
	Errors  core.ValidationErrors `json:"errors,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header sets a custom header on the response.
func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write writes the response. A nil body is encoded as null.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse builds an error envelope with the given status.
func ErrorResponse(status int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(status).Body(ErrorBody{Message: message})
}

// ValidationErrorResponse builds the 400 envelope listing every violation.
func ValidationErrorResponse(errs core.ValidationErrors) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusBadRequest).
		Body(ErrorBody{Message: MsgInvalidData, Errors: errs})
}

// NotFoundError is the 404 for an unknown calculation id.
func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, MsgNotFound)
}

// InternalError is the generic 500.
func InternalError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, MsgInternalError)
}

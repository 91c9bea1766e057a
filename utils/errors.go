package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Application error codes carried in the response envelope.
const (
	CodeValidation   = 42200
	CodeUnauthorized = 40100
	CodeForbidden    = 40300
	CodeNotFound     = 40400
	CodeStorage      = 50010
	CodeUnexpected   = 50000
)

// HTTPError is an error that knows how it should be rendered to clients.
type HTTPError struct {
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// ValidationError reports missing or invalid input.
func ValidationError(message string) *HTTPError {
	return &HTTPError{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Message: message}
}

// Unauthorized reports a missing, invalid or revoked credential.
func Unauthorized(message string) *HTTPError {
	return &HTTPError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

// Forbidden reports an authenticated caller acting on something it does not own.
func Forbidden(message string) *HTTPError {
	return &HTTPError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// NotFound reports a missing record or route.
func NotFound(message string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// StorageError reports a failed filesystem operation on uploads.
func StorageError(err error) *HTTPError {
	return &HTTPError{Status: http.StatusInternalServerError, Code: CodeStorage, Message: "File storage failed.", Err: err}
}

// Unexpected wraps any other failure.
func Unexpected(err error) *HTTPError {
	return &HTTPError{Status: http.StatusInternalServerError, Code: CodeUnexpected, Message: "Something went wrong.", Err: err}
}

// Fail forwards err to the error middleware and stops the handler chain.
func Fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}

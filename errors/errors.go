// Package errors provides an API for errors across the application.
package errors

import (
	"fmt"
	"net/http"
)

// RequestError carries the HTTP status an error should be reported with.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// BadRequest wraps a formatted message as a 400 RequestError.
func BadRequest(format string, a ...interface{}) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, a...)}
}

// NotFound wraps a formatted message as a 404 RequestError.
func NotFound(format string, a ...interface{}) *RequestError {
	return &RequestError{StatusCode: http.StatusNotFound, Err: fmt.Errorf(format, a...)}
}

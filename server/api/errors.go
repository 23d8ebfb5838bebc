package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a structured API error response
type Error struct {
	cause    error  // kept for logs
	message  string // safe to show to clients
	httpCode int
}

// HTTPCode returns the HTTP status code for this error
func (e *Error) HTTPCode() int { return e.httpCode }

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.cause }

// Cause returns the original error for logging purposes
func (e *Error) Cause() error { return e.cause }

// MarshalJSON renders {"code": ..., "message": ...}
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{e.httpCode, e.message})
}

// BadRequest exposes the cause: 4xx errors describe the client's own input
func BadRequest(cause error) *Error {
	return &Error{cause: cause, message: cause.Error(), httpCode: http.StatusBadRequest}
}

// ServiceUnavailable reports data that is not ready yet, such as a leaderboard before its first tick
func ServiceUnavailable(cause error) *Error {
	return &Error{cause: cause, message: cause.Error(), httpCode: http.StatusServiceUnavailable}
}

// InternalServerError never exposes the cause
func InternalServerError(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  http.StatusText(http.StatusInternalServerError),
		httpCode: http.StatusInternalServerError,
	}
}

// Wrap turns any error into an API error. API errors pass through unchanged,
// store timeouts become 503 and everything else 500.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			cause:    err,
			message:  http.StatusText(http.StatusServiceUnavailable),
			httpCode: http.StatusServiceUnavailable,
		}
	}

	return InternalServerError(err)
}

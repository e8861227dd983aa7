package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so every layer agrees on how to react to them.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindNotFound          ErrorKind = "not_found"
	KindTransientIO       ErrorKind = "transient_io"
	KindInternal          ErrorKind = "internal"
)

// Known reports whether k is one of the kinds above.
func (k ErrorKind) Known() bool {
	switch k {
	case KindValidation, KindUnauthorized, KindInvalidTransition, KindNotFound, KindTransientIO, KindInternal:
		return true
	}
	return false
}

// AppError is the error type surfaced by stores and services.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, err error, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func ValidationError(format string, args ...interface{}) error {
	return newAppError(KindValidation, nil, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newAppError(KindUnauthorized, nil, format, args...)
}

func InvalidTransition(format string, args ...interface{}) error {
	return newAppError(KindInvalidTransition, nil, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newAppError(KindNotFound, nil, format, args...)
}

func TransientIO(err error, format string, args ...interface{}) error {
	return newAppError(KindTransientIO, err, format, args...)
}

func Internal(err error, format string, args ...interface{}) error {
	return newAppError(KindInternal, err, format, args...)
}

// KindOf returns the kind of the first AppError in err's chain, KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind to the response code used by the API.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition:
		return http.StatusConflict
	case KindTransientIO:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindFromStatus is the inverse of HTTPStatus, used by API clients.
func KindFromStatus(code int) ErrorKind {
	switch {
	case code == http.StatusBadRequest:
		return KindValidation
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindUnauthorized
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusConflict:
		return KindInvalidTransition
	case code == http.StatusBadGateway, code == http.StatusServiceUnavailable, code == http.StatusGatewayTimeout:
		return KindTransientIO
	default:
		return KindInternal
	}
}

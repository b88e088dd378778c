// Package apierr defines the closed set of error kinds the service produces.
// Every boundary (store, GitHub client, lifecycle service) translates its
// failures into one of these kinds; the HTTP layer maps kinds to statuses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status mapping and exposure decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindRateLimited
	KindTimeout
	KindUpstream
	KindAuth
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details []any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error kind to a response status. The switch is
// exhaustive over Kind; unknown values fall through to 500.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstream:
		return http.StatusBadGateway
	case KindAuth:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Expose reports whether the message is safe to return to the caller.
// Internal errors keep their detail server-side only.
func (e *Error) Expose() bool {
	return e.Kind != KindInternal
}

func Invalid(code, message string) *Error {
	return &Error{Kind: KindInvalidInput, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func RateLimited(code, message string) *Error {
	return &Error{Kind: KindRateLimited, Code: code, Message: message}
}

func Timeout(code, message string) *Error {
	return &Error{Kind: KindTimeout, Code: code, Message: message}
}

func Upstream(code, message string, details ...any) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: message, Details: details}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

func Internal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: msg}
}

// From returns err as an *Error, wrapping anything uncategorized as internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

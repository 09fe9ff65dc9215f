// Package apperr is the error taxonomy shared by the HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindRateLimited
	KindPaymentRequired
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindPaymentRequired:
		return "payment_required"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// Status is the HTTP status the kind is reported with. Upstream failures
// surface to callers as a plain 500.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-safe Message and an optional wrapped cause that is
// only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func BadRequest(msg string) *Error   { return New(KindBadRequest, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Internal(msg string, err error) *Error {
	return Wrap(KindInternal, msg, err)
}

const (
	MsgUpstreamRateLimited = "Rate limits exceeded, please try again later."
	MsgUpstreamCredits     = "AI credits exhausted. Please add credits and try again."
	MsgUpstreamGateway     = "AI gateway error"
)

// FromUpstreamStatus maps a failed upstream completion status onto the local
// taxonomy: 429 and 402 pass through, everything else is a gateway error.
func FromUpstreamStatus(status int, cause error) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return Wrap(KindRateLimited, MsgUpstreamRateLimited, cause)
	case http.StatusPaymentRequired:
		return Wrap(KindPaymentRequired, MsgUpstreamCredits, cause)
	default:
		return Wrap(KindUpstream, MsgUpstreamGateway, cause)
	}
}

// As extracts an *Error from err. Unknown errors become internal errors
// whose message is the error text.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err.Error(), err)
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

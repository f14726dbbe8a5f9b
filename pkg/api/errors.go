package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies an *Error.
type Kind int

const (
	// KindParse covers malformed request URLs and unparsable response bodies.
	KindParse Kind = iota + 1
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindNotAcceptable
	KindUnprocessableEntity
	KindTooManyRequests
	KindInternalServerError
	KindServiceUnavailable
	// KindTransport is a network or timeout failure surfaced by the transport.
	KindTransport
)

// statusKinds is authoritative: a status missing from it is a success.
var statusKinds = map[int]Kind{
	http.StatusBadRequest:          KindBadRequest,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindForbidden,
	http.StatusNotFound:            KindNotFound,
	http.StatusNotAcceptable:       KindNotAcceptable,
	http.StatusUnprocessableEntity: KindUnprocessableEntity,
	http.StatusTooManyRequests:     KindTooManyRequests,
	http.StatusInternalServerError: KindInternalServerError,
	http.StatusServiceUnavailable:  KindServiceUnavailable,
}

// KindForStatus returns the error kind mapped to code, if any.
func KindForStatus(code int) (Kind, bool) {
	k, ok := statusKinds[code]
	return k, ok
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse_error"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindNotAcceptable:
		return "not_acceptable"
	case KindUnprocessableEntity:
		return "unprocessable_entity"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindInternalServerError:
		return "internal_server_error"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Error is the typed failure of a call.
type Error struct {
	Kind Kind
	// StatusCode is the HTTP status (0 when no response was received).
	StatusCode int
	// Body is the normalized response body, usually an Object.
	Body any
	// Message is the service's human readable detail, when present.
	Message string
	// Err is the underlying cause for parse and transport errors.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("taxjar: %s (HTTP %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("taxjar: %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Fields returns the body as an Object, or nil when the body is not an object.
func (e *Error) Fields() Object {
	if o, ok := e.Body.(Object); ok {
		return o
	}
	return nil
}

func newParseError(status int, msg string, err error) *Error {
	return &Error{Kind: KindParse, StatusCode: status, Message: msg, Err: err}
}

// NewTransportError wraps a network failure. It returns err unchanged when it is
// already an *Error.
func NewTransportError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindTransport, Err: err}
}

// newResponseError builds the error for a mapped status from the normalized body.
func newResponseError(kind Kind, status int, body any) *Error {
	e := &Error{Kind: kind, StatusCode: status, Body: body}
	if fields := e.Fields(); fields != nil {
		e.Message = fields.Text("detail")
		if e.Message == "" {
			e.Message = fields.Text("error")
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func IsParse(err error) bool               { return isKind(err, KindParse) }
func IsBadRequest(err error) bool          { return isKind(err, KindBadRequest) }
func IsUnauthorized(err error) bool        { return isKind(err, KindUnauthorized) }
func IsForbidden(err error) bool           { return isKind(err, KindForbidden) }
func IsNotFound(err error) bool            { return isKind(err, KindNotFound) }
func IsNotAcceptable(err error) bool       { return isKind(err, KindNotAcceptable) }
func IsUnprocessableEntity(err error) bool { return isKind(err, KindUnprocessableEntity) }
func IsTooManyRequests(err error) bool     { return isKind(err, KindTooManyRequests) }
func IsInternalServerError(err error) bool { return isKind(err, KindInternalServerError) }
func IsServiceUnavailable(err error) bool  { return isKind(err, KindServiceUnavailable) }
func IsTransport(err error) bool           { return isKind(err, KindTransport) }

// IsTimeout reports whether err is a transport error caused by a deadline.
func IsTimeout(err error) bool {
	if !IsTransport(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

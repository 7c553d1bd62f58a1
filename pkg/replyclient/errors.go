package replyclient

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a reply request failed. The user sees the same fallback
// text for every kind; the distinction exists for logs and tests.
type Kind string

const (
	KindNone Kind = ""
	// KindTransport: the request never produced an HTTP response (refused, reset, DNS, ...).
	KindTransport Kind = "transport"
	// KindStatus: the service answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindMalformed: 2xx, but the body is not JSON or lacks a string "reply".
	KindMalformed Kind = "malformed"
)

type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("reply service returned status %d", e.StatusCode)
	case KindTransport:
		return fmt.Sprintf("reply service unreachable: %v", e.Err)
	default:
		return fmt.Sprintf("reply service sent a malformed response: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors.Cause walk through.
func (e *Error) Cause() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func IsTransport(err error) bool { return KindOf(err) == KindTransport }
func IsStatus(err error) bool    { return KindOf(err) == KindStatus }
func IsMalformed(err error) bool { return KindOf(err) == KindMalformed }

func transportError(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

func statusError(code int, body string) error {
	var err error
	if body != "" {
		err = errors.New(body)
	}
	return &Error{Kind: KindStatus, StatusCode: code, Err: err}
}

func malformedError(code int, err error) error {
	return &Error{Kind: KindMalformed, StatusCode: code, Err: err}
}

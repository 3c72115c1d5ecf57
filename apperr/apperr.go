package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an error with the failure class callers are allowed to see.
// Translation to transport status codes happens only in the handlers package.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindConflict
	KindUpstream
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_failure"
	case KindValidation:
		return "validation_failure"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind when the target is a bare *Error with no message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return e.Kind == t.Kind
	}
	return e == t
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized(err error) *Error {
	return Wrap(KindUnauthorized, "could not validate credentials", err)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the public message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

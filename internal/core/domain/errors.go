package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures seen while handling a request.
type ErrorKind uint8

// Error kinds. All but KindInternal become an error reply and leave the
// connection open.
const (
	KindMalformed ErrorKind = iota + 1
	KindArity
	KindNilArgument
	KindUnknownCommand
	KindInternal
)

// String returns a short label, used as a metric label value.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindArity:
		return "arity"
	case KindNilArgument:
		return "nil_argument"
	case KindUnknownCommand:
		return "unknown_command"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a request handling error. Message is the exact text sent to the
// client in the error reply.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind and message, so sentinel values
// work with errors.Is even after WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// NewError creates a new Error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Cause: cause}
}

// Reply converts the error to the error reply sent to the client.
func (e *Error) Reply() Reply {
	return ErrorReply(e.Message)
}

// ArityError returns the arity error for a command, e.g.
// "ERR GET command requires a key argument".
func ArityError(command, requirement string) *Error {
	return NewError(KindArity, "ERR "+command+" command requires "+requirement)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *Error {
	return ErrInternal.WithCause(cause)
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsInternal reports whether err must close the connection.
func IsInternal(err error) bool {
	return KindOf(err) == KindInternal
}

var (
	// ErrMalformedRequest is returned for anything that is not an array of
	// bulk strings (or nulls) with a non-null command name.
	ErrMalformedRequest = NewError(KindMalformed, "ERR Client request must be an array of bulk strings")

	// ErrNilKey rejects a null key argument.
	ErrNilKey = NewError(KindNilArgument, "ERR A nil key is not allowed")

	// ErrNilValue rejects a null value argument.
	ErrNilValue = NewError(KindNilArgument, "ERR A nil value is not allowed")

	// ErrUnsupportedCommand rejects a command missing from the dispatch table.
	ErrUnsupportedCommand = NewError(KindUnknownCommand, "ERR Unsupported command")

	// ErrInternal marks an unexpected failure while handling a request.
	ErrInternal = NewError(KindInternal, "ERR internal error")
)

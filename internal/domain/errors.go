package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable error category surfaced to callers.
type ErrorKind string

const (
	KindValidation       ErrorKind = "ValidationError"
	KindNotFound         ErrorKind = "NotFound"
	KindConflict         ErrorKind = "Conflict"
	KindForbidden        ErrorKind = "Forbidden"
	KindState            ErrorKind = "StateError"
	KindGateway          ErrorKind = "GatewayError"
	KindInvalidSignature ErrorKind = "InvalidSignature"
	KindDependency       ErrorKind = "DependencyError"
)

type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// E builds a taxonomy error with a caller-facing message.
func E(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Ew wraps an underlying cause. The cause is kept for logs and unwrapping,
// never rendered to end users.
func Ew(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf reports the taxonomy kind of err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err belongs to the given category.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

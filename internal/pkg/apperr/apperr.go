package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies a failed operation. Services return these; handlers map
// them to transport status codes and never invent their own.
type Kind int

const (
	Unauthenticated Kind = iota
	Forbidden
	NotFound
	Validation
	Conflict
	Internal
)

// Error carries a kind plus a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches an underlying cause (typically a storage error) to an Internal error.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// KindOf extracts the kind from err, defaulting to Internal for anything
// that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// StatusCode maps err to an HTTP status for the boundary layer.
func StatusCode(err error) int {
	switch KindOf(err) {
	case Unauthenticated:
		return fiber.StatusUnauthorized
	case Forbidden:
		return fiber.StatusForbidden
	case NotFound:
		return fiber.StatusNotFound
	case Validation:
		return fiber.StatusBadRequest
	case Conflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that render it to a transport.
type Kind int

const (
	// KindInternal is any failure not covered by the other kinds (storage
	// errors, encoding failures). Its details are never shown to clients.
	KindInternal Kind = iota

	// KindNotFound means an entity or a referenced entity is absent.
	KindNotFound

	// KindAlreadyExists is a uniqueness violation on a client-supplied id or username.
	KindAlreadyExists

	// KindUnauthorized is a missing, invalid or expired credential.
	KindUnauthorized

	// KindForbidden is a valid principal without the required role.
	KindForbidden

	// KindInvalidInput is a malformed field.
	KindInvalidInput

	// KindDisabled is an existing but disabled account. It is logged as such
	// and surfaced to clients exactly like KindUnauthorized.
	KindDisabled
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindUnauthorized:
		return "unauthorised"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindDisabled:
		return "disabled"
	default:
		return "internal_error"
	}
}

// Error is a classified error with a client-safe message.
type Error struct {
	Kind Kind
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// Is reports whether target is the bare sentinel for e's kind. Specific
// sentinels (with a message) only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

// Kind sentinels. Match with errors.Is.
var (
	ErrInternal      = &Error{Kind: KindInternal}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists}
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrForbidden     = &Error{Kind: KindForbidden}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
	ErrDisabled      = &Error{Kind: KindDisabled}
)

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// NotFound returns a KindNotFound error with a formatted message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Invalid returns a KindInvalidInput error with a formatted message.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// genericUnauthorized is the only message clients see for any
// authentication failure.
const genericUnauthorized = "username or password is incorrect"

// Public returns the kind and message that may be shown to a client.
// Disabled collapses into Unauthorized, every authentication failure gets
// the same message, and internal errors lose their details.
func Public(err error) (Kind, string) {
	var e *Error
	if !errors.As(err, &e) {
		return KindInternal, "internal server error"
	}
	switch e.Kind {
	case KindUnauthorized, KindDisabled:
		return KindUnauthorized, genericUnauthorized
	case KindInternal:
		return KindInternal, "internal server error"
	default:
		return e.Kind, e.Error()
	}
}

package demand

import (
	"errors"
	"log/slog"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("not permitted")
	ErrNotFound     = errors.New("demand not found")
	ErrInvalidState = errors.New("invalid state")
	ErrInternal     = errors.New("internal error")
)

// Error is returned by every Service operation.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationErr(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

func forbiddenErr(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

func notFoundErr() error { return &Error{Kind: ErrNotFound} }

func invalidStateErr(msg string) error { return &Error{Kind: ErrInvalidState, Msg: msg} }

// internalErr logs cause and hides it from the caller's message.
func internalErr(op string, cause error) error {
	slog.Error("demand operation failed", "op", op, "error", cause)
	return &Error{Kind: ErrInternal, Err: cause}
}

package commands

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindBackend is a failure of an external service. The user sees the
	// generic error text.
	KindBackend ErrorKind = iota
	KindInvalidInput
	KindInvalidSelection
	KindDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidSelection:
		return "invalid_selection"
	case KindDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Error is what handlers return so the router can answer uniformly.
type Error struct {
	Kind ErrorKind
	Err  error
	// Usage is the text shown for KindInvalidInput.
	Usage string
	// PlaceholderID is the message to overwrite with the error text, if any.
	PlaceholderID int
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func BackendError(err error, placeholderID int) *Error {
	return &Error{Kind: KindBackend, Err: err, PlaceholderID: placeholderID}
}

func InvalidInput(usage string) *Error {
	return &Error{Kind: KindInvalidInput, Usage: usage}
}

func InvalidSelection(err error) *Error {
	return &Error{Kind: KindInvalidSelection, Err: err}
}

func Denied() *Error {
	return &Error{Kind: KindDenied}
}

// AsError classifies err. Errors that are not *Error count as backend failures.
func AsError(err error) *Error {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	return BackendError(err, 0)
}

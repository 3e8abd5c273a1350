// Package errs defines the error taxonomy shared by the domain services.
// Handlers map each kind onto an HTTP status; services construct errors
// with the helpers here and never import net/http.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindUnknown is any error not produced by this package.
	KindUnknown Kind = iota
	// KindValidation rejects malformed input before any mutation.
	KindValidation
	// KindPrecondition signals that prior workflow steps are incomplete.
	KindPrecondition
	// KindNotFound signals an unknown patient, encounter or examination.
	KindNotFound
	// KindAuthorization signals a submission the user may not make.
	KindAuthorization
	// KindTransient signals a retryable persistence failure.
	KindTransient
)

// Error is a classified domain error. MissingStep is set only for
// precondition errors so callers can redirect the user to that step.
type Error struct {
	Kind        Kind
	MissingStep string
	msg         string
	wrapped     error
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.wrapped }

// KindOf returns the kind of err, unwrapping as needed.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// MissingStep returns the missing step recorded on a precondition
// error, or "" for any other error.
func MissingStep(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.MissingStep
	}
	return ""
}

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func Authorizationf(format string, args ...interface{}) error {
	return &Error{Kind: KindAuthorization, msg: fmt.Sprintf(format, args...)}
}

// Precondition reports that step is the first incomplete step blocking
// the requested action.
func Precondition(step string) error {
	return &Error{
		Kind:        KindPrecondition,
		MissingStep: step,
		msg:         fmt.Sprintf("step %q must be completed first", step),
	}
}

// Transient wraps a retryable persistence failure.
func Transient(err error) error {
	return &Error{Kind: KindTransient, msg: err.Error(), wrapped: err}
}

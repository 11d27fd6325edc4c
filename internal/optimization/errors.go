package optimization

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateDirection is reported when a step has no defined direction
	// or size: zero gradient magnitude, zero derivative or a zero denominator.
	ErrDegenerateDirection = errors.New("degenerate step direction")
	// ErrDimensionMismatch is reported when vector lengths disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyVector is reported for a zero-length variable vector.
	ErrEmptyVector = errors.New("empty variable vector")
	// ErrInvalidSpread is reported for a non-positive or non-finite finite-difference step.
	ErrInvalidSpread = errors.New("invalid finite-difference spread")
	// ErrInvalidSettings is reported when stopping settings fail validation.
	ErrInvalidSettings = errors.New("invalid solver settings")
	// ErrInvalidProblem is reported when problem constants fail validation.
	ErrInvalidProblem = errors.New("invalid problem")
	// ErrNilFunction is reported when a required function is missing.
	ErrNilFunction = errors.New("nil function")
)

// Error represents a solver error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, msg)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewErrorf creates a new solver error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsInputError reports whether err was caused by malformed input rather than
// by the numerical process itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrEmptyVector) ||
		errors.Is(err, ErrInvalidSpread) ||
		errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrInvalidProblem) ||
		errors.Is(err, ErrNilFunction)
}

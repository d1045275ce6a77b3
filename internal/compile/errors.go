package compile

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes construction failures.
type ErrorCode string

const (
	// ErrCodeInvalidRule indicates a rule without an RHS, a missing name,
	// or an LHS variable with no binding source.
	ErrCodeInvalidRule ErrorCode = "INVALID_RULE"

	// ErrCodeInvalidAccumulator indicates an accumulator in a position
	// whose bindings cannot be resolved.
	ErrCodeInvalidAccumulator ErrorCode = "INVALID_ACCUMULATOR"
)

// Error is a network-construction failure with structured context.
type Error struct {
	Code       ErrorCode
	Production string
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Production != "" {
		return fmt.Sprintf("%s: %s (production=%s)", e.Code, e.Message, e.Production)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidRule reports whether err is an invalid-rule construction error.
func IsInvalidRule(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeInvalidRule
}

// IsInvalidAccumulator reports whether err is an invalid-accumulator
// construction error.
func IsInvalidAccumulator(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeInvalidAccumulator
}

func invalidRule(production, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidRule, Production: production, Message: fmt.Sprintf(format, args...)}
}

func invalidAccumulator(production, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidAccumulator, Production: production, Message: fmt.Sprintf(format, args...)}
}

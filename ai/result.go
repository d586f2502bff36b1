package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReply is returned when the oracle produced no choices.
	ErrEmptyReply = errors.New("oracle returned no reply")

	// ErrMalformedReply is returned when a reply could not be decoded.
	ErrMalformedReply = errors.New("malformed oracle reply")
)

// OracleError records which oracle-backed operation failed.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// Result is the outcome of an oracle-backed call that never fails hard.
// When Err is set, Value holds the call site's documented fallback.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fallback wraps err as an OracleError for op and carries the fallback value.
func Fallback[T any](op string, fallback T, err error) Result[T] {
	var oe *OracleError
	if !errors.As(err, &oe) {
		err = &OracleError{Op: op, Err: err}
	}
	return Result[T]{Value: fallback, Err: err}
}

// Degraded reports whether Value is a fallback.
func (r Result[T]) Degraded() bool {
	return r.Err != nil
}

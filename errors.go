package signaling

import (
	"fmt"
)

var (
	// ErrClientClosed is returned by Connect after the client has been closed.
	ErrClientClosed = NewInvalidStateError("signal client is closed")
)

// InvalidStateError is produced when calling a method in an invalid state.
type InvalidStateError struct {
	message string
}

func NewInvalidStateError(format string, args ...interface{}) error {
	return InvalidStateError{
		message: fmt.Sprintf(format, args...),
	}
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("InvalidStateError:%s", e.message)
}

// ConnectionValidationError means the validate endpoint was reachable but
// rejected the connection. Reason carries the server-provided diagnostic body.
type ConnectionValidationError struct {
	Status int
	Reason string
}

func (e *ConnectionValidationError) Error() string {
	return fmt.Sprintf("could not connect, status: %d, %s", e.Status, e.Reason)
}

// ConnectionUnreachableError means neither the signaling transport nor the
// validate endpoint could be reached. It wraps the original dial error.
type ConnectionUnreachableError struct {
	cause error
}

func (e *ConnectionUnreachableError) Error() string {
	return fmt.Sprintf("could not reach signaling server: %v", e.cause)
}

func (e *ConnectionUnreachableError) Unwrap() error {
	return e.cause
}

// RetryExhaustedError is returned when the bounded retry helper runs out of
// attempts. Errs holds every attempt's error in order; the last element is the
// final cause.
type RetryExhaustedError struct {
	Errs []error
}

func (e *RetryExhaustedError) Error() string {
	if len(e.Errs) == 0 {
		return "all attempts failed"
	}
	return fmt.Sprintf("all %d attempts failed, last error: %v", len(e.Errs), e.Errs[len(e.Errs)-1])
}

func (e *RetryExhaustedError) Unwrap() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e.Errs[len(e.Errs)-1]
}

package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called while running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrRunning indicates an operation that requires a stopped
	// application.
	ErrRunning = errors.New("application is running")

	// ErrLoopClosed indicates a task was deferred to a closed loop.
	ErrLoopClosed = errors.New("main loop closed")

	// ErrInvalidMode indicates an unknown mode name.
	ErrInvalidMode = errors.New("invalid mode")
)

// OperationError reports a failed application operation with its
// target when one exists.
type OperationError struct {
	Op     string
	Target string
	Err    error
}

// NewOperationError creates an OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

// Error implements error.
func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the wrapper instance or the wrapped error.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}

package lifecycle

import (
	"errors"
	"fmt"
)

// Errors for session handling.
var (
	// ErrSessionUsed indicates Run was called on a session that already ran.
	ErrSessionUsed = errors.New("lifecycle session already ran")
	// ErrGoexit indicates the block ended by calling runtime.Goexit.
	ErrGoexit = errors.New("task block called runtime.Goexit")
)

// ExitRequest is returned by a block to ask for the process to exit with Code.
// The controller passes it back to its caller unchanged once stop hooks ran.
type ExitRequest struct {
	Code int
}

// Exit returns an exit request for the given status code.
// Code 0 is a successful exit.
func Exit(code int) error {
	return &ExitRequest{Code: code}
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("exit requested with status %d", e.Code)
}

// ExitCode reports the status code of an exit request found in err's chain.
func ExitCode(err error) (int, bool) {
	var exit *ExitRequest
	if errors.As(err, &exit) {
		return exit.Code, true
	}

	return 0, false
}

// PanicError describes a block that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task block panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// StopHookError reports a task_stop implementation that failed.
//
// Cause is the block's original error, exit request or *PanicError, or nil if
// the block succeeded. Both errors stay reachable through errors.Is and errors.As.
type StopHookError struct {
	Err   error
	Cause error
}

func (e *StopHookError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("task_stop hook failed: %v", e.Err)
	}

	return fmt.Sprintf("task_stop hook failed: %v (while handling: %v)", e.Err, e.Cause)
}

func (e *StopHookError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}

	return []error{e.Err, e.Cause}
}

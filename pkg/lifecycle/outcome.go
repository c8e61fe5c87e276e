package lifecycle

import (
	"errors"
	"fmt"
)

// OutcomeKind tags how a block ended.
type OutcomeKind int

// Outcome kinds.
const (
	// OutcomeNone means the block has not ended.
	OutcomeNone OutcomeKind = iota
	// OutcomeSuccess means the block returned nil.
	OutcomeSuccess
	// OutcomeFailure means the block returned an error.
	OutcomeFailure
	// OutcomeExit means the block returned an exit request.
	OutcomeExit
	// OutcomePanic means the block panicked or called runtime.Goexit.
	OutcomePanic
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeExit:
		return "exit"
	case OutcomePanic:
		return "panic"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is how a block ended. It is computed once per session.
type Outcome struct {
	Kind OutcomeKind
	// Err is what the block returned, or a *PanicError / ErrGoexit for panics.
	Err error
	// Code is the requested exit status for OutcomeExit.
	Code int
}

// Success is the outcome of a block returning nil.
func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// Failure is the outcome of a block returning err.
func Failure(err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// ExitRequested is the outcome of a block returning err, an exit request for code.
func ExitRequested(err error, code int) Outcome {
	return Outcome{Kind: OutcomeExit, Err: err, Code: code}
}

// Panicked is the outcome of a block that panicked with value.
// A nil value means the block called runtime.Goexit.
func Panicked(value any, stack []byte) Outcome {
	if value == nil {
		return Outcome{Kind: OutcomePanic, Err: ErrGoexit}
	}

	return Outcome{Kind: OutcomePanic, Err: &PanicError{Value: value, Stack: stack}}
}

// Classify derives the outcome of a block or session from its returned error.
// A *StopHookError is always a failure, even when it chains an exit request.
func Classify(err error) Outcome {
	if err == nil {
		return Success()
	}

	var stopErr *StopHookError
	if errors.As(err, &stopErr) {
		return Failure(err)
	}

	var exit *ExitRequest
	if errors.As(err, &exit) {
		return ExitRequested(err, exit.Code)
	}

	return Failure(err)
}

// Failed reports the value passed to task_stop.
// Only a success or an exit request with status 0 is not a failure.
func (o Outcome) Failed() bool {
	switch o.Kind {
	case OutcomeSuccess:
		return false
	case OutcomeExit:
		return o.Code != 0
	default:
		return true
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeExit:
		return fmt.Sprintf("exit(%d)", o.Code)
	case OutcomeFailure, OutcomePanic:
		return fmt.Sprintf("%s: %v", o.Kind, o.Err)
	default:
		return o.Kind.String()
	}
}

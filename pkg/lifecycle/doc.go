// Package lifecycle runs a block of task code inside a lifecycle session.
// It resolves installed hooks, calls task_start before the block and task_stop
// after it, and passes the block's result back to the caller unchanged.
//
// Key components:
//   - Controller: Creates sessions over a plugin manager and a discoverer.
//   - Session: One run of a block, with its phase and outcome.
//   - Outcome: How the block ended (success, failure, exit request, panic).
//   - Exit: Builds the error a block returns to request a process exit status.
//
// Usage example:
//
//	controller := lifecycle.NewController(pm, scanner)
//	err := controller.Run(ctx, func(ctx context.Context) error {
//	    if !ok {
//	        return lifecycle.Exit(2)
//	    }
//	    return doTask(ctx)
//	})
//	if code, ok := lifecycle.ExitCode(err); ok {
//	    os.Exit(code)
//	}
//
// Stop hooks run exactly once for every session whose start hooks succeeded,
// and never for a session whose discovery or start hooks failed. If a stop hook
// fails, the returned *StopHookError chains the stop error with the block's
// original error, so errors.Is and errors.As match either.
package lifecycle

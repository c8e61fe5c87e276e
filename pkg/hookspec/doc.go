// Package hookspec declares the hook contracts that plugins may implement.
//
// A Spec names a hook, lists the parameters callers must pass and fixes the call
// semantics. Every built-in hook is call-all: each registered implementation runs
// in registration order and return values are discarded.
//
// Key components:
//   - Spec: A hook contract (name, ordered parameters, documentation).
//   - Args: Named call arguments with typed accessors.
//   - TaskStart, TaskStop: The built-in task lifecycle hooks.
//
// Usage example:
//
//	spec := hookspec.TaskStop
//	if err := spec.CheckArgs(hookspec.Args{hookspec.ParamFailed: true}); err != nil {
//	    logrus.WithError(err).Error("Invalid hook call")
//	}
//	bound := spec.Bind(args, []string{hookspec.ParamFailed})
//
// Implementations may declare only the subset of parameters they consume; Bind
// filters call arguments by name instead of requiring an exact signature match.
package hookspec

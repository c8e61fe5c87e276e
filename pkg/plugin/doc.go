// Package plugin owns the hook registry and dispatches hook calls.
//
// A Manager maps each hook name to an ordered list of implementations. Calls
// invoke every implementation in registration order, binding each to the
// arguments it declared, and stop at the first error.
//
// Key components:
//   - Manager: Hook registry with Register, Unregister and Call.
//   - HookImpl: One implementation of a hook, owned by a named plugin.
//   - TaskStarter, TaskStopper: Opt-in interfaces for plugin values.
//
// Usage example:
//
//	pm := plugin.New(nil)
//	err := pm.Register(hookspec.TaskStopName, plugin.StopHook("audit", func(ctx context.Context, failed bool) error {
//	    logrus.WithField("failed", failed).Info("Task finished")
//	    return nil
//	}))
//	err = pm.Call(ctx, hookspec.TaskStopName, hookspec.Args{hookspec.ParamFailed: false})
//
// The registry is read at call time, so implementations may register or
// unregister others while a call is running.
package plugin

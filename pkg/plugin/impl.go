package plugin

import (
	"context"

	"github.com/nicholas-fedor/taskhooks/pkg/hookspec"
)

// HookFunc is the callable behind a hook implementation.
// It receives only the arguments the implementation declared.
type HookFunc func(ctx context.Context, args hookspec.Args) error

// HookImpl is one implementation of a hook.
type HookImpl struct {
	// Plugin names the plugin that owns the implementation.
	// A hook holds at most one implementation per plugin.
	Plugin string
	// Params lists the hook parameters the implementation consumes.
	Params []string
	// Func is invoked on every call of the hook.
	Func HookFunc
}

// Plugin is a value that bundles hook implementations.
// It opts in to hooks by implementing TaskStarter and/or TaskStopper.
type Plugin interface {
	// Name returns the unique plugin name.
	Name() string
}

// TaskStarter is implemented by plugins that want task_start calls.
type TaskStarter interface {
	TaskStart(ctx context.Context) error
}

// TaskStopper is implemented by plugins that want task_stop calls.
type TaskStopper interface {
	TaskStop(ctx context.Context, failed bool) error
}

// StartHook adapts fn into a task_start implementation owned by plugin.
func StartHook(plugin string, fn func(ctx context.Context) error) HookImpl {
	return HookImpl{
		Plugin: plugin,
		Func: func(ctx context.Context, _ hookspec.Args) error {
			return fn(ctx)
		},
	}
}

// StopHook adapts fn into a task_stop implementation owned by plugin.
func StopHook(plugin string, fn func(ctx context.Context, failed bool) error) HookImpl {
	return HookImpl{
		Plugin: plugin,
		Params: []string{hookspec.ParamFailed},
		Func: func(ctx context.Context, args hookspec.Args) error {
			failed, err := args.Failed()
			if err != nil {
				return err
			}

			return fn(ctx, failed)
		},
	}
}

// implsOf collects the implementations a plugin value opts in to, keyed by hook name.
func implsOf(p Plugin) map[string]HookImpl {
	impls := make(map[string]HookImpl, len(hookspec.Builtin()))

	if h, ok := p.(TaskStarter); ok {
		impls[hookspec.TaskStartName] = StartHook(p.Name(), h.TaskStart)
	}

	if h, ok := p.(TaskStopper); ok {
		impls[hookspec.TaskStopName] = StopHook(p.Name(), h.TaskStop)
	}

	return impls
}

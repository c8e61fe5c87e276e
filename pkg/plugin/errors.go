package plugin

import "errors"

// Errors for hook registration and dispatch.
var (
	// ErrUnknownHook indicates a call named a hook that was never declared.
	ErrUnknownHook = errors.New("unknown hook")
	// ErrSpecExists indicates a hook with the same name is already declared.
	ErrSpecExists = errors.New("hook specification already declared")
	// ErrAlreadyRegistered indicates the plugin already implements the hook.
	ErrAlreadyRegistered = errors.New("plugin already registered for hook")
	// ErrUnnamedPlugin indicates an implementation without an owning plugin name.
	ErrUnnamedPlugin = errors.New("hook implementation has no plugin name")
	// ErrNilHook indicates an implementation without a callable.
	ErrNilHook = errors.New("hook implementation has no function")
	// ErrNoHooks indicates a plugin value implements none of the known hook interfaces.
	ErrNoHooks = errors.New("plugin implements no hooks")
)
